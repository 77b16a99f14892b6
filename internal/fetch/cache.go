package fetch

import (
	"net/http"
	"time"

	"github.com/maypok86/otter/v2"
)

type cachedPage struct {
	url    string
	status int
	header http.Header
	body   []byte
}

// pageCache holds successful responses with a write-time TTL so repeated
// scrapes of the same gigography pages skip the network.
type pageCache struct {
	cache *otter.Cache[string, cachedPage]
}

func newPageCache(size int, ttl time.Duration) *pageCache {
	return &pageCache{
		cache: otter.Must(&otter.Options[string, cachedPage]{
			MaximumSize:      size,
			ExpiryCalculator: otter.ExpiryWriting[string, cachedPage](ttl),
		}),
	}
}

func (p *pageCache) get(url string) (*Response, bool) {
	entry, ok := p.cache.GetIfPresent(url)
	if !ok {
		return nil, false
	}
	return &Response{
		URL:        entry.url,
		StatusCode: entry.status,
		Header:     entry.header,
		Body:       entry.body,
	}, true
}

func (p *pageCache) set(url string, resp *Response) {
	p.cache.Set(url, cachedPage{
		url:    resp.URL,
		status: resp.StatusCode,
		header: resp.Header,
		body:   resp.Body,
	})
}
