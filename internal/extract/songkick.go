package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/showoracle/last-show-oracle/internal/oracle"
	"github.com/showoracle/last-show-oracle/internal/venues"
)

// Gigography rows mentioning sales are future shows, not history.
var songkickSkipWords = []string{"upcoming", "on sale", "presale", "tickets"}

// Songkick extracts candidates from a gigography page: every time anchor
// with a datetime attribute is run through the row extractor. Rows
// advertising upcoming shows or ticket sales are skipped; canceled wording
// flags the candidate instead of dropping it. A bad row never aborts the
// page.
func Songkick(htmlText, pageURL string, lists venues.Lists, logger *zap.Logger) ([]oracle.Candidate, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var out []oracle.Candidate
	doc.Find("time[datetime]").Each(func(_ int, timeSel *goquery.Selection) {
		c, ok := RowCandidate(timeSel, pageURL, lists, logger)
		if !ok {
			return
		}
		if containsAnyFold(c.Snippet, songkickSkipWords) {
			return
		}
		c.Canceled = containsAnyFold(c.Snippet, canceledWords)
		out = append(out, c)
	})
	return out, nil
}
