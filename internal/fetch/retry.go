package fetch

import (
	"crypto/rand"
	"math"
	"math/big"
	"time"
)

// backoffPolicy produces jittered exponential delays between retries.
type backoffPolicy struct {
	baseDelay time.Duration
	maxDelay  time.Duration
}

func newBackoffPolicy() backoffPolicy {
	return backoffPolicy{
		baseDelay: 250 * time.Millisecond,
		maxDelay:  5 * time.Second,
	}
}

// delay returns the wait duration before the next attempt.
func (p backoffPolicy) delay(attempt int) time.Duration {
	d := float64(p.baseDelay) * math.Pow(2, float64(attempt))
	if d > float64(p.maxDelay) {
		d = float64(p.maxDelay)
	}
	jitter := randomJitter(time.Duration(d) / 2)
	return time.Duration(d/2) + jitter
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	bound := big.NewInt(int64(limit))
	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return limit / 2
	}
	return time.Duration(n.Int64())
}
