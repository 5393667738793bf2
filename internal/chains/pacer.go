package chains

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Pacer enforces a minimum spacing between consecutive calls to the same
// provider. Most of the public explorer APIs this service leans on are
// free-tier and ban clients that poll faster than every few seconds.
type Pacer struct {
	spacing time.Duration

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewPacer(spacing time.Duration) *Pacer {
	return &Pacer{
		spacing:  spacing,
		limiters: make(map[string]*rate.Limiter),
	}
}

// Wait blocks until the named provider may be called again, or until ctx is
// done. Distinct providers never block each other.
func (p *Pacer) Wait(ctx context.Context, provider string) error {
	if p == nil || p.spacing <= 0 {
		return nil
	}

	p.mu.Lock()
	limiter, ok := p.limiters[provider]
	if !ok {
		limiter = rate.NewLimiter(rate.Every(p.spacing), 1)
		p.limiters[provider] = limiter
	}
	p.mu.Unlock()

	return limiter.Wait(ctx)
}
