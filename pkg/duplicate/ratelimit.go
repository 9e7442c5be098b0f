package duplicate

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/ports"
)

var (
	// ErrThrottled is returned when the lookup rate limit leaves no room before the deadline.
	ErrThrottled = errors.New("duplicate lookup throttled")
	// ErrLookupTimeout marks a lookup that exceeded its timeout.
	ErrLookupTimeout = errors.New("duplicate lookup timed out")
)

type limitedLookup struct {
	next    ports.DuplicateLookup
	limiter *rate.Limiter
}

// RateLimited wraps lookup with a token bucket of rps requests per second and the given burst.
// Calls wait for a token while their context allows it.
func RateLimited(lookup ports.DuplicateLookup, rps float64, burst int) ports.DuplicateLookup {
	return &limitedLookup{
		next:    lookup,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (l *limitedLookup) Lookup(ctx context.Context, companyName, domainName string) ([]domain.Candidate, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrThrottled, err)
	}
	return l.next.Lookup(ctx, companyName, domainName)
}
