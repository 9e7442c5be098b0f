package duplicate

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDelay = 40 * time.Millisecond

type call struct {
	ctx     context.Context
	company string
	domain  string
}

type fakeLookup struct {
	mu     sync.Mutex
	calls  []call
	result func(n int, ctx context.Context, company, domain string) ([]domain.Candidate, error)
}

func (f *fakeLookup) Lookup(ctx context.Context, company, domainName string) ([]domain.Candidate, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{ctx: ctx, company: company, domain: domainName})
	n := len(f.calls)
	fn := f.result
	f.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(n, ctx, company, domainName)
}

func (f *fakeLookup) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeLookup) last() call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[len(f.calls)-1]
}

func acme() domain.Candidate {
	return domain.Candidate{ID: "deal-123", CompanyName: "ACME Corp", Domain: "acme.com"}
}

func TestQuery_Armed(t *testing.T) {
	assert.False(t, Query{CompanyName: "Ac", Domain: "a.c"}.Armed())
	assert.True(t, Query{CompanyName: "Acm"}.Armed())
	assert.True(t, Query{Domain: "a.co"}.Armed())
	assert.False(t, Query{CompanyName: "  Ac  "}.Armed())
}

func TestDetector_DebounceBurst(t *testing.T) {
	lookup := &fakeLookup{}
	d := New(lookup, WithDelay(testDelay))
	defer d.Stop()

	for _, name := range []string{"Acm", "Acme", "Acme ", "Acme C", "Acme Corp"} {
		st := d.Observe(name, "acme.com")
		assert.True(t, st.Checking)
	}

	require.Eventually(t, func() bool { return lookup.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Never(t, func() bool { return lookup.count() > 1 }, 4*testDelay, 10*time.Millisecond)

	last := lookup.last()
	assert.Equal(t, "Acme Corp", last.company)
	assert.Equal(t, "acme.com", last.domain)
}

func TestDetector_ReplacesCandidatesWholesale(t *testing.T) {
	lookup := &fakeLookup{result: func(n int, _ context.Context, _, _ string) ([]domain.Candidate, error) {
		if n == 1 {
			return []domain.Candidate{acme(), {ID: "deal-456"}}, nil
		}
		return []domain.Candidate{{ID: "deal-789"}}, nil
	}}
	d := New(lookup, WithDelay(testDelay))
	defer d.Stop()

	d.Observe("Acme Corp", "")
	require.Eventually(t, func() bool { return len(d.State().Candidates) == 2 }, time.Second, 5*time.Millisecond)

	d.Observe("Acme Corporation", "")
	require.Eventually(t, func() bool {
		st := d.State()
		return len(st.Candidates) == 1 && st.Candidates[0].ID == "deal-789"
	}, time.Second, 5*time.Millisecond)
	assert.False(t, d.State().Checking)
}

func TestDetector_DisarmClearsAndCancels(t *testing.T) {
	lookup := &fakeLookup{result: func(int, context.Context, string, string) ([]domain.Candidate, error) {
		return []domain.Candidate{acme()}, nil
	}}

	var mu sync.Mutex
	var results []Result
	d := New(lookup, WithDelay(testDelay), WithListener(func(r Result) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}))
	defer d.Stop()

	d.Observe("Acme Corp", "acme.com")
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(results) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Len(t, d.State().Candidates, 1)

	st := d.Observe("Ac", "acm")
	assert.Empty(t, st.Candidates)
	assert.False(t, st.Checking)

	assert.Empty(t, d.State().Candidates)

	// A pending timer is cancelled by disarming.
	d.Observe("Acme Corp", "")
	d.Observe("", "")
	assert.Never(t, func() bool { return lookup.count() > 1 }, 4*testDelay, 10*time.Millisecond)
}

func TestDetector_DiscardsSupersededResult(t *testing.T) {
	release := make(chan struct{})
	lookup := &fakeLookup{result: func(n int, _ context.Context, _, _ string) ([]domain.Candidate, error) {
		if n == 1 {
			<-release
			return []domain.Candidate{{ID: "stale"}}, nil
		}
		return []domain.Candidate{{ID: "fresh"}}, nil
	}}
	d := New(lookup, WithDelay(testDelay))
	defer d.Stop()

	d.Observe("Acme", "")
	require.Eventually(t, func() bool { return lookup.count() == 1 }, time.Second, 5*time.Millisecond)
	first := lookup.last()

	d.Observe("Acme Corp", "")
	assert.Error(t, first.ctx.Err(), "superseded lookup context is cancelled")

	require.Eventually(t, func() bool {
		st := d.State()
		return len(st.Candidates) == 1 && st.Candidates[0].ID == "fresh"
	}, time.Second, 5*time.Millisecond)

	close(release)
	assert.Never(t, func() bool {
		st := d.State()
		return len(st.Candidates) != 1 || st.Candidates[0].ID != "fresh"
	}, 4*testDelay, 10*time.Millisecond)
}

func TestDetector_FailureDegradesToWarning(t *testing.T) {
	boom := errors.New("crm unreachable")
	lookup := &fakeLookup{result: func(int, context.Context, string, string) ([]domain.Candidate, error) {
		return nil, boom
	}}

	got := make(chan Result, 1)
	d := New(lookup, WithDelay(testDelay), WithListener(func(r Result) { got <- r }))
	defer d.Stop()

	d.Observe("Acme Corp", "acme.com")

	select {
	case r := <-got:
		var dce *domain.DuplicateCheckError
		require.ErrorAs(t, r.Err, &dce)
		assert.ErrorIs(t, r.Err, boom)
		assert.Empty(t, r.State.Candidates)
		assert.NotEmpty(t, r.State.Warning)
		assert.False(t, r.State.Checking)
	case <-time.After(time.Second):
		t.Fatal("listener was not called")
	}
}

func TestDetector_Timeout(t *testing.T) {
	lookup := &fakeLookup{result: func(_ int, ctx context.Context, _, _ string) ([]domain.Candidate, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}

	got := make(chan Result, 1)
	d := New(lookup, WithDelay(testDelay), WithTimeout(20*time.Millisecond), WithListener(func(r Result) { got <- r }))
	defer d.Stop()

	d.Observe("Acme Corp", "")

	select {
	case r := <-got:
		assert.ErrorIs(t, r.Err, ErrLookupTimeout)
		assert.Empty(t, r.State.Candidates)
	case <-time.After(time.Second):
		t.Fatal("listener was not called")
	}
}

func TestDetector_Stop(t *testing.T) {
	lookup := &fakeLookup{}
	d := New(lookup, WithDelay(testDelay))

	d.Observe("Acme Corp", "")
	d.Stop()
	d.Observe("Acme Corporation", "")

	assert.Never(t, func() bool { return lookup.count() > 0 }, 4*testDelay, 10*time.Millisecond)
	assert.False(t, d.State().Checking)
}

func TestRateLimited(t *testing.T) {
	lookup := &fakeLookup{}
	limited := RateLimited(lookup, 0.001, 1)

	_, err := limited.Lookup(context.Background(), "Acme", "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.Lookup(ctx, "Acme", "")
	assert.ErrorIs(t, err, ErrThrottled)
	assert.Equal(t, 1, lookup.count())
}
