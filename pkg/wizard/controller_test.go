package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/ports"
	"github.com/aretw0/dealreg/pkg/sanitize"
	"github.com/aretw0/dealreg/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

type recordingSubmitter struct {
	mu       sync.Mutex
	payloads []sanitize.Payload
	err      error
}

func (s *recordingSubmitter) Submit(_ context.Context, p sanitize.Payload) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	if s.err != nil {
		return "", s.err
	}
	return "REG-0001", nil
}

func (s *recordingSubmitter) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

type mapStore struct {
	mu      sync.Mutex
	data    map[string]*domain.Snapshot
	saves   int
	deletes int
	err     error
}

func newMapStore() *mapStore { return &mapStore{data: make(map[string]*domain.Snapshot)} }

func (m *mapStore) Save(_ context.Context, id string, snap *domain.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.data[id] = snap.Clone()
	return nil
}

func (m *mapStore) Load(_ context.Context, id string) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap, ok := m.data[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return snap.Clone(), nil
}

func (m *mapStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	delete(m.data, id)
	return nil
}

func (m *mapStore) List(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var ids []string
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func completePatch() domain.Patch {
	return domain.Patch{
		domain.FieldCompanyName:       "Acme Corp",
		domain.FieldDomain:            "acme.com",
		domain.FieldPartnerCompany:    "TechFlow Solutions",
		domain.FieldSubmitterName:     "Jane Doe",
		domain.FieldSubmitterEmail:    "jane@techflow.io",
		domain.FieldTerritory:         "EMEA",
		domain.FieldCustomerIndustry:  "technology",
		domain.FieldCustomerLocation:  "Berlin, Germany",
		domain.FieldDealStage:         "proposal",
		domain.FieldExpectedCloseDate: "2026-12-15",
		domain.FieldDealValue:         "$150,000",
		domain.FieldContractType:      "new",
	}
}

func newController(t *testing.T, opts ...Option) *Controller {
	t.Helper()
	c, err := New(append([]Option{WithClock(clock), WithSessionID("s-1")}, opts...)...)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func goToReview(t *testing.T, c *Controller) {
	t.Helper()
	for c.Current().ID != domain.StepReview {
		require.NoError(t, c.Advance(context.Background()))
	}
}

func TestController_StartsAtQuickCheck(t *testing.T) {
	c := newController(t)

	steps := c.Steps()
	require.Len(t, steps, 5)
	assert.Equal(t, domain.StepQuickCheck, steps[0].ID)
	assert.Equal(t, domain.StepCurrent, steps[0].Status)
	for _, s := range steps[1:] {
		assert.Equal(t, domain.StepUpcoming, s.Status)
	}
}

func TestController_StepStatusesAfterTwoAdvances(t *testing.T) {
	ctx := context.Background()
	c := newController(t)

	require.NoError(t, c.Advance(ctx))
	require.NoError(t, c.Advance(ctx))

	v := c.View()
	assert.Equal(t, 2, v.CurrentIndex)
	assert.Equal(t, domain.StepDealIntelligence, v.CurrentStepID)
	assert.Equal(t, domain.StepCompleted, v.Steps[0].Status)
	assert.Equal(t, domain.StepCompleted, v.Steps[1].Status)
	assert.Equal(t, domain.StepCurrent, v.Steps[2].Status)
	assert.Equal(t, domain.StepUpcoming, v.Steps[3].Status)
	assert.Equal(t, domain.StepUpcoming, v.Steps[4].Status)
}

func TestController_Boundaries(t *testing.T) {
	ctx := context.Background()
	c := newController(t)

	var be *domain.BoundaryError
	err := c.Retreat(ctx)
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "retreat", be.Op)
	assert.Equal(t, domain.StepQuickCheck, c.Current().ID)

	goToReview(t, c)
	err = c.Advance(ctx)
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "advance", be.Op)
	assert.Equal(t, domain.StepReview, c.Current().ID)

	require.NoError(t, c.Retreat(ctx))
	assert.Equal(t, domain.StepDocumentation, c.Current().ID)
}

func TestController_NavigationIsNotGated(t *testing.T) {
	c := newController(t)
	assert.False(t, c.IsValid())
	goToReview(t, c)
	assert.Equal(t, domain.StepReview, c.Current().ID)
}

func TestController_UpdateDraftReturnsErrors(t *testing.T) {
	ctx := context.Background()
	c := newController(t)

	res, err := c.UpdateDraft(ctx, domain.Patch{domain.FieldDomain: "example"})
	require.NoError(t, err)
	assert.False(t, res.Valid)
	assert.Equal(t, validation.MsgDomain, res.Errors[domain.FieldDomain])
	assert.Equal(t, res.Errors, c.Errors())

	res, err = c.UpdateDraft(ctx, completePatch())
	require.NoError(t, err)
	assert.True(t, res.Valid, "unexpected errors: %v", res.Errors)
	assert.True(t, c.IsValid())
}

func TestController_UpdateDraftRejectsBadPatch(t *testing.T) {
	ctx := context.Background()
	c := newController(t)
	_, err := c.UpdateDraft(ctx, domain.Patch{domain.FieldCompanyName: "Acme Corp"})
	require.NoError(t, err)

	_, err = c.UpdateDraft(ctx, domain.Patch{domain.FieldCompanyName: []string{"x"}, domain.FieldTerritory: "EMEA"})
	require.Error(t, err)
	assert.Equal(t, "Acme Corp", c.Draft().CompanyName)
	assert.Empty(t, c.Draft().Territory)
}

func TestController_SubmitOnlyFromReview(t *testing.T) {
	sub := &recordingSubmitter{}
	c := newController(t, WithSubmitter(sub))
	_, err := c.UpdateDraft(context.Background(), completePatch())
	require.NoError(t, err)

	_, err = c.Submit(context.Background())
	var be *domain.BoundaryError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "submit", be.Op)
	assert.Zero(t, sub.calls())
}

func TestController_SubmitBlockedUntilValid(t *testing.T) {
	ctx := context.Background()
	sub := &recordingSubmitter{}
	store := newMapStore()
	c := newController(t, WithSubmitter(sub), WithStore(store))

	_, err := c.UpdateDraft(ctx, domain.Patch{domain.FieldCompanyName: "Acme Corp", domain.FieldDomain: "acme.com"})
	require.NoError(t, err)
	require.NoError(t, c.AutoSave(ctx))
	goToReview(t, c)

	_, err = c.Submit(ctx)
	var ve *domain.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Errors, domain.FieldPartnerCompany)
	assert.Contains(t, ve.Errors, domain.FieldDealValue)
	assert.Zero(t, sub.calls())
	assert.Equal(t, domain.StepReview, c.Current().ID)

	_, err = c.UpdateDraft(ctx, completePatch())
	require.NoError(t, err)

	id, err := c.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, "REG-0001", id)

	v := c.View()
	assert.True(t, v.Submitted)
	assert.Equal(t, "REG-0001", v.ConfirmationID)
	assert.Equal(t, 1, store.deletes)
	_, err = store.Load(ctx, "s-1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	_, err = c.UpdateDraft(ctx, domain.Patch{domain.FieldTerritory: "APAC"})
	assert.ErrorIs(t, err, domain.ErrAlreadySubmitted)
	_, err = c.Submit(ctx)
	assert.ErrorIs(t, err, domain.ErrAlreadySubmitted)
}

func TestController_SubmitSendsSanitizedPayload(t *testing.T) {
	ctx := context.Background()
	sub := &recordingSubmitter{}
	c := newController(t, WithSubmitter(sub))

	patch := completePatch()
	patch[domain.FieldCompanyName] = "  Acme Corp  "
	patch["internalScratch"] = "do not send"
	patch[domain.FieldCustomerRevenue] = "10M-50M"
	_, err := c.UpdateDraft(ctx, patch)
	require.NoError(t, err)
	goToReview(t, c)

	_, err = c.Submit(ctx)
	require.NoError(t, err)

	require.Equal(t, 1, sub.calls())
	p := sub.payloads[0]
	assert.Equal(t, "Acme Corp", p[domain.FieldCompanyName])
	assert.NotContains(t, p, "internalScratch")
	assert.NotContains(t, p, domain.FieldDuplicateResults)
	assert.NotContains(t, p, domain.FieldCustomerRevenue)
	assert.NotContains(t, p, domain.FieldPrimaryProduct)
	assert.Equal(t, sanitize.Sanitize(p), p)
}

func TestController_SubmissionFailurePreservesState(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("crm unavailable")
	sub := &recordingSubmitter{err: cause}
	c := newController(t, WithSubmitter(sub))

	_, err := c.UpdateDraft(ctx, completePatch())
	require.NoError(t, err)
	goToReview(t, c)
	before := c.Draft()

	_, err = c.Submit(ctx)
	var se *domain.SubmissionError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, before, c.Draft())
	assert.Equal(t, domain.StepReview, c.Current().ID)
	assert.False(t, c.View().Submitted)

	sub.mu.Lock()
	sub.err = nil
	sub.mu.Unlock()

	id, err := c.Submit(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 2, sub.calls())
}

func TestController_SubmitTimeout(t *testing.T) {
	ctx := context.Background()
	slow := ports.SubmitFunc(func(ctx context.Context, _ sanitize.Payload) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	c := newController(t, WithSubmitter(slow), WithSubmitTimeout(20*time.Millisecond))

	_, err := c.UpdateDraft(ctx, completePatch())
	require.NoError(t, err)
	goToReview(t, c)

	_, err = c.Submit(ctx)
	var se *domain.SubmissionError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, ErrSubmitTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestController_SubmitWithoutSubmitter(t *testing.T) {
	ctx := context.Background()
	c := newController(t)
	_, err := c.UpdateDraft(ctx, completePatch())
	require.NoError(t, err)
	goToReview(t, c)

	_, err = c.Submit(ctx)
	assert.ErrorIs(t, err, ErrNoSubmitter)
}

func TestController_TermsRequired(t *testing.T) {
	ctx := context.Background()
	c := newController(t, WithTermsRequired(), WithSubmitter(&recordingSubmitter{}))

	res, err := c.UpdateDraft(ctx, completePatch())
	require.NoError(t, err)
	assert.Equal(t, validation.MsgRequired, res.Errors[domain.FieldAgreedToTerms])

	res, err = c.UpdateDraft(ctx, domain.Patch{domain.FieldAgreedToTerms: true})
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestController_Hooks(t *testing.T) {
	ctx := context.Background()
	var mu sync.Mutex
	var entered, left []string
	var submits []*domain.SubmitEvent

	c := newController(t,
		WithSubmitter(&recordingSubmitter{}),
		WithHooks(domain.LifecycleHooks{
			OnStepEnter: func(_ context.Context, e *domain.StepEvent) {
				mu.Lock()
				entered = append(entered, e.StepID)
				mu.Unlock()
			},
			OnStepLeave: func(_ context.Context, e *domain.StepEvent) {
				mu.Lock()
				left = append(left, e.StepID)
				mu.Unlock()
			},
			OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
				mu.Lock()
				submits = append(submits, e)
				mu.Unlock()
			},
		}),
	)

	require.NoError(t, c.Advance(ctx))
	require.NoError(t, c.Retreat(ctx))
	goToReview(t, c)
	_, _ = c.Submit(ctx)
	_, err := c.UpdateDraft(ctx, completePatch())
	require.NoError(t, err)
	_, err = c.Submit(ctx)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{domain.StepCoreInfo, domain.StepQuickCheck}, entered[:2])
	assert.Equal(t, []string{domain.StepQuickCheck, domain.StepCoreInfo}, left[:2])
	require.Len(t, submits, 2)
	assert.True(t, submits[0].Invalid)
	assert.Equal(t, "REG-0001", submits[1].ConfirmationID)
	assert.Equal(t, "s-1", submits[1].SessionID)
}

func TestController_AutoSave(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	c := newController(t, WithStore(store))

	_, err := c.UpdateDraft(ctx, domain.Patch{domain.FieldCompanyName: "Acme Corp", "internalScratch": 7})
	require.NoError(t, err)
	require.NoError(t, c.Advance(ctx))
	before := c.Draft()

	require.NoError(t, c.AutoSave(ctx))
	require.NoError(t, c.AutoSave(ctx))
	assert.Equal(t, 2, store.saves)
	assert.Equal(t, before, c.Draft())

	snap, err := store.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StepCoreInfo, snap.CurrentStepID)
	assert.Equal(t, "Acme Corp", snap.Draft.CompanyName)
	assert.Equal(t, 7, snap.Draft.Scratch["internalScratch"])
	assert.Equal(t, validation.MsgRequired, snap.Errors[domain.FieldTerritory])
	assert.Equal(t, fixedNow, snap.SavedAt)
}

func TestController_AutoSaveErrors(t *testing.T) {
	ctx := context.Background()
	assert.ErrorIs(t, newController(t).AutoSave(ctx), ErrNoStore)

	store := newMapStore()
	store.err = errors.New("disk full")
	var saved *domain.SaveEvent
	c := newController(t, WithStore(store), WithHooks(domain.LifecycleHooks{
		OnAutoSave: func(_ context.Context, e *domain.SaveEvent) { saved = e },
	}))
	err := c.AutoSave(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.err)
	require.NotNil(t, saved)
	assert.Equal(t, store.err, saved.Err)
}

func TestController_Restore(t *testing.T) {
	ctx := context.Background()
	store := newMapStore()
	first := newController(t, WithStore(store))
	_, err := first.UpdateDraft(ctx, domain.Patch{domain.FieldCompanyName: "Acme Corp", domain.FieldTerritory: "EMEA"})
	require.NoError(t, err)
	require.NoError(t, first.Advance(ctx))
	require.NoError(t, first.AutoSave(ctx))

	snap, err := store.Load(ctx, "s-1")
	require.NoError(t, err)

	second := newController(t, WithSessionID("other"))
	require.NoError(t, second.Restore(snap))
	assert.Equal(t, "s-1", second.SessionID())
	assert.Equal(t, domain.StepCoreInfo, second.Current().ID)
	assert.Equal(t, "EMEA", second.Draft().Territory)
	assert.Equal(t, first.Errors(), second.Errors())

	snap.CurrentStepID = "nowhere"
	assert.Error(t, second.Restore(snap))
}

func TestNew_RejectsBadSteps(t *testing.T) {
	_, err := New(WithSteps(nil))
	assert.Error(t, err)

	_, err = New(WithSteps([]domain.Step{{ID: "a"}, {ID: "a"}}))
	assert.Error(t, err)
}

func TestController_DuplicateDetection(t *testing.T) {
	ctx := context.Background()
	var calls sync.WaitGroup
	calls.Add(1)
	lookup := ports.LookupFunc(func(_ context.Context, company, domainName string) ([]domain.Candidate, error) {
		defer calls.Done()
		assert.Equal(t, "Acme Corp", company)
		assert.Equal(t, "acme.com", domainName)
		return []domain.Candidate{{ID: "deal-123", CompanyName: "ACME Corp", Domain: "acme.com"}}, nil
	})

	var mu sync.Mutex
	var checks []*domain.DuplicateEvent
	views := make(chan domain.View, 16)
	c := newController(t,
		WithLookup(lookup),
		WithDebounce(30*time.Millisecond),
		WithHooks(domain.LifecycleHooks{OnDuplicateCheck: func(_ context.Context, e *domain.DuplicateEvent) {
			mu.Lock()
			checks = append(checks, e)
			mu.Unlock()
		}}),
		WithChangeListener(func(v domain.View) {
			select {
			case views <- v:
			default:
			}
		}),
	)

	res, err := c.UpdateDraft(ctx, domain.Patch{domain.FieldCompanyName: "Acme Corp", domain.FieldDomain: "acme.com"})
	require.NoError(t, err)
	assert.True(t, res.Duplicates.Checking)

	require.Eventually(t, func() bool { return len(c.Duplicates().Candidates) == 1 }, time.Second, 5*time.Millisecond)
	calls.Wait()

	assert.Equal(t, "ACME Corp", c.Duplicates().Candidates[0].CompanyName)
	assert.Equal(t, c.Duplicates().Candidates, c.Fields()[domain.FieldDuplicateResults])
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(checks) == 1
	}, time.Second, 5*time.Millisecond)

	// Clearing the fields disarms the detector and drops the candidates at once.
	res, err = c.UpdateDraft(ctx, domain.Patch{domain.FieldCompanyName: "", domain.FieldDomain: ""})
	require.NoError(t, err)
	assert.Empty(t, res.Duplicates.Candidates)
	assert.NotEmpty(t, views)
}
