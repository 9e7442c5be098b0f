package dealreg_test

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dealreg"
	"github.com/aretw0/dealreg/pkg/adapters/memory"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/wizard"
)

func fixedClock() time.Time {
	return time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)
}

func newEngine(t *testing.T, opts ...dealreg.Option) (*dealreg.Engine, *memory.DealIndex) {
	t.Helper()
	index := memory.NewDealIndex(memory.WithSeed(memory.DemoSeed()))
	base := []dealreg.Option{
		dealreg.WithLookup(index),
		dealreg.WithSubmitter(index),
		dealreg.WithWizardOptions(
			wizard.WithDebounce(10*time.Millisecond),
			wizard.WithClock(fixedClock),
		),
	}
	eng, err := dealreg.New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = eng.Shutdown(context.Background()) })
	return eng, index
}

func TestEngine_AcmeScenario(t *testing.T) {
	eng, index := newEngine(t)
	ctx := context.Background()

	wiz, err := eng.Start(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, domain.StepQuickCheck, wiz.Current().ID)

	_, err = wiz.UpdateDraft(ctx, domain.Patch{
		domain.FieldCompanyName: "Acme Corp",
		domain.FieldDomain:      "acme.com",
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		d := wiz.Duplicates()
		return !d.Checking && len(d.Candidates) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, "ACME Corp", wiz.Duplicates().Candidates[0].CompanyName)

	for i := 0; i < 4; i++ {
		require.NoError(t, wiz.Advance(ctx))
	}

	_, err = wiz.Submit(ctx)
	var vErr *domain.ValidationError
	require.True(t, errors.As(err, &vErr))
	missing := make([]string, 0, len(vErr.Errors))
	for f := range vErr.Errors {
		missing = append(missing, f)
	}
	sort.Strings(missing)
	assert.Equal(t, []string{
		domain.FieldContractType,
		domain.FieldCustomerIndustry,
		domain.FieldCustomerLocation,
		domain.FieldDealStage,
		domain.FieldDealValue,
		domain.FieldExpectedCloseDate,
		domain.FieldPartnerCompany,
		domain.FieldSubmitterEmail,
		domain.FieldSubmitterName,
		domain.FieldTerritory,
	}, missing)
	assert.Len(t, index.Deals(), 1, "blocked submit must not reach the submitter")

	res, err := wiz.UpdateDraft(ctx, domain.Patch{
		domain.FieldPartnerCompany:    "TechFlow Solutions",
		domain.FieldSubmitterName:     "Jane Doe",
		domain.FieldSubmitterEmail:    "jane@techflow.example",
		domain.FieldTerritory:         "North America",
		domain.FieldCustomerIndustry:  "Manufacturing",
		domain.FieldCustomerLocation:  "Chicago, IL",
		domain.FieldDealStage:         "proposal",
		domain.FieldExpectedCloseDate: "2026-12-15",
		domain.FieldDealValue:         "$150,000",
		domain.FieldContractType:      "new",
		"internalScratch":             "do not send",
	})
	require.NoError(t, err)
	assert.True(t, res.Valid, "errors left: %v", res.Errors)

	id, err := wiz.Submit(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(id, "deal-"))

	deals := index.Deals()
	require.Len(t, deals, 2)
	submitted := deals[1]
	assert.Equal(t, id, submitted.Candidate.ID)
	assert.Equal(t, "acme.com", submitted.Payload["domain"])
	assert.NotContains(t, submitted.Payload, "internalScratch")
	assert.NotContains(t, submitted.Payload, domain.FieldDuplicateResults)
}

func TestEngine_StepStatusesAfterTwoAdvances(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	wiz, err := eng.Start(ctx, "steps")
	require.NoError(t, err)
	require.NoError(t, wiz.Advance(ctx))
	require.NoError(t, wiz.Advance(ctx))

	v := wiz.View()
	assert.Equal(t, 2, v.CurrentIndex)
	want := []domain.StepStatus{
		domain.StepCompleted, domain.StepCompleted, domain.StepCurrent, domain.StepUpcoming, domain.StepUpcoming,
	}
	for i, s := range v.Steps {
		assert.Equal(t, want[i], s.Status, "step %d", i)
	}
}

func TestEngine_CloseAndResume(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	wiz, err := eng.Start(ctx, "resume-me")
	require.NoError(t, err)
	_, err = wiz.UpdateDraft(ctx, domain.Patch{domain.FieldCompanyName: "Initech"})
	require.NoError(t, err)
	require.NoError(t, wiz.Advance(ctx))

	require.NoError(t, eng.Close(ctx, "resume-me"))
	_, err = eng.Get("resume-me")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	resumed, err := eng.Resume(ctx, "resume-me")
	require.NoError(t, err)
	assert.NotSame(t, wiz, resumed)
	assert.Equal(t, "Initech", resumed.Draft().CompanyName)
	assert.Equal(t, domain.StepCoreInfo, resumed.Current().ID)

	again, err := eng.Open(ctx, "resume-me")
	require.NoError(t, err)
	assert.Same(t, resumed, again, "Open must return the live wizard")
}

func TestEngine_ResumeUnknown(t *testing.T) {
	eng, _ := newEngine(t)
	_, err := eng.Resume(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestEngine_OpenStartsMissingSession(t *testing.T) {
	eng, _ := newEngine(t)
	wiz, err := eng.Open(context.Background(), "fresh")
	require.NoError(t, err)
	assert.Equal(t, "fresh", wiz.SessionID())
	assert.Equal(t, domain.StepQuickCheck, wiz.Current().ID)
}

func TestEngine_StartRejectsLiveID(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()
	_, err := eng.Start(ctx, "dup")
	require.NoError(t, err)

	_, err = eng.Start(ctx, "dup")
	assert.ErrorIs(t, err, dealreg.ErrSessionLive)
}

func TestEngine_StartRejectsSavedID(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	wiz, err := eng.Start(ctx, "kept")
	require.NoError(t, err)
	_, err = wiz.UpdateDraft(ctx, domain.Patch{domain.FieldCompanyName: "Initech"})
	require.NoError(t, err)
	require.NoError(t, eng.Close(ctx, "kept"))

	_, err = eng.Start(ctx, "kept")
	require.ErrorIs(t, err, dealreg.ErrSessionExists)
	_, err = eng.Get("kept")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	snap, err := eng.Manager().Load(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, "Initech", snap.Draft.CompanyName)

	opened, err := eng.Open(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, "Initech", opened.Draft().CompanyName)
}

// slowStore widens the window between loading a draft and registering its wizard.
type slowStore struct {
	*memory.Store
	delay time.Duration
}

func (s slowStore) Load(ctx context.Context, id string) (*domain.Snapshot, error) {
	time.Sleep(s.delay)
	return s.Store.Load(ctx, id)
}

func TestEngine_ConcurrentResumeBuildsOneWizard(t *testing.T) {
	eng, _ := newEngine(t, dealreg.WithStore(slowStore{Store: memory.NewStore(), delay: 2 * time.Millisecond}))
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		id := "cold-" + string(rune('a'+i))
		wiz, err := eng.Start(ctx, id)
		require.NoError(t, err)
		require.NoError(t, wiz.AutoSave(ctx))
		require.NoError(t, eng.Close(ctx, id))

		patches := []domain.Patch{
			{domain.FieldTerritory: "EMEA"},
			{domain.FieldPartnerCompany: "TechFlow Solutions"},
		}
		got := make([]*wizard.Controller, len(patches))
		var wg sync.WaitGroup
		for j, p := range patches {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c, err := eng.Resume(ctx, id)
				if !assert.NoError(t, err) {
					return
				}
				got[j] = c
				_, err = c.UpdateDraft(ctx, p)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		require.Same(t, got[0], got[1], "both callers must share the live wizard")
		live, err := eng.Get(id)
		require.NoError(t, err)
		assert.Equal(t, "EMEA", live.Draft().Territory)
		assert.Equal(t, "TechFlow Solutions", live.Draft().PartnerCompany)
	}
}

func TestEngine_ConcurrentOpenOfNewID(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	got := make([]*wizard.Controller, 8)
	var wg sync.WaitGroup
	for i := range got {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c, err := eng.Open(ctx, "contended")
			assert.NoError(t, err)
			got[i] = c
		}()
	}
	wg.Wait()

	for _, c := range got[1:] {
		assert.Same(t, got[0], c)
	}
}

func TestEngine_SessionsAndDiscard(t *testing.T) {
	eng, _ := newEngine(t)
	ctx := context.Background()

	_, err := eng.Start(ctx, "live")
	require.NoError(t, err)
	saved, err := eng.Start(ctx, "saved")
	require.NoError(t, err)
	require.NoError(t, saved.AutoSave(ctx))
	require.NoError(t, eng.Close(ctx, "saved"))

	ids, err := eng.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"live", "saved"}, ids)

	require.NoError(t, eng.Discard(ctx, "saved"))
	ids, err = eng.Sessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"live"}, ids)
}

func TestEngine_ViewListenerAndHooks(t *testing.T) {
	views := make(chan domain.View, 16)
	var entered []string
	eng, _ := newEngine(t,
		dealreg.WithViewListener(func(v domain.View) {
			select {
			case views <- v:
			default:
			}
		}),
		dealreg.WithLifecycleHooks(domain.LifecycleHooks{
			OnStepEnter: func(_ context.Context, e *domain.StepEvent) { entered = append(entered, e.StepID) },
		}),
	)
	ctx := context.Background()

	wiz, err := eng.Start(ctx, "observed")
	require.NoError(t, err)
	require.NoError(t, wiz.Advance(ctx))

	assert.Equal(t, []string{domain.StepQuickCheck, domain.StepCoreInfo}, entered)
	select {
	case v := <-views:
		assert.Equal(t, "observed", v.SessionID)
	case <-time.After(time.Second):
		t.Fatal("expected a view update")
	}
}
