package runner

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/dealreg/pkg/adapters/memory"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newController(t *testing.T, store *memory.Store, index *memory.DealIndex) *wizard.Controller {
	t.Helper()
	c, err := wizard.New(
		wizard.WithSessionID("run-1"),
		wizard.WithStore(store),
		wizard.WithSubmitter(index),
		wizard.WithClock(func() time.Time { return time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC) }),
	)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func lines(cmds ...string) io.Reader {
	return strings.NewReader(strings.Join(cmds, "\n") + "\n")
}

func responses(t *testing.T, out *bytes.Buffer) []Response {
	t.Helper()
	var res []Response
	sc := bufio.NewScanner(out)
	for sc.Scan() {
		var r Response
		require.NoError(t, json.Unmarshal(sc.Bytes(), &r), sc.Text())
		res = append(res, r)
	}
	return res
}

func TestRunner_FullRegistration(t *testing.T) {
	store := memory.NewStore()
	index := memory.NewDealIndex()
	c := newController(t, store, index)

	patch := `{"op":"update","patch":{"companyName":"Initech","domain":"initech.com","partnerCompany":"TechFlow Solutions",` +
		`"submitterName":"Jane Doe","submitterEmail":"jane@techflow.example","territory":"North America",` +
		`"customerIndustry":"Manufacturing","customerLocation":"Chicago, IL","dealStage":"proposal",` +
		`"expectedCloseDate":"2026-12-15","dealValue":150000,"contractType":"new"}}`

	var out bytes.Buffer
	r := New(c, WithIO(lines(
		`{"op":"view"}`,
		patch,
		`{"op":"advance"}`, `{"op":"advance"}`, `{"op":"advance"}`, `{"op":"advance"}`,
		`{"op":"review"}`,
		`{"op":"submit"}`,
	), &out))

	require.NoError(t, r.Run(t.Context()))

	res := responses(t, &out)
	require.Len(t, res, 8)

	assert.Equal(t, "view", res[0].Op)
	require.NotNil(t, res[0].View)
	assert.Equal(t, 0, res[0].View.CurrentIndex)

	require.NotNil(t, res[1].Result)
	assert.True(t, res[1].Result.Valid, res[1].Error)

	assert.Equal(t, 4, res[5].View.CurrentIndex)

	require.NotNil(t, res[6].Review)
	assert.Equal(t, "$150,000", res[6].Review.DealValue)
	assert.Nil(t, res[6].View)

	assert.Empty(t, res[7].Error)
	assert.True(t, strings.HasPrefix(res[7].ConfirmationID, "deal-"))
	assert.True(t, res[7].View.Submitted)
	assert.Len(t, index.Deals(), 1)
}

func TestRunner_ErrorsAreReportedInline(t *testing.T) {
	c := newController(t, memory.NewStore(), memory.NewDealIndex())

	var out bytes.Buffer
	r := New(c, WithIO(lines(
		`not json`,
		``,
		`{"op":"retreat"}`,
		`{"op":"teleport"}`,
		`{"op":"update","patch":{"agreedToTerms":[]}}`,
		`{"op":"submit"}`,
		`{"op":"remove-file","fileId":"missing"}`,
	), &out))

	require.NoError(t, r.Run(t.Context()))

	res := responses(t, &out)
	require.Len(t, res, 6)

	assert.Contains(t, res[0].Error, ErrInvalidCommand.Error())
	assert.Empty(t, res[0].Op)

	assert.Equal(t, "retreat", res[1].Op)
	assert.NotEmpty(t, res[1].Error)
	assert.Equal(t, 0, res[1].View.CurrentIndex)

	assert.Contains(t, res[2].Error, ErrUnknownOp.Error())
	assert.Contains(t, res[3].Error, domain.ErrInvalidPatch.Error())
	assert.Nil(t, res[3].Result)

	assert.NotEmpty(t, res[4].Error)
	assert.Empty(t, res[4].ConfirmationID)

	assert.Contains(t, res[5].Error, wizard.ErrFileNotFound.Error())
}

func TestRunner_SanitizesPatch(t *testing.T) {
	c := newController(t, memory.NewStore(), memory.NewDealIndex())

	resp := New(c, WithIO(strings.NewReader(""), io.Discard)).Execute(t.Context(), Command{
		Op:    "update",
		Patch: map[string]any{domain.FieldCompanyName: "Ac\x00me"},
	})

	assert.Empty(t, resp.Error)
	assert.Equal(t, "Acme", c.Draft().CompanyName)
}

func TestRunner_QuitStopsReading(t *testing.T) {
	c := newController(t, memory.NewStore(), memory.NewDealIndex())

	var out bytes.Buffer
	r := New(c, WithIO(lines(`{"op":"quit"}`, `{"op":"advance"}`), &out))
	require.NoError(t, r.Run(t.Context()))

	res := responses(t, &out)
	require.Len(t, res, 1)
	assert.Equal(t, "quit", res[0].Op)
	assert.Equal(t, 0, c.View().CurrentIndex)
}

func TestRunner_SaveOnExit(t *testing.T) {
	store := memory.NewStore()
	c := newController(t, store, memory.NewDealIndex())

	r := New(c,
		WithIO(lines(`{"op":"update","patch":{"companyName":"Globex"}}`), io.Discard),
		WithSaveOnExit(),
	)
	require.NoError(t, r.Run(t.Context()))

	snap, err := store.Load(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "Globex", snap.Draft.CompanyName)
}

func TestRunner_StopsOnCancel(t *testing.T) {
	c := newController(t, memory.NewStore(), memory.NewDealIndex())

	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() {
		done <- New(c, WithIO(pr, io.Discard)).Run(ctx)
	}()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop after cancellation")
	}
}
