package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dealreg/internal/config"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/wizard"
)

func TestPrintReview(t *testing.T) {
	rt := build(t, config.Default())
	ctx := context.Background()

	wiz, err := rt.Engine.Start(ctx, "s1")
	require.NoError(t, err)
	_, err = wiz.UpdateDraft(ctx, domain.Patch{
		domain.FieldCompanyName: "Initech",
		domain.FieldDealValue:   "600000",
	})
	require.NoError(t, err)
	require.NoError(t, rt.Engine.Close(ctx, "s1"))

	var buf bytes.Buffer
	require.NoError(t, PrintReview(ctx, rt.Engine, "s1", false, &buf))
	assert.Contains(t, buf.String(), "- **Company**: Initech")
	assert.Contains(t, buf.String(), "**enterprise**")

	buf.Reset()
	require.NoError(t, PrintReview(ctx, rt.Engine, "s1", true, &buf))
	var summary wizard.ReviewSummary
	require.NoError(t, json.Unmarshal(buf.Bytes(), &summary))
	assert.Equal(t, "$600,000", summary.DealValue)

	_, err = rt.Engine.Get("s1")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound, "review does not keep the session live")

	err = PrintReview(ctx, rt.Engine, "missing", false, &buf)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
