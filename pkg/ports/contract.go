package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractSnapshot(sessionID string) *domain.Snapshot {
	snap := &domain.Snapshot{
		SessionID:     sessionID,
		CurrentStepID: domain.StepCoreInfo,
		Errors:        map[string]string{domain.FieldTerritory: "This field is required."},
		SavedAt:       time.Now().UTC().Truncate(time.Second),
	}
	snap.Draft.CompanyName = "Acme Corp"
	snap.Draft.Domain = "acme.com"
	snap.Draft.UploadedFiles = []domain.UploadedFile{
		{ID: "f1", Name: "rfp.pdf", SizeBytes: 1024, MimeType: "application/pdf", Category: domain.CategoryRFP, Handle: "blob-1"},
	}
	snap.Draft.Scratch = map[string]any{"internalScratch": "kept"}
	return snap
}

// RunDraftStoreContract runs a suite of tests to verify that a DraftStore implementation
// adheres to the defined interface contract.
func RunDraftStoreContract(t *testing.T, store DraftStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		snap := contractSnapshot(sessionID)

		err := store.Save(ctx, sessionID, snap)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, snap.CurrentStepID, loaded.CurrentStepID)
		assert.Equal(t, "Acme Corp", loaded.Draft.CompanyName)
		assert.Equal(t, snap.Errors, loaded.Errors)
		require.Len(t, loaded.Draft.UploadedFiles, 1)
		assert.Equal(t, "blob-1", loaded.Draft.UploadedFiles[0].Handle)
		assert.Equal(t, "kept", loaded.Draft.Scratch["internalScratch"])
		assert.True(t, snap.SavedAt.Equal(loaded.SavedAt))
	})

	t.Run("Save is idempotent", func(t *testing.T) {
		snap := contractSnapshot(sessionID)
		require.NoError(t, store.Save(ctx, sessionID, snap))
		require.NoError(t, store.Save(ctx, sessionID, snap))

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		assert.Equal(t, snap.Draft.CompanyName, loaded.Draft.CompanyName)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, sessionID, contractSnapshot(sessionID))
		require.NoError(t, err)

		err = store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Save(ctx, id1, contractSnapshot(id1))
		_ = store.Save(ctx, id2, contractSnapshot(id2))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
