package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/dealreg/pkg/domain"
)

type nopStore struct{}

func (nopStore) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	return nil
}
func (nopStore) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	return nil, domain.ErrSessionNotFound
}
func (nopStore) Delete(ctx context.Context, sessionID string) error { return nil }
func (nopStore) List(ctx context.Context) ([]string, error)         { return nil, nil }

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(nopStore{})
	ctx := context.Background()

	for i := 0; i < 10000; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = mgr.Save(ctx, sid, &domain.Snapshot{SessionID: sid})
		_ = mgr.Delete(ctx, sid)
	}

	assert.Zero(t, mgr.locks.Len(), "idle session locks must be garbage collected")
}
