package registry_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dealreg/pkg/registry"
	"github.com/aretw0/dealreg/pkg/wizard"
)

func newController(t *testing.T, id string) *wizard.Controller {
	t.Helper()
	c, err := wizard.New(wizard.WithSessionID(id))
	require.NoError(t, err)
	return c
}

func TestRegistry_Lifecycle(t *testing.T) {
	reg := registry.NewRegistry()

	reg.Register(newController(t, "b"))
	reg.Register(newController(t, "a"))
	assert.Equal(t, []string{"a", "b"}, reg.IDs())

	c, err := reg.Get("a")
	require.NoError(t, err)
	assert.Equal(t, "a", c.SessionID())

	reg.Remove("a")
	_, err = reg.Get("a")
	assert.ErrorIs(t, err, registry.ErrNotLive)
	assert.Equal(t, 1, reg.Len())

	reg.Remove("unknown")

	reg.CloseAll()
	assert.Equal(t, 0, reg.Len())
}

func TestRegistry_RegisterReplaces(t *testing.T) {
	reg := registry.NewRegistry()
	first := newController(t, "s1")
	second := newController(t, "s1")

	reg.Register(first)
	reg.Register(second)

	got, err := reg.Get("s1")
	require.NoError(t, err)
	assert.Same(t, second, got)
	assert.Equal(t, 1, reg.Len())
}

func TestRegistry_GuardSerializesPerSession(t *testing.T) {
	reg := registry.NewRegistry()

	release := reg.Guard("a")

	acquired := make(chan struct{})
	go func() {
		r := reg.Guard("a")
		close(acquired)
		r()
	}()

	otherDone := make(chan struct{})
	go func() {
		reg.Guard("b")()
		close(otherDone)
	}()

	select {
	case <-otherDone:
	case <-time.After(time.Second):
		t.Fatal("guard on another session must not block")
	}

	select {
	case <-acquired:
		t.Fatal("second guard acquired while the first was held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	release()

	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("guard was not handed over after release")
	}
}
