package process_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dealreg/pkg/adapters/process"
	"github.com/aretw0/dealreg/pkg/sanitize"
)

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell fixtures need sh")
	}
}

func TestRunner_UnregisteredCommand(t *testing.T) {
	_, err := process.NewRunner().Run(context.Background(), "hacker_script", nil, nil)
	assert.ErrorIs(t, err, process.ErrNotRegistered)
}

func TestRunner_Submitter(t *testing.T) {
	requireShell(t)
	r := process.NewRunner()
	// Echo back the submitted company so the test can see stdin arrived.
	r.Register("crm", "sh", "-c", `read body; case "$body" in *'"companyName":"ACME Corp"'*) echo '{"id":"deal-777"}';; *) exit 3;; esac`)

	id, err := r.Submitter("crm").Submit(context.Background(), sanitize.Payload{"companyName": "ACME Corp"})
	require.NoError(t, err)
	assert.Equal(t, "deal-777", id)
}

func TestRunner_SubmitterBareID(t *testing.T) {
	requireShell(t)
	r := process.NewRunner()
	r.Register("crm", "sh", "-c", "cat >/dev/null; echo CONF-1")

	id, err := r.Submitter("crm").Submit(context.Background(), sanitize.Payload{})
	require.NoError(t, err)
	assert.Equal(t, "CONF-1", id)
}

func TestRunner_SubmitterFailure(t *testing.T) {
	requireShell(t)
	r := process.NewRunner()
	r.Register("crm", "sh", "-c", "echo 'crm down' >&2; exit 1")

	_, err := r.Submitter("crm").Submit(context.Background(), sanitize.Payload{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crm down")
}

func TestRunner_Lookup(t *testing.T) {
	requireShell(t)
	r := process.NewRunner()
	r.Register("dups", "sh", "-c",
		`printf '[{"id":"deal-1","companyName":"%s","domain":"%s"}]' "$DEALREG_ARG_COMPANY_NAME" "$DEALREG_ARG_DOMAIN"`)

	got, err := r.Lookup("dups").Lookup(context.Background(), "ACME Corp", "acme.com")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "ACME Corp", got[0].CompanyName)
	assert.Equal(t, "acme.com", got[0].Domain)
}

func TestRunner_LookupEmptyOutput(t *testing.T) {
	requireShell(t)
	r := process.NewRunner()
	r.Register("dups", "true")

	got, err := r.Lookup("dups").Lookup(context.Background(), "Initech", "")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestRunner_LookupInvalidJSON(t *testing.T) {
	requireShell(t)
	r := process.NewRunner()
	r.Register("dups", "echo", "not-json")

	_, err := r.Lookup("dups").Lookup(context.Background(), "Initech", "")
	assert.Error(t, err)
}

func TestRunner_ContextCancel(t *testing.T) {
	requireShell(t)
	r := process.NewRunner()
	r.Register("slow", "sleep", "5")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := r.Run(ctx, "slow", nil, nil)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestLoadCommands(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
commands:
  - name: crm
    command: crm-cli
    args: ["submit"]
    env:
      CRM_TOKEN: abc
  - command: nameless
`), 0o644))

	cmds, err := process.LoadCommands(path)
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, "crm-cli", cmds["crm"].Command)
	assert.Equal(t, []string{"submit"}, cmds["crm"].Args)
	assert.Equal(t, "abc", cmds["crm"].Environment["CRM_TOKEN"])

	missing, err := process.LoadCommands(filepath.Join(dir, "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, missing)
}

func TestRunner_WithRegistryEnv(t *testing.T) {
	requireShell(t)
	r := process.NewRunner(process.WithRegistry(map[string]process.ProcessConfig{
		"crm": {Name: "crm", Command: "sh", Args: []string{"-c", "cat >/dev/null; echo $CRM_PREFIX-9"}, Environment: map[string]string{"CRM_PREFIX": "REG"}},
	}))

	id, err := r.Submitter("crm").Submit(context.Background(), sanitize.Payload{})
	require.NoError(t, err)
	assert.Equal(t, "REG-9", id)
}
