package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/dealreg/internal/config"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/validation"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dealreg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
	assert.Equal(t, config.StoreMemory, cfg.Store.Kind)
	assert.Equal(t, 800*time.Millisecond, cfg.Wizard.Debounce)
	assert.Equal(t, domain.MaxUploadBytes, cfg.Files.MaxBytes)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
store:
  kind: redis
  ttl: 24h
  redis:
    addr: redis:6379
    lock: true
wizard:
  debounce: 300ms
  termsRequired: true
  lookupRate: 2
  lookupBurst: 4
encryption:
  keyEnv: DEALREG_KEY
`)
	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, config.StoreRedis, cfg.Store.Kind)
	assert.Equal(t, 24*time.Hour, cfg.Store.TTL)
	assert.Equal(t, "redis:6379", cfg.Store.Redis.Addr)
	assert.True(t, cfg.Store.Redis.Lock)
	assert.Equal(t, 300*time.Millisecond, cfg.Wizard.Debounce)
	assert.Equal(t, 5*time.Second, cfg.Wizard.LookupTimeout, "unset keys keep defaults")
	assert.True(t, cfg.Wizard.TermsRequired)
	assert.Equal(t, 2.0, cfg.Wizard.LookupRate)
	assert.Equal(t, "DEALREG_KEY", cfg.Encryption.KeyEnv)
}

func TestLoad_RejectsUnknownStore(t *testing.T) {
	_, err := config.Load(writeConfig(t, "store:\n  kind: postgres\n"))
	assert.ErrorContains(t, err, "unknown store kind")
}

func TestLoad_RejectsBadRules(t *testing.T) {
	_, err := config.Load(writeConfig(t, `
rules:
  - field: companyName
    minLength: 10
    maxLength: 2
  - field: domain
    pattern: "("
`))
	require.Error(t, err)

	var agg *validation.AggregateError
	require.ErrorAs(t, err, &agg)
	assert.Len(t, agg.Errors, 2)
}

func TestConfig_RuleSet(t *testing.T) {
	cfg := config.Default()
	rs, err := cfg.RuleSet()
	require.NoError(t, err)
	assert.Equal(t, validation.DefaultRules().Fields(), rs.Fields())

	cfg.Rules = []validation.RuleSpec{{Field: "companyName", Required: true}}
	rs, err = cfg.RuleSet()
	require.NoError(t, err)
	assert.Equal(t, []string{"companyName"}, rs.Fields())
}
