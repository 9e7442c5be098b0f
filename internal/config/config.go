// Package config loads the dealreg runtime configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/duplicate"
	"github.com/aretw0/dealreg/pkg/validation"
	"github.com/aretw0/dealreg/pkg/wizard"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// DefaultPath is where the CLI looks for a config file.
const DefaultPath = "dealreg.yaml"

// Config is the full runtime configuration.
type Config struct {
	Server       ServerConfig          `yaml:"server"`
	Store        StoreConfig           `yaml:"store"`
	Files        FilesConfig           `yaml:"files"`
	Wizard       WizardConfig          `yaml:"wizard"`
	Integrations IntegrationsConfig    `yaml:"integrations"`
	Encryption   EncryptionConfig      `yaml:"encryption"`
	Rules        []validation.RuleSpec `yaml:"rules"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// StoreConfig selects and configures the draft store.
type StoreConfig struct {
	Kind  string        `yaml:"kind"`
	Dir   string        `yaml:"dir"`
	TTL   time.Duration `yaml:"ttl"`
	Redis RedisConfig   `yaml:"redis"`
}

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
	Lock     bool   `yaml:"lock"`
}

// FilesConfig configures attachment storage.
type FilesConfig struct {
	Dir        string              `yaml:"dir"`
	MaxBytes   int64               `yaml:"maxBytes"`
	Categories map[string][]string `yaml:"categories"`
}

// WizardConfig tunes the controller.
type WizardConfig struct {
	Debounce      time.Duration `yaml:"debounce"`
	LookupTimeout time.Duration `yaml:"lookupTimeout"`
	SubmitTimeout time.Duration `yaml:"submitTimeout"`
	TermsRequired bool          `yaml:"termsRequired"`
	LookupRate    float64       `yaml:"lookupRate"`
	LookupBurst   int           `yaml:"lookupBurst"`
}

// IntegrationsConfig points the wizard at external commands.
// Empty names fall back to the in-memory deal index.
type IntegrationsConfig struct {
	CommandsFile  string `yaml:"commandsFile"`
	SubmitCommand string `yaml:"submitCommand"`
	LookupCommand string `yaml:"lookupCommand"`
}

// EncryptionConfig names the environment variables holding base64 AES-256 keys.
type EncryptionConfig struct {
	KeyEnv          string   `yaml:"keyEnv"`
	FallbackKeyEnvs []string `yaml:"fallbackKeyEnvs"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{Port: 8080},
		Store: StoreConfig{
			Kind: StoreMemory,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Files: FilesConfig{
			MaxBytes:   domain.MaxUploadBytes,
			Categories: domain.DefaultUploadCategories(),
		},
		Wizard: WizardConfig{
			Debounce:      duplicate.DefaultDelay,
			LookupTimeout: duplicate.DefaultTimeout,
			SubmitTimeout: wizard.DefaultSubmitTimeout,
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	switch c.Store.Kind {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		return fmt.Errorf("unknown store kind %q", c.Store.Kind)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Server.Port)
	}
	if c.Files.MaxBytes < 0 {
		return fmt.Errorf("files.maxBytes must not be negative")
	}
	if c.Wizard.LookupRate < 0 || c.Wizard.LookupBurst < 0 {
		return fmt.Errorf("lookup rate and burst must not be negative")
	}
	if len(c.Rules) > 0 {
		if _, err := validation.Compile(c.Rules); err != nil {
			return err
		}
	}
	return nil
}

// RuleSet returns the configured rules, or the defaults when none are configured.
func (c Config) RuleSet() (validation.RuleSet, error) {
	if len(c.Rules) == 0 {
		return validation.DefaultRules(), nil
	}
	return validation.Compile(c.Rules)
}
