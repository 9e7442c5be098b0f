package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/dealreg"
	"github.com/aretw0/dealreg/internal/adapters/file"
	"github.com/aretw0/dealreg/internal/config"
	httpAdapter "github.com/aretw0/dealreg/pkg/adapters/http"
	"github.com/aretw0/dealreg/pkg/adapters/memory"
	"github.com/aretw0/dealreg/pkg/adapters/process"
	"github.com/aretw0/dealreg/pkg/adapters/redis"
	"github.com/aretw0/dealreg/pkg/duplicate"
	"github.com/aretw0/dealreg/pkg/observability"
	"github.com/aretw0/dealreg/pkg/persistence/middleware"
	"github.com/aretw0/dealreg/pkg/ports"
	"github.com/aretw0/dealreg/pkg/wizard"
)

// Runtime is an engine together with the resources it owns.
type Runtime struct {
	Engine   *dealreg.Engine
	Streams  *httpAdapter.StreamManager
	Registry *prometheus.Registry
	Lookup   ports.DuplicateLookup

	closers []func() error
}

// Close saves live sessions and releases the store.
func (r *Runtime) Close(ctx context.Context) error {
	errs := []error{r.Engine.Shutdown(ctx)}
	for _, c := range r.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// Storage is the configured draft store with its optional locker.
type Storage struct {
	Store  ports.DraftStore
	Locker ports.DistributedLocker
	Close  func() error
}

// OpenStorage builds the draft store selected by cfg, encrypted when a key is configured.
func OpenStorage(cfg config.Config) (*Storage, error) {
	st := &Storage{Close: func() error { return nil }}

	switch cfg.Store.Kind {
	case config.StoreMemory:
		var opts []memory.StoreOption
		if cfg.Store.TTL > 0 {
			opts = append(opts, memory.WithTTL(cfg.Store.TTL))
		}
		st.Store = memory.NewStore(opts...)
	case config.StoreFile:
		st.Store = file.New(cfg.Store.Dir)
	case config.StoreRedis:
		var opts []redis.Option
		if cfg.Store.TTL > 0 {
			opts = append(opts, redis.WithTTL(cfg.Store.TTL))
		}
		prefix := redis.DefaultPrefix
		if cfg.Store.Redis.Prefix != "" {
			prefix = cfg.Store.Redis.Prefix
			opts = append(opts, redis.WithPrefix(prefix))
		}
		rs := redis.New(cfg.Store.Redis.Addr, cfg.Store.Redis.Password, cfg.Store.Redis.DB, opts...)
		st.Store = rs
		st.Close = rs.Close
		if cfg.Store.Redis.Lock {
			st.Locker = redis.NewLocker(rs.Client(), prefix)
		}
	default:
		return nil, fmt.Errorf("unknown store kind %q", cfg.Store.Kind)
	}

	if cfg.Encryption.KeyEnv == "" {
		return st, nil
	}
	mw, err := encryption(cfg.Encryption)
	if err != nil {
		_ = st.Close()
		return nil, err
	}
	st.Store = middleware.Chain(st.Store, mw)
	return st, nil
}

func encryption(cfg config.EncryptionConfig) (middleware.Middleware, error) {
	active, err := keyFromEnv(cfg.KeyEnv)
	if err != nil {
		return nil, err
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for _, name := range cfg.FallbackKeyEnvs {
		k, err := keyFromEnv(name)
		if err != nil {
			return nil, err
		}
		enc.FallbackKeys = append(enc.FallbackKeys, k)
	}
	return middleware.NewEncryptionMiddleware(enc)
}

func keyFromEnv(name string) ([]byte, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return nil, fmt.Errorf("encryption key variable %s is not set", name)
	}
	key, err := middleware.KeyFromBase64(raw)
	if err != nil {
		return nil, fmt.Errorf("encryption key %s: %w", name, err)
	}
	return key, nil
}

// integrations resolves the lookup and submitter. Unset commands fall back to an
// in-memory deal index seeded with the demo deal.
func integrations(cfg config.IntegrationsConfig) (ports.DuplicateLookup, ports.Submitter, error) {
	index := memory.NewDealIndex(memory.WithSeed(memory.DemoSeed()))
	var lookup ports.DuplicateLookup = index
	var submitter ports.Submitter = index

	if cfg.LookupCommand == "" && cfg.SubmitCommand == "" {
		return lookup, submitter, nil
	}

	var runnerOpts []process.RunnerOption
	if cfg.CommandsFile != "" {
		commands, err := process.LoadCommands(cfg.CommandsFile)
		if err != nil {
			return nil, nil, err
		}
		runnerOpts = append(runnerOpts,
			process.WithRegistry(commands),
			process.WithBaseDir(filepath.Dir(cfg.CommandsFile)),
		)
	}
	runner := process.NewRunner(runnerOpts...)

	if cfg.LookupCommand != "" {
		lookup = runner.Lookup(cfg.LookupCommand)
	}
	if cfg.SubmitCommand != "" {
		submitter = runner.Submitter(cfg.SubmitCommand)
	}
	return lookup, submitter, nil
}

// BuildEngine wires an engine from cfg.
func BuildEngine(cfg config.Config, logger *slog.Logger) (*Runtime, error) {
	rules, err := cfg.RuleSet()
	if err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	storage, err := OpenStorage(cfg)
	if err != nil {
		return nil, err
	}

	lookup, submitter, err := integrations(cfg.Integrations)
	if err != nil {
		_ = storage.Close()
		return nil, err
	}
	if cfg.Wizard.LookupRate > 0 {
		burst := max(cfg.Wizard.LookupBurst, 1)
		lookup = duplicate.RateLimited(lookup, cfg.Wizard.LookupRate, burst)
	}

	var files ports.FileStorage
	if cfg.Files.Dir != "" {
		files = file.NewBlobStore(cfg.Files.Dir, file.WithMaxBytes(cfg.Files.MaxBytes))
	} else {
		files = memory.NewBlobStore(cfg.Files.MaxBytes)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	hooks := observability.Combine(
		observability.NewMetrics(reg).Hooks(),
		observability.LoggingHooks(logger),
	)

	wizardOpts := []wizard.Option{
		wizard.WithRules(rules),
		wizard.WithDebounce(cfg.Wizard.Debounce),
	}
	if cfg.Wizard.LookupTimeout > 0 {
		wizardOpts = append(wizardOpts, wizard.WithLookupTimeout(cfg.Wizard.LookupTimeout))
	}
	if cfg.Wizard.SubmitTimeout > 0 {
		wizardOpts = append(wizardOpts, wizard.WithSubmitTimeout(cfg.Wizard.SubmitTimeout))
	}
	if len(cfg.Files.Categories) > 0 {
		wizardOpts = append(wizardOpts, wizard.WithUploadCategories(cfg.Files.Categories))
	}
	if cfg.Files.MaxBytes > 0 {
		wizardOpts = append(wizardOpts, wizard.WithMaxUploadBytes(cfg.Files.MaxBytes))
	}
	if cfg.Wizard.TermsRequired {
		wizardOpts = append(wizardOpts, wizard.WithTermsRequired())
	}

	streams := httpAdapter.NewStreamManager(logger)
	engineOpts := []dealreg.Option{
		dealreg.WithStore(storage.Store),
		dealreg.WithLookup(lookup),
		dealreg.WithSubmitter(submitter),
		dealreg.WithFileStorage(files),
		dealreg.WithLifecycleHooks(hooks),
		dealreg.WithViewListener(streams.Publish),
		dealreg.WithWizardOptions(wizardOpts...),
		dealreg.WithLogger(logger),
	}
	if storage.Locker != nil {
		engineOpts = append(engineOpts, dealreg.WithLocker(storage.Locker))
	}

	eng, err := dealreg.New(engineOpts...)
	if err != nil {
		_ = storage.Close()
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	return &Runtime{
		Engine:   eng,
		Streams:  streams,
		Registry: reg,
		Lookup:   lookup,
		closers:  []func() error{storage.Close},
	}, nil
}
