package process

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/ports"
	"github.com/aretw0/dealreg/pkg/sanitize"
)

// Environment variables set for lookup commands.
const (
	EnvCompanyName = "DEALREG_ARG_COMPANY_NAME"
	EnvDomain      = "DEALREG_ARG_DOMAIN"
)

// ErrNotRegistered is returned when a command name is not in the allow-list.
var ErrNotRegistered = errors.New("process command not registered")

// Runner executes allow-listed local commands on behalf of the wizard.
// Values are passed through stdin and environment variables, never as flags.
type Runner struct {
	registry map[string]RegisteredProcess
	baseDir  string
}

// RegisteredProcess defines an allowed command execution.
type RegisteredProcess struct {
	Command string
	Args    []string
	Env     map[string]string
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithRegistry populates the allow-list from a loaded config.
func WithRegistry(commands map[string]ProcessConfig) RunnerOption {
	return func(r *Runner) {
		for name, c := range commands {
			r.registry[name] = RegisteredProcess{Command: c.Command, Args: c.Args, Env: c.Environment}
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// NewRunner creates a new process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]RegisteredProcess),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = RegisteredProcess{
		Command: command,
		Args:    args,
	}
}

// Run executes a registered command and returns its trimmed stdout.
func (r *Runner) Run(ctx context.Context, name string, stdin []byte, env map[string]string) (string, error) {
	proc, ok := r.registry[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotRegistered, name)
	}

	cmd := exec.CommandContext(ctx, proc.Command, proc.Args...)
	cmd.Dir = r.baseDir
	cmd.Env = cmd.Environ()
	for k, v := range proc.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("command %s: %w", name, ctx.Err())
		}
		return "", fmt.Errorf("command %s failed: %w. Stderr: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// Submitter returns a ports.Submitter that pipes the payload as JSON into the named command.
// The command prints the confirmation ID, either bare or as {"id": "..."}.
func (r *Runner) Submitter(name string) ports.Submitter {
	return ports.SubmitFunc(func(ctx context.Context, payload sanitize.Payload) (string, error) {
		body, err := json.Marshal(payload)
		if err != nil {
			return "", fmt.Errorf("failed to marshal payload: %w", err)
		}
		out, err := r.Run(ctx, name, body, nil)
		if err != nil {
			return "", err
		}
		return confirmationID(out), nil
	})
}

// Lookup returns a ports.DuplicateLookup backed by the named command.
// The command receives the query in DEALREG_ARG_* variables and prints a JSON array of candidates.
func (r *Runner) Lookup(name string) ports.DuplicateLookup {
	return ports.LookupFunc(func(ctx context.Context, companyName, domainName string) ([]domain.Candidate, error) {
		out, err := r.Run(ctx, name, nil, map[string]string{
			EnvCompanyName: companyName,
			EnvDomain:      domainName,
		})
		if err != nil {
			return nil, err
		}
		candidates := []domain.Candidate{}
		if out == "" {
			return candidates, nil
		}
		if err := json.Unmarshal([]byte(out), &candidates); err != nil {
			return nil, fmt.Errorf("command %s returned invalid candidates: %w", name, err)
		}
		return candidates, nil
	})
}

func confirmationID(out string) string {
	if strings.HasPrefix(out, "{") && strings.HasSuffix(out, "}") {
		var res struct {
			ID             string `json:"id"`
			ConfirmationID string `json:"confirmationId"`
		}
		if err := json.Unmarshal([]byte(out), &res); err == nil {
			if res.ConfirmationID != "" {
				return res.ConfirmationID
			}
			return res.ID
		}
	}
	return out
}
