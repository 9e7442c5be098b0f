package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/dealreg/internal/logging"
	"github.com/aretw0/dealreg/pkg/domain"
	"github.com/aretw0/dealreg/pkg/sanitize"
	"github.com/aretw0/dealreg/pkg/wizard"
)

var (
	// ErrInvalidCommand is reported for a line that is not a Command object.
	ErrInvalidCommand = errors.New("invalid command")
	// ErrUnknownOp is reported for a Command whose op is not supported.
	ErrUnknownOp = errors.New("unknown op")
)

// Runner executes Commands against one wizard session until input ends.
type Runner struct {
	controller *wizard.Controller
	handler    *JSONHandler
	logger     *slog.Logger
	saveOnExit bool
}

// New creates a Runner over c reading from stdin and writing to stdout by default.
func New(c *wizard.Controller, opts ...Option) *Runner {
	r := &Runner{
		controller: c,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.handler == nil {
		r.handler = NewJSONHandler(nil, nil)
	}
	return r
}

type inputLine struct {
	cmd Command
	err error
}

// Run processes commands until EOF, a quit command or ctx cancellation.
// Command failures are written as responses; only I/O failures are returned.
func (r *Runner) Run(ctx context.Context) error {
	lines := make(chan inputLine)
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			cmd, err := r.handler.Input(ctx)
			select {
			case lines <- inputLine{cmd: cmd, err: err}:
			case <-done:
				return
			}
			if err != nil && !errors.Is(err, ErrInvalidCommand) {
				return
			}
		}
	}()

	for {
		var in inputLine
		select {
		case <-ctx.Done():
			r.logger.Debug("Runner interrupted", "session_id", r.controller.SessionID())
			return r.exit(context.WithoutCancel(ctx))
		case in = <-lines:
		}

		if in.err != nil {
			if errors.Is(in.err, ErrInvalidCommand) {
				if err := r.handler.Output(ctx, Response{Error: in.err.Error()}); err != nil {
					return err
				}
				continue
			}
			if errors.Is(in.err, io.EOF) {
				return r.exit(ctx)
			}
			return fmt.Errorf("failed to read command: %w", in.err)
		}

		if in.cmd.Op == "quit" || in.cmd.Op == "exit" {
			if err := r.handler.Output(ctx, Response{Op: in.cmd.Op}); err != nil {
				return err
			}
			return r.exit(ctx)
		}

		resp := r.Execute(ctx, in.cmd)
		if err := r.handler.Output(ctx, resp); err != nil {
			return err
		}
	}
}

// Execute applies one command and builds its response.
func (r *Runner) Execute(ctx context.Context, cmd Command) Response {
	resp := Response{Op: cmd.Op}
	c := r.controller

	var err error
	switch cmd.Op {
	case "view":
	case "update":
		var clean map[string]any
		clean, err = sanitize.Patch(cmd.Patch)
		if err == nil {
			var res wizard.Result
			res, err = c.UpdateDraft(ctx, domain.Patch(clean))
			if err == nil {
				resp.Result = &res
			}
		}
	case "advance":
		err = c.Advance(ctx)
	case "retreat":
		err = c.Retreat(ctx)
	case "remove-file":
		err = c.RemoveFile(ctx, cmd.FileID)
	case "review":
		summary := c.Review()
		resp.Review = &summary
		return resp
	case "save":
		err = c.AutoSave(ctx)
	case "submit":
		resp.ConfirmationID, err = c.Submit(ctx)
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownOp, cmd.Op)
	}

	if err != nil {
		r.logger.Debug("Command failed", "session_id", c.SessionID(), "op", cmd.Op, "err", err)
		resp.Error = err.Error()
	}
	view := c.View()
	resp.View = &view
	return resp
}

func (r *Runner) exit(ctx context.Context) error {
	if !r.saveOnExit || r.controller.View().Submitted {
		return nil
	}
	if err := r.controller.AutoSave(ctx); err != nil {
		return fmt.Errorf("failed to save session on exit: %w", err)
	}
	return nil
}
