package runner

import (
	"io"
	"log/slog"
)

// Option defines a functional option for configuring the Runner.
type Option func(*Runner)

// WithIO sets the streams commands are read from and responses written to.
func WithIO(r io.Reader, w io.Writer) Option {
	return func(rn *Runner) {
		rn.handler = NewJSONHandler(r, w)
	}
}

// WithLogger configures the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(rn *Runner) {
		if logger != nil {
			rn.logger = logger
		}
	}
}

// WithSaveOnExit makes the runner save an unsubmitted draft when input ends.
func WithSaveOnExit() Option {
	return func(rn *Runner) {
		rn.saveOnExit = true
	}
}
