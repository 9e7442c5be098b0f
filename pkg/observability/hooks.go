package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/dealreg/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that log every event.
// Draft contents are never logged.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStepEnter: func(ctx context.Context, e *domain.StepEvent) {
			logger.InfoContext(ctx, "step_enter", "session_id", e.SessionID, "step_id", e.StepID, "index", e.Index)
		},
		OnStepLeave: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "step_leave", "session_id", e.SessionID, "step_id", e.StepID)
		},
		OnDuplicateCheck: func(ctx context.Context, e *domain.DuplicateEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "duplicate_check", "session_id", e.SessionID, "duration", e.Duration, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "duplicate_check", "session_id", e.SessionID, "candidates", e.Candidates, "duration", e.Duration)
		},
		OnSubmit: func(ctx context.Context, e *domain.SubmitEvent) {
			switch {
			case e.Invalid:
				logger.InfoContext(ctx, "submit_rejected", "session_id", e.SessionID)
			case e.Err != nil:
				logger.ErrorContext(ctx, "submit_failed", "session_id", e.SessionID, "duration", e.Duration, "err", e.Err)
			default:
				logger.InfoContext(ctx, "submit", "session_id", e.SessionID, "confirmation_id", e.ConfirmationID, "duration", e.Duration)
			}
		},
		OnAutoSave: func(ctx context.Context, e *domain.SaveEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "auto_save_failed", "session_id", e.SessionID, "err", e.Err)
				return
			}
			logger.DebugContext(ctx, "auto_save", "session_id", e.SessionID)
		},
	}
}

// Combine returns hooks that call each of the given hooks in order.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range hooks {
		out.OnStepEnter = chain(out.OnStepEnter, h.OnStepEnter)
		out.OnStepLeave = chain(out.OnStepLeave, h.OnStepLeave)
		out.OnDuplicateCheck = chain(out.OnDuplicateCheck, h.OnDuplicateCheck)
		out.OnSubmit = chain(out.OnSubmit, h.OnSubmit)
		out.OnAutoSave = chain(out.OnAutoSave, h.OnAutoSave)
	}
	return out
}

func chain[E any](a, b func(context.Context, E)) func(context.Context, E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e E) {
		a(ctx, e)
		b(ctx, e)
	}
}
