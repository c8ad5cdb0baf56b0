package cartauth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/MrEthical07/cartauth/internal/rate"
	"github.com/MrEthical07/cartauth/internal/redact"
)

// checkLoginLimit fails open on Redis errors: the login itself still needs the
// credential store and reports the outage there.
func (e *Engine) checkLoginLimit(ctx context.Context, email string) error {
	if e.limiter == nil {
		return nil
	}

	err := e.limiter.CheckLogin(ctx, email, clientIPFromContext(ctx))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, rate.ErrRateLimited):
		e.metricInc(MetricLoginRateLimited)
		e.logger.WarnContext(ctx, "login rate limited", slog.String("email", redact.Email(email)))
		e.emitAudit(ctx, auditEventLoginRateLimited, false, "", ErrLoginRateLimited, nil)
		return ErrLoginRateLimited
	default:
		e.logger.WarnContext(ctx, "login limiter unavailable", slog.Any("error", err))
		return nil
	}
}

func (e *Engine) recordLoginFailure(ctx context.Context, email string) {
	if e.limiter == nil {
		return
	}
	if err := e.limiter.RecordFailure(ctx, email, clientIPFromContext(ctx)); err != nil {
		e.logger.WarnContext(ctx, "login limiter record failed", slog.Any("error", err))
	}
}

func (e *Engine) resetLoginLimit(ctx context.Context, email string) {
	if e.limiter == nil {
		return
	}
	if err := e.limiter.Reset(ctx, email); err != nil {
		e.logger.WarnContext(ctx, "login limiter reset failed", slog.Any("error", err))
	}
}
