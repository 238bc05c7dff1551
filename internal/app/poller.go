package app

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/five82/swapp/internal/market"
	"github.com/five82/swapp/internal/session"
)

const (
	defaultPollInterval = 30 * time.Second
	maxBackoff          = 5 * time.Minute
)

// accountRefresher is the part of session.Service the poller drives.
type accountRefresher interface {
	RefreshAccount(ctx context.Context) (*market.Account, *market.UserProfile, error)
}

// StartPoller launches a background goroutine that refreshes the logged-in
// account, backing off while refreshes fail. It returns immediately.
func StartPoller(ctx context.Context, r accountRefresher, interval time.Duration, logger *slog.Logger) {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	go func() {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		failures := 0
		for {
			select {
			case <-ctx.Done():
				return
			case <-timer.C:
			}
			failures = poll(ctx, r, failures, logger)
			timer.Reset(calculateBackoff(failures, interval))
		}
	}()
}

// poll runs one refresh and returns the new consecutive failure count.
// Being logged out is not a failure.
func poll(ctx context.Context, r accountRefresher, failures int, logger *slog.Logger) int {
	_, _, err := r.RefreshAccount(ctx)
	switch {
	case err == nil, errors.Is(err, session.ErrNotLoggedIn):
		return 0
	case ctx.Err() != nil:
		return failures
	}
	failures++
	logger.Warn("account refresh failed", "failures", failures, "error", err)
	return failures
}

// calculateBackoff doubles base for every consecutive failure, capped at
// maxBackoff.
func calculateBackoff(failures int, base time.Duration) time.Duration {
	d := base
	for i := 0; i < failures && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}
