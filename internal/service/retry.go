package service

import (
	"context"
	"time"

	"storecore/internal/metrics"
	"storecore/internal/repository"

	"go.uber.org/zap"
)

// retryOnContention runs fn up to attempts times while it fails with a lock
// or serialization error, sleeping backoff*attempt between tries. The last
// contention error is returned unwrapped.
func retryOnContention(ctx context.Context, logger *zap.Logger, op string, attempts int, backoff time.Duration, fn func() error) error {
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		err := fn()
		if err == nil || !repository.IsContention(err) {
			return err
		}
		if attempt >= attempts {
			metrics.SequenceContention.WithLabelValues("exhausted").Inc()
			return err
		}

		metrics.SequenceContention.WithLabelValues("retried").Inc()
		logger.Warn("contended, retrying",
			zap.String("op", op),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff * time.Duration(attempt)):
		}
	}
}
