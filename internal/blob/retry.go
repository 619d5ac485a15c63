package blob

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// RetryStore retries failed uploads with exponential backoff.
type RetryStore struct {
	Store
	MaxRetries int
	Backoff    time.Duration
	// Timeout bounds each attempt.
	Timeout time.Duration
}

func WithRetry(s Store) *RetryStore {
	return &RetryStore{Store: s, MaxRetries: 4, Backoff: time.Second, Timeout: 50 * time.Second}
}

func (r *RetryStore) Put(ctx context.Context, folder, name, contentType string, data []byte) (Object, error) {
	backoff := r.Backoff
	var lastErr error

	for i := 0; i < r.MaxRetries; i++ {
		obj, err := func() (Object, error) {
			attemptCtx, cancel := context.WithTimeout(ctx, r.Timeout)
			defer cancel()
			return r.Store.Put(attemptCtx, folder, name, contentType, data)
		}()
		if err == nil {
			return obj, nil
		}

		lastErr = err
		if i == r.MaxRetries-1 {
			break
		}
		slog.Warn(
			"Upload failed, will retry.",
			"object", name,
			"attempt", i+1,
			"maxRetries", r.MaxRetries,
			"backoff", backoff.String(),
			"error", err,
		)

		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "object", name, "error", ctx.Err())
			return Object{}, ctx.Err()
		}
	}
	slog.Error("Upload failed after all retries.", "object", name, "error", lastErr)
	return Object{}, fmt.Errorf("upload for %s failed after all retries: %w", name, lastErr)
}
