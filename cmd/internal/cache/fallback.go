package cache

import (
	"context"
	"log/slog"
	"time"
)

// FallbackBackend composes a primary (remote) backend with a local fallback.
// When the primary errors, reads and writes degrade to the fallback instead
// of failing the request; the primary is retried on every call, so a
// recovered Redis is picked up without restarts.
type FallbackBackend struct {
	primary  Backend
	fallback Backend
	logger   *slog.Logger
}

// NewFallbackBackend wires primary and fallback. logger may be nil.
func NewFallbackBackend(primary, fallback Backend, logger *slog.Logger) *FallbackBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackBackend{primary: primary, fallback: fallback, logger: logger}
}

// Get reads from the primary, degrading to the fallback on error.
func (f *FallbackBackend) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok, err := f.primary.Get(ctx, key)
	if err == nil {
		return value, ok, nil
	}
	f.logger.Warn("primary cache read failed, using fallback", "error", err)
	return f.fallback.Get(ctx, key)
}

// Set writes to the primary and mirrors into the fallback so a later primary
// outage still finds warm entries locally.
func (f *FallbackBackend) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := f.fallback.Set(ctx, key, value, ttl); err != nil {
		return err
	}
	if err := f.primary.Set(ctx, key, value, ttl); err != nil {
		f.logger.Warn("primary cache write failed, entry kept in fallback only", "error", err)
	}
	return nil
}

// Delete removes from both backends.
func (f *FallbackBackend) Delete(ctx context.Context, key string) error {
	if err := f.fallback.Delete(ctx, key); err != nil {
		return err
	}
	if err := f.primary.Delete(ctx, key); err != nil {
		f.logger.Warn("primary cache delete failed", "error", err)
	}
	return nil
}

// Close closes both backends, returning the first error.
func (f *FallbackBackend) Close() error {
	err := f.primary.Close()
	if ferr := f.fallback.Close(); err == nil {
		err = ferr
	}
	return err
}
