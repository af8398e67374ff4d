package testutil

import (
	"context"
	"testing"
	"time"
)

// ContextWithTimeout creates a context with a timeout, cancelled automatically
// when the test ends.
func ContextWithTimeout(t testing.TB, duration time.Duration) context.Context {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	t.Cleanup(cancel)

	return ctx
}

// ContextWithDeadline creates a context with a deadline, cancelled automatically
// when the test ends.
func ContextWithDeadline(t testing.TB, deadline time.Time) context.Context {
	t.Helper()

	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	t.Cleanup(cancel)

	return ctx
}

// ContextWithCancel creates a cancellable context, cancelled automatically
// when the test ends.
func ContextWithCancel(t testing.TB) (context.Context, context.CancelFunc) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	return ctx, cancel
}
