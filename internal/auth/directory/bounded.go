package directory

import (
	"context"
	"time"

	"github.com/aussiebroadwan/doorman/internal/auth/metrics"
	"github.com/aussiebroadwan/doorman/pkg/slogx"
)

// DefaultTimeout bounds a directory call when none is configured.
const DefaultTimeout = 5 * time.Second

// Bounded wraps a Directory with the empty password guard and a timeout.
// When the timeout or the caller's context expires first, the zero Result is
// returned and the underlying call is left to finish on its own.
type Bounded struct {
	dir     Directory
	timeout time.Duration
	metrics *metrics.Metrics
}

func NewBounded(dir Directory, timeout time.Duration, m *metrics.Metrics) *Bounded {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Bounded{dir: dir, timeout: timeout, metrics: m}
}

func (b *Bounded) Authenticate(ctx context.Context, username, password string) Result {
	if password == "" {
		b.metrics.RecordDirectory("skipped")
		return Result{}
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	done := make(chan Result, 1)
	go func() {
		done <- b.dir.Authenticate(ctx, username, password)
	}()

	select {
	case res := <-done:
		b.metrics.RecordDirectory(resultLabel(res))
		return res
	case <-ctx.Done():
		select {
		case res := <-done:
			b.metrics.RecordDirectory(resultLabel(res))
			return res
		default:
		}
		slogx.FromContext(ctx).Warn("directory_timeout",
			"username", username,
			"timeout", b.timeout,
			"err", ctx.Err(),
		)
		b.metrics.RecordDirectory("timeout")
		return Result{}
	}
}

func resultLabel(r Result) string {
	switch {
	case r.OK:
		return "ok"
	case r.Exists:
		return "invalid_credentials"
	default:
		return "rejected"
	}
}
