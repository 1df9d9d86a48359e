// Package throttle limits how often lastUsedAt is written for a credential.
//
// The throttle is advisory: it never participates in the active check, and
// any Redis failure falls back to writing through to the primary store.
package throttle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	id "trustplane/pkg/domain"
	"trustplane/pkg/platform/circuit"
)

const keyPrefix = "credential:touch:"

// Redis grants at most one touch per credential per interval using SET NX EX.
type Redis struct {
	client        redis.Cmdable
	interval      time.Duration
	breaker       *circuit.Breaker
	probeInterval time.Duration
	logger        *slog.Logger
	now           func() time.Time

	mu        sync.Mutex
	lastProbe time.Time
}

type Option func(*Redis)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Redis) {
		r.logger = logger
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Redis) {
		r.breaker = b
	}
}

// WithProbeInterval sets how often an open breaker lets one call through.
func WithProbeInterval(d time.Duration) Option {
	return func(r *Redis) {
		if d > 0 {
			r.probeInterval = d
		}
	}
}

func NewRedis(client redis.Cmdable, interval time.Duration, opts ...Option) *Redis {
	r := &Redis{
		client:        client,
		interval:      interval,
		breaker:       circuit.New("credential-touch-throttle", circuit.WithFailureThreshold(3)),
		probeInterval: 10 * time.Second,
		logger:        slog.New(slog.DiscardHandler),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Allow reports whether the caller should write lastUsedAt now.
func (r *Redis) Allow(ctx context.Context, credID id.CredentialID) bool {
	if r.breaker.IsOpen() && !r.shouldProbe() {
		return true
	}

	ok, err := r.client.SetNX(ctx, keyPrefix+credID.String(), "1", r.interval).Result()
	if err != nil {
		if _, change := r.breaker.RecordFailure(); change.Opened {
			r.logger.WarnContext(ctx, "touch throttle unavailable, writing through",
				"breaker", r.breaker.Name(),
				"error", err,
			)
		}
		return true
	}
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.logger.InfoContext(ctx, "touch throttle recovered", "breaker", r.breaker.Name())
	}
	return ok
}

func (r *Redis) shouldProbe() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := r.now()
	if now.Sub(r.lastProbe) < r.probeInterval {
		return false
	}
	r.lastProbe = now
	return true
}
