package enrich

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/shanehull/estatecrawler/internal/model"
)

type Status int

const (
	Unresolved Status = iota
	Resolved
)

// Reason explains why a lookup ended unresolved.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonNoMatch   Reason = "no_match"
	ReasonExhausted Reason = "retries_exhausted"
	ReasonRejected  Reason = "rejected"
	ReasonCancelled Reason = "cancelled"
	ReasonNoQuery   Reason = "no_query"
)

// Result is the terminal outcome of resolving one query. Unresolved is a
// normal outcome, not an error.
type Result struct {
	Status      Status
	Coordinates model.Coordinates
	Reason      Reason
	Attempts    int
}

func (r Result) Resolved() bool { return r.Status == Resolved }

type ResolverOptions struct {
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration
	// MinInterval is the minimum spacing between lookups against the service.
	MinInterval time.Duration
}

// Resolver geocodes queries one at a time with bounded retries.
type Resolver struct {
	logger  *slog.Logger
	client  GeocodeClient
	opts    ResolverOptions
	limiter *rate.Limiter
	mu      sync.Mutex

	// sleep waits between attempts. Replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func NewResolver(logger *slog.Logger, client GeocodeClient, opts ResolverOptions) *Resolver {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	limit := rate.Inf
	if opts.MinInterval > 0 {
		limit = rate.Every(opts.MinInterval)
	}
	return &Resolver{
		logger:  logger,
		client:  client,
		opts:    opts,
		limiter: rate.NewLimiter(limit, 1),
		sleep:   sleepCtx,
	}
}

// Resolve looks up query, retrying transient failures up to MaxAttempts
// times in total. It never returns an error: failures end as Unresolved.
func (r *Resolver) Resolve(ctx context.Context, query string) Result {
	// One outstanding lookup at a time.
	r.mu.Lock()
	defer r.mu.Unlock()

	res := Result{Status: Unresolved}
	for res.Attempts < r.opts.MaxAttempts {
		if res.Attempts > 0 {
			if err := r.sleep(ctx, r.opts.RetryDelay); err != nil {
				res.Reason = ReasonCancelled
				return res
			}
		}
		if err := r.limiter.Wait(ctx); err != nil {
			res.Reason = ReasonCancelled
			return res
		}
		res.Attempts++

		coords, found, err := r.lookup(ctx, query)
		switch {
		case err == nil && found:
			res.Status = Resolved
			res.Coordinates = coords
			res.Reason = ReasonNone
			return res
		case err == nil:
			res.Reason = ReasonNoMatch
			r.logger.Info("No geocode match", "query", query)
			return res
		case ctx.Err() != nil:
			res.Reason = ReasonCancelled
			return res
		case !errors.Is(err, ErrTransient):
			res.Reason = ReasonRejected
			r.logger.Error("Geocode lookup rejected", "query", query, "err", err)
			return res
		default:
			res.Reason = ReasonExhausted
			r.logger.Warn("Geocode lookup failed", "query", query, "attempt", res.Attempts, "max_attempts", r.opts.MaxAttempts, "err", err)
		}
	}

	r.logger.Warn("Geocode retries exhausted", "query", query, "attempts", res.Attempts)
	return res
}

func (r *Resolver) lookup(ctx context.Context, query string) (model.Coordinates, bool, error) {
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}
	coords, found, err := r.client.Lookup(ctx, query)
	if err != nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, ErrTransient) {
		err = errors.Join(ErrTransient, err)
	}
	return coords, found, err
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
