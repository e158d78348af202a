package fees

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/observability"
)

// PriorityEstimator produces a point-in-time fee estimate.
type PriorityEstimator interface {
	Estimate(ctx context.Context) (uint64, error)
}

// Refresher keeps a live fee estimate warm in the background. Reads
// never block: callers get the last good estimate, or the configured
// fallback before the first successful refresh or after failures.
type Refresher struct {
	estimator PriorityEstimator
	fallback  uint64
	interval  time.Duration
	logger    *observability.Logger
	metrics   *observability.Metrics

	current  atomic.Uint64
	hasValue atomic.Bool

	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

// RefresherConfig holds fee refresher configuration
type RefresherConfig struct {
	Estimator PriorityEstimator

	// Fallback is the static estimate used until the first successful
	// refresh and whenever refreshes keep failing.
	Fallback uint64

	Interval time.Duration
	Logger   *observability.Logger
	Metrics  *observability.Metrics
}

// NewRefresher creates a fee refresher
func NewRefresher(cfg RefresherConfig) *Refresher {
	if cfg.Interval == 0 {
		cfg.Interval = 60 * time.Second
	}

	return &Refresher{
		estimator: cfg.Estimator,
		fallback:  cfg.Fallback,
		interval:  cfg.Interval,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
}

// Start launches the background refresh loop. The first refresh runs
// immediately so the scanner does not sit on the fallback for a full
// interval.
func (r *Refresher) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()

		r.refresh(ctx)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.refresh(ctx)
			}
		}
	}()
}

func (r *Refresher) refresh(ctx context.Context) {
	units, err := r.estimator.Estimate(ctx)
	if err != nil {
		// Keep serving the last good value; estimation failures must
		// never stall scanning.
		if r.logger != nil {
			r.logger.Warn("fee estimate refresh failed, keeping previous value",
				"error", err,
				"current_units", r.Units(),
			)
		}
		return
	}

	r.current.Store(units)
	r.hasValue.Store(true)

	if r.metrics != nil {
		r.metrics.RecordFeeEstimate(ctx, units)
	}
	if r.logger != nil {
		r.logger.Debug("fee estimate refreshed", "units", units)
	}
}

// Units returns the current fee estimate in base units
func (r *Refresher) Units() uint64 {
	if r.hasValue.Load() {
		return r.current.Load()
	}
	return r.fallback
}

// Stop shuts down the refresh loop. Safe to call more than once.
func (r *Refresher) Stop() {
	r.once.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		r.wg.Wait()
	})
}
