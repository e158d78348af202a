package scanner

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/config"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/observability"
	"github.com/SMSDAO/reimagined-jupiter-sub001/internal/platform/worker"
)

// State is the scanner lifecycle state
type State int32

const (
	// StateIdle means no scan loop is running
	StateIdle State = iota
	// StateScanning means the scan loop is active
	StateScanning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateScanning:
		return "scanning"
	default:
		return "unknown"
	}
}

// Callback receives accepted opportunities. Callbacks run synchronously
// in registration order after each batch resolves; a panic or error in
// one callback never affects the others or the scan loop.
type Callback func(ctx context.Context, opp *Opportunity) error

// Scanner runs the continuous scan loop over the token universe.
type Scanner struct {
	evaluator *Evaluator
	universe  []config.TokenInfo
	pool      *worker.Pool
	logger    *observability.Logger
	metrics   *observability.Metrics
	tracer    observability.Tracer

	settings   Settings
	settingsMu sync.RWMutex

	callbacks   []Callback
	callbacksMu sync.RWMutex

	state     atomic.Int32
	destroyed atomic.Bool

	cancel      context.CancelFunc
	runWG       sync.WaitGroup
	lifecycleMu sync.Mutex
}

// ScannerConfig holds scanner configuration
type ScannerConfig struct {
	Evaluator *Evaluator

	// Universe is the resolved token universe. Fewer than three tokens
	// is legal: every pass is then a no-op.
	Universe []config.TokenInfo

	Settings Settings

	// Workers caps concurrent cycle evaluations. Defaults to the
	// settings batch size.
	Workers int

	Logger  *observability.Logger
	Metrics *observability.Metrics
	Tracer  observability.Tracer
}

// NewScanner creates a new scanner in the idle state
func NewScanner(cfg ScannerConfig) (*Scanner, error) {
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = cfg.Settings.BatchSize
	}
	if cfg.Tracer == nil {
		cfg.Tracer = observability.NewNoopTracer()
	}

	s := &Scanner{
		evaluator: cfg.Evaluator,
		universe:  cfg.Universe,
		pool:      worker.NewPool(context.Background(), cfg.Workers, cfg.Workers),
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
		tracer:    cfg.Tracer,
		settings:  cfg.Settings,
	}
	s.state.Store(int32(StateIdle))

	return s, nil
}

// RegisterCallback appends a callback. Registration order is dispatch
// order.
func (s *Scanner) RegisterCallback(cb Callback) {
	if cb == nil {
		return
	}
	s.callbacksMu.Lock()
	defer s.callbacksMu.Unlock()
	s.callbacks = append(s.callbacks, cb)
}

// Settings returns the current settings snapshot.
func (s *Scanner) Settings() Settings {
	s.settingsMu.RLock()
	defer s.settingsMu.RUnlock()
	return s.settings
}

// UpdateSettings replaces the runtime settings. The update takes effect
// on the next scan pass; the polling interval is re-read before every
// tick. Invalid settings are rejected and the previous ones stay live.
func (s *Scanner) UpdateSettings(settings Settings) error {
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	s.settingsMu.Lock()
	s.settings = settings
	s.settingsMu.Unlock()

	if s.logger != nil {
		s.logger.Info("scanner settings updated",
			"start_amount", settings.StartAmount,
			"min_profit_threshold", settings.MinProfitThreshold,
			"max_slippage", settings.MaxSlippage,
			"min_confidence", settings.MinConfidence,
			"polling_interval", settings.PollingInterval.String(),
			"batch_size", settings.BatchSize,
		)
	}

	return nil
}

// Universe returns the scanned token universe.
func (s *Scanner) Universe() []config.TokenInfo {
	return s.universe
}

// State returns the current lifecycle state.
func (s *Scanner) State() State {
	return State(s.state.Load())
}

// Start transitions Idle → Scanning and launches the scan loop: an
// immediate first pass, then one pass per polling tick. Starting an
// already-scanning scanner is a no-op.
func (s *Scanner) Start() error {
	// Start and Stop share the lifecycle lock so a concurrent Stop
	// cannot observe the Scanning state before s.cancel is in place.
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if s.destroyed.Load() {
		return fmt.Errorf("scanner has been destroyed")
	}

	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateScanning)) {
		if s.logger != nil {
			s.logger.Warn("scanner already running, ignoring start")
		}
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	s.runWG.Add(1)
	go s.run(ctx)

	if s.logger != nil {
		s.logger.Info("scanner started",
			"universe_size", len(s.universe),
			"workers", s.pool.Workers(),
		)
	}

	return nil
}

// run is the scan loop. The polling interval is re-read before every
// tick so runtime updates apply without restarting.
func (s *Scanner) run(ctx context.Context) {
	defer s.runWG.Done()

	s.scanPass(ctx)

	for {
		interval := s.Settings().PollingInterval
		timer := time.NewTimer(interval)

		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.scanPass(ctx)
		}
	}
}

// scanPass evaluates the full cycle set once, in batches. Batches are
// jointly awaited; accepted opportunities dispatch to callbacks in
// deterministic cycle order after their batch resolves. Configuration
// problems turn the pass into a no-op.
func (s *Scanner) scanPass(ctx context.Context) {
	start := time.Now()

	passCtx, span := s.tracer.StartSpan(ctx, "scanner.scan_pass")
	defer span.End()

	settings := s.Settings()
	if err := settings.Validate(); err != nil {
		if s.logger != nil {
			s.logger.Warn("invalid scanner settings, skipping pass", "error", err)
		}
		span.SetStatus(observability.SpanStatusError, "invalid settings")
		return
	}

	cycles := GenerateCycles(s.universe)
	if len(cycles) == 0 {
		if s.logger != nil {
			s.logger.Debug("token universe yields no cycles, skipping pass",
				"universe_size", len(s.universe),
			)
		}
		return
	}

	accepted := 0
	failed := 0

	for batchStart := 0; batchStart < len(cycles); batchStart += settings.BatchSize {
		if passCtx.Err() != nil {
			return
		}

		batchEnd := min(batchStart+settings.BatchSize, len(cycles))
		batch := cycles[batchStart:batchEnd]

		jobs := make([]worker.Job, len(batch))
		for i, cycle := range batch {
			cycle := cycle
			jobs[i] = worker.Job{
				ID: strconv.Itoa(cycle.Index),
				Execute: func(context.Context) (interface{}, error) {
					return s.evaluator.Evaluate(passCtx, cycle, settings)
				},
			}
		}

		results := s.pool.SubmitAndWait(jobs)

		// Results arrive in completion order; re-establish cycle order
		// before dispatch so callbacks see a deterministic sequence.
		byID := make(map[string]worker.Result, len(results))
		for _, result := range results {
			byID[result.JobID] = result
		}

		for _, cycle := range batch {
			result, ok := byID[strconv.Itoa(cycle.Index)]
			if !ok {
				// Pool shut down mid-batch
				continue
			}
			if result.Err != nil {
				failed++
				if s.logger != nil {
					s.logger.Debug("cycle evaluation failed",
						"cycle", cycle.Path(),
						"error", result.Err,
					)
				}
				continue
			}

			opp, ok := result.Value.(*Opportunity)
			if !ok || opp == nil {
				continue
			}
			if opp.Profitable {
				accepted++
				s.dispatch(passCtx, opp)
			}
		}
	}

	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordScanPass(passCtx, duration, len(cycles), accepted)
	}
	if s.logger != nil {
		s.logger.Info("scan pass completed",
			"cycles", len(cycles),
			"accepted", accepted,
			"failed", failed,
			"duration_ms", duration.Milliseconds(),
		)
	}
}

// dispatch invokes callbacks sequentially in registration order. Each
// invocation is panic-isolated.
func (s *Scanner) dispatch(ctx context.Context, opp *Opportunity) {
	s.callbacksMu.RLock()
	callbacks := make([]Callback, len(s.callbacks))
	copy(callbacks, s.callbacks)
	s.callbacksMu.RUnlock()

	for i, cb := range callbacks {
		s.invokeCallback(ctx, i, cb, opp)
	}
}

func (s *Scanner) invokeCallback(ctx context.Context, index int, cb Callback, opp *Opportunity) {
	defer func() {
		if r := recover(); r != nil {
			if s.logger != nil {
				s.logger.Warn("opportunity callback panicked",
					"callback_index", index,
					"opportunity_id", opp.OpportunityID,
					"panic", fmt.Sprintf("%v", r),
				)
			}
			if s.metrics != nil {
				s.metrics.RecordCallbackError(ctx)
			}
		}
	}()

	if err := cb(ctx, opp); err != nil {
		if s.logger != nil {
			s.logger.LogError(ctx, "opportunity callback failed", err,
				"callback_index", index,
				"opportunity_id", opp.OpportunityID,
			)
		}
		if s.metrics != nil {
			s.metrics.RecordCallbackError(ctx)
		}
	}
}

// Stop transitions Scanning → Idle and waits for the in-flight pass to
// wind down. Stopping an idle scanner is a no-op.
func (s *Scanner) Stop() {
	s.lifecycleMu.Lock()
	defer s.lifecycleMu.Unlock()

	if !s.state.CompareAndSwap(int32(StateScanning), int32(StateIdle)) {
		return
	}

	if s.cancel != nil {
		s.cancel()
	}
	s.runWG.Wait()

	if s.logger != nil {
		s.logger.Info("scanner stopped")
	}
}

// Destroy stops the scanner, clears registered callbacks, and releases
// the worker pool. Safe to call repeatedly; the scanner cannot be
// started again afterwards.
func (s *Scanner) Destroy() {
	s.Stop()

	if !s.destroyed.CompareAndSwap(false, true) {
		return
	}

	s.callbacksMu.Lock()
	s.callbacks = nil
	s.callbacksMu.Unlock()

	s.pool.Close()

	if s.logger != nil {
		s.logger.Info("scanner destroyed")
	}
}
