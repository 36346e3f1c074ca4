// Package synchronizer keeps the dashboard view-state in step with the
// backend by polling it in two phases: bot status first, then the five
// secondary datasets concurrently.
package synchronizer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"botdash/internal/model"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const DefaultPeriod = 2 * time.Second

// ErrSuperseded is returned by PollOnce when a newer cycle started before
// this one could apply its results.
var ErrSuperseded = errors.New("poll cycle superseded")

// Fetcher is the subset of the backend client the synchronizer reads from.
type Fetcher interface {
	Status(ctx context.Context) (model.BotConfig, error)
	Summary(ctx context.Context) (model.AccountSummary, error)
	TradeHistory(ctx context.Context) ([]model.Trade, error)
	Holdings(ctx context.Context) ([]model.Holding, error)
	Performance(ctx context.Context) ([]model.AccountSnapshot, error)
	MarketChart(ctx context.Context, interval model.Interval) ([]model.MarketBar, error)
}

type Metrics interface {
	CycleDone(elapsed time.Duration)
	StatusFailed()
	BatchFailed()
	CycleSuperseded()
	TickSkipped()
	AccountUpdated(pnl, portfolio float64)
}

type noopMetrics struct{}

func (noopMetrics) CycleDone(time.Duration)         {}
func (noopMetrics) StatusFailed()                   {}
func (noopMetrics) BatchFailed()                    {}
func (noopMetrics) CycleSuperseded()                {}
func (noopMetrics) TickSkipped()                    {}
func (noopMetrics) AccountUpdated(float64, float64) {}

type Synchronizer struct {
	fetcher Fetcher
	state   *State
	period  time.Duration
	metrics Metrics
	seq     atomic.Uint64

	mu         sync.Mutex
	selected   model.Interval
	onInterval func(model.Interval)

	intervalSig chan struct{}
	refreshSig  chan struct{}
}

func New(fetcher Fetcher, interval model.Interval, period time.Duration) *Synchronizer {
	if period <= 0 {
		period = DefaultPeriod
	}
	if interval == "" {
		interval = model.DefaultInterval
	}
	return &Synchronizer{
		fetcher:     fetcher,
		state:       NewState(interval),
		period:      period,
		metrics:     noopMetrics{},
		selected:    interval,
		intervalSig: make(chan struct{}, 1),
		refreshSig:  make(chan struct{}, 1),
	}
}

func (s *Synchronizer) SetMetrics(m Metrics) {
	if m != nil {
		s.metrics = m
	}
}

// OnIntervalChange registers fn to be called after every accepted
// interval change. Set before Run.
func (s *Synchronizer) OnIntervalChange(fn func(model.Interval)) {
	s.onInterval = fn
}

func (s *Synchronizer) Snapshot() Snapshot {
	return s.state.Snapshot()
}

func (s *Synchronizer) Subscribe() (<-chan Snapshot, func()) {
	return s.state.Subscribe()
}

// Interval returns the currently selected chart interval.
func (s *Synchronizer) Interval() model.Interval {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetInterval selects a new chart interval. A running loop cancels its
// in-flight cycle, restarts the timer and polls immediately.
func (s *Synchronizer) SetInterval(iv model.Interval) error {
	if _, err := model.ParseInterval(string(iv)); err != nil {
		return err
	}

	s.mu.Lock()
	changed := s.selected != iv
	s.selected = iv
	s.mu.Unlock()

	if !changed {
		return nil
	}
	s.state.setInterval(iv)
	if s.onInterval != nil {
		s.onInterval(iv)
	}
	signal(s.intervalSig)
	return nil
}

// Refresh asks a running loop for an immediate cycle.
func (s *Synchronizer) Refresh() {
	signal(s.refreshSig)
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func drain(ch chan struct{}) {
	select {
	case <-ch:
	default:
	}
}

// Run polls until ctx is cancelled. It returns once every cycle it started
// has finished.
func (s *Synchronizer) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.period)
	defer ticker.Stop()

	var (
		wg       sync.WaitGroup
		done     = make(chan uint64)
		inflight uint64 // 0 when idle
		cancel   context.CancelFunc
	)

	start := func() {
		// Mark the new cycle current before cancelling the old one so a
		// late result from the old cycle can no longer apply.
		seq := s.seq.Add(1)
		s.state.begin(seq)
		if cancel != nil {
			cancel()
			s.metrics.CycleSuperseded()
		}
		iv := s.Interval()

		var cctx context.Context
		cctx, cancel = context.WithCancel(ctx)
		inflight = seq

		wg.Add(1)
		go func(cctx context.Context, seq uint64) {
			defer wg.Done()
			_ = s.cycle(cctx, seq, iv)
			select {
			case done <- seq:
			case <-ctx.Done():
			}
		}(cctx, seq)
	}

	log.Info().
		Dur("period", s.period).
		Str("interval", string(s.Interval())).
		Msg("Synchronizer started")

	// The first cycle already covers anything requested before Run.
	drain(s.intervalSig)
	drain(s.refreshSig)
	start()
	for {
		select {
		case <-ctx.Done():
			if cancel != nil {
				cancel()
			}
			wg.Wait()
			log.Info().Msg("Synchronizer stopped")
			return nil

		case <-ticker.C:
			if inflight != 0 {
				s.metrics.TickSkipped()
				log.Debug().Uint64("seq", inflight).Msg("Previous cycle still running, skipping tick")
				continue
			}
			start()

		case <-s.intervalSig:
			ticker.Reset(s.period)
			log.Info().Str("interval", string(s.Interval())).Msg("Chart interval changed, restarting poll")
			start()

		case <-s.refreshSig:
			start()

		case seq := <-done:
			if seq == inflight {
				inflight = 0
				cancel()
				cancel = nil
			}
		}
	}
}

// PollOnce runs a single cycle synchronously at the selected interval.
func (s *Synchronizer) PollOnce(ctx context.Context) error {
	seq := s.seq.Add(1)
	s.state.begin(seq)
	return s.cycle(ctx, seq, s.Interval())
}

func (s *Synchronizer) cycle(ctx context.Context, seq uint64, iv model.Interval) error {
	started := time.Now()
	logger := log.With().Uint64("seq", seq).Str("interval", string(iv)).Logger()

	cfg, err := s.fetcher.Status(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Error().Err(err).Msg("Failed to fetch bot status, skipping secondary fetch")
		s.metrics.StatusFailed()
		s.state.fail(seq, err)
		s.metrics.CycleDone(time.Since(started))
		return fmt.Errorf("fetch status: %w", err)
	}
	if !s.state.applyStatus(seq, cfg) {
		return s.superseded(logger)
	}

	b, err := s.fetchBatch(ctx, iv)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		logger.Warn().Err(err).Msg("Secondary fetch failed, keeping previous data")
		s.metrics.BatchFailed()
		s.state.fail(seq, err)
		s.metrics.CycleDone(time.Since(started))
		return fmt.Errorf("fetch dashboard data: %w", err)
	}
	if !s.state.applyBatch(seq, iv, b, time.Now()) {
		return s.superseded(logger)
	}

	pnl, _ := b.summary.TotalProfitLoss.Float64()
	value, _ := b.summary.CurrentPortfolioValue.Float64()
	s.metrics.AccountUpdated(pnl, value)
	s.metrics.CycleDone(time.Since(started))

	logger.Debug().
		Str("status", string(cfg.Status)).
		Int("trades", len(b.trades)).
		Int("bars", len(b.market)).
		Dur("elapsed", time.Since(started)).
		Msg("Poll cycle applied")
	return nil
}

func (s *Synchronizer) superseded(logger zerolog.Logger) error {
	logger.Debug().Msg("Discarding results of superseded cycle")
	return ErrSuperseded
}

// fetchBatch fetches the five secondary datasets concurrently. The first
// failure cancels the rest and nothing is returned.
func (s *Synchronizer) fetchBatch(ctx context.Context, iv model.Interval) (batch, error) {
	var b batch
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		v, err := s.fetcher.Summary(gctx)
		if err != nil {
			return fmt.Errorf("account summary: %w", err)
		}
		b.summary = v
		return nil
	})
	g.Go(func() error {
		v, err := s.fetcher.TradeHistory(gctx)
		if err != nil {
			return fmt.Errorf("trade history: %w", err)
		}
		b.trades = v
		return nil
	})
	g.Go(func() error {
		v, err := s.fetcher.Holdings(gctx)
		if err != nil {
			return fmt.Errorf("holdings: %w", err)
		}
		b.holdings = v
		return nil
	})
	g.Go(func() error {
		v, err := s.fetcher.Performance(gctx)
		if err != nil {
			return fmt.Errorf("performance: %w", err)
		}
		b.performance = v
		return nil
	})
	g.Go(func() error {
		v, err := s.fetcher.MarketChart(gctx, iv)
		if err != nil {
			return fmt.Errorf("market chart: %w", err)
		}
		b.market = v
		return nil
	})

	if err := g.Wait(); err != nil {
		return batch{}, err
	}
	return b, nil
}
