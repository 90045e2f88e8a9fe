package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/riskibarqy/diamond-plays/internal/platform/logging"
	"github.com/robfig/cron/v3"
)

// PollingScheduler runs a refresh job on a fixed interval while started. Runs
// never overlap; a tick that fires during a slow run is skipped.
type PollingScheduler struct {
	interval time.Duration
	job      func(ctx context.Context)
	logger   *logging.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	ctx     context.Context
	cancel  context.CancelFunc
	stopped []context.Context
	closed  bool
	alive   atomic.Bool
}

// NewPollingScheduler builds a stopped scheduler. Intervals below one second are
// rounded up to one second.
func NewPollingScheduler(interval time.Duration, job func(ctx context.Context), logger *logging.Logger) *PollingScheduler {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PollingScheduler{
		interval: interval,
		job:      job,
		logger:   logger.Named("poller"),
	}
}

// Start begins ticking. It reports false when already running or closed.
func (p *PollingScheduler) Start() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.cron != nil {
		return false
	}

	cronLogger := logging.CronLogger(p.logger)
	c := cron.New(
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	ctx, cancel := context.WithCancel(context.Background())
	c.Schedule(cron.Every(p.interval), cron.FuncJob(func() { p.tick(ctx) }))

	p.cron = c
	p.ctx = ctx
	p.cancel = cancel
	p.alive.Store(true)
	c.Start()
	p.logger.Debug("polling started", "interval", p.interval)
	return true
}

// Stop halts ticking without waiting for a running job; the job's context is
// cancelled.
func (p *PollingScheduler) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *PollingScheduler) stopLocked() {
	if p.cron == nil {
		return
	}
	p.alive.Store(false)
	p.cancel()
	pending := p.stopped[:0]
	for _, done := range p.stopped {
		if done.Err() == nil {
			pending = append(pending, done)
		}
	}
	p.stopped = append(pending, p.cron.Stop())
	p.cron = nil
	p.cancel = nil
	p.ctx = nil
	p.logger.Debug("polling stopped")
}

func (p *PollingScheduler) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cron != nil
}

// Close stops the scheduler for good and waits up to timeout for running jobs.
// It reports whether every job finished in time.
func (p *PollingScheduler) Close(timeout time.Duration) bool {
	p.mu.Lock()
	p.closed = true
	p.stopLocked()
	pending := p.stopped
	p.stopped = nil
	p.mu.Unlock()

	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	for _, done := range pending {
		select {
		case <-done.Done():
		case <-deadline.C:
			return false
		}
	}
	return true
}

func (p *PollingScheduler) tick(ctx context.Context) {
	if !p.alive.Load() || ctx.Err() != nil {
		return
	}
	p.job(ctx)
}
