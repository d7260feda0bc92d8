package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is one unit of periodic work. A failing run is logged and the runner waits for
// the next tick; nothing is retried.
type Task func(context.Context) error

// RunnerConfig configures periodic execution.
type RunnerConfig struct {
	Interval   time.Duration
	RunOnStart bool
	Logger     *zap.Logger
	// OnResult observes every run, mainly for metrics.
	OnResult func(err error, elapsed time.Duration)
}

// Runner executes a Task on a fixed interval until stopped. Runs never overlap.
type Runner struct {
	name     string
	task     Task
	interval time.Duration
	onStart  bool
	logger   *zap.Logger
	onResult func(error, time.Duration)

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started bool
}

// NewRunner builds a runner for task.
func NewRunner(name string, task Task, cfg RunnerConfig) *Runner {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Runner{
		name:     name,
		task:     task,
		interval: cfg.Interval,
		onStart:  cfg.RunOnStart,
		logger:   cfg.Logger,
		onResult: cfg.OnResult,
	}
}

// Start launches the ticker loop. Safe to call once.
func (r *Runner) Start(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.ctx, r.cancel = context.WithCancel(ctx)
	r.wg.Add(1)
	go r.loop()
	r.started = true
	r.logger.Sugar().Infow("runner started", "runner", r.name, "interval", r.interval.String())
}

// Stop cancels the loop and waits for an in-flight run to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	r.cancel()
	r.mu.Unlock()
	r.wg.Wait()
	r.logger.Sugar().Infow("runner stopped", "runner", r.name)
}

// RunOnce executes the task a single time and reports its error.
func (r *Runner) RunOnce(ctx context.Context) error {
	start := time.Now()
	err := r.task(ctx)
	elapsed := time.Since(start)
	if r.onResult != nil {
		r.onResult(err, elapsed)
	}
	if err != nil {
		r.logger.Sugar().Errorw("run failed", "runner", r.name, "elapsed", elapsed.String(), "error", err)
		return err
	}
	r.logger.Sugar().Infow("run finished", "runner", r.name, "elapsed", elapsed.String())
	return nil
}

func (r *Runner) loop() {
	defer r.wg.Done()
	if r.onStart {
		_ = r.RunOnce(r.ctx)
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			_ = r.RunOnce(r.ctx)
		}
	}
}
