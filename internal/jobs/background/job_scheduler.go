package background

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"portal/internal/common"
	"portal/internal/config"
	"portal/internal/services"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const ledgerSyncJobName = "ledger-sync"

// JobScheduler runs the portal's periodic background jobs
type JobScheduler struct {
	scheduler  gocron.Scheduler
	ledgerSync services.LedgerSyncService
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	jobs       map[string]gocron.Job
	mu         sync.RWMutex
	lastReport *services.SyncReport
	lastRunAt  time.Time
}

// NewJobScheduler creates the scheduler and registers the jobs enabled in cfg
func NewJobScheduler(ledgerSync services.LedgerSyncService, cfg config.JobsConfig, logger *zap.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	js := &JobScheduler{
		scheduler:  scheduler,
		ledgerSync: ledgerSync,
		logger:     logger,
		ctx:        ctx,
		cancel:     cancel,
		jobs:       make(map[string]gocron.Job),
	}

	if cfg.LedgerSyncEnabled && cfg.LedgerSyncInterval > 0 {
		if err := js.AddJob(ledgerSyncJobName, cfg.LedgerSyncInterval, js.syncLedgers); err != nil {
			cancel()
			return nil, err
		}
	}

	logger.Info("registered background jobs", zap.Int("count", len(js.jobs)))
	return js, nil
}

// Start starts the job scheduler
func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler")
	js.scheduler.Start()
}

// Stop cancels running jobs and waits for the scheduler to drain
func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	js.cancel()
	return js.scheduler.Shutdown()
}

// AddJob registers task to run every interval. Overlapping runs are skipped and rescheduled.
func (js *JobScheduler) AddJob(name string, interval time.Duration, task func(ctx context.Context)) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, err := js.scheduler.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(task, js.ctx),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("create job %s: %w", name, err)
	}

	js.jobs[name] = job
	return nil
}

// RemoveJob unschedules a job until the next restart
func (js *JobScheduler) RemoveJob(name string) error {
	js.mu.Lock()
	defer js.mu.Unlock()

	job, exists := js.jobs[name]
	if !exists {
		return common.NotFoundError("job")
	}
	delete(js.jobs, name)
	if err := js.scheduler.RemoveJob(job.ID()); err != nil {
		return fmt.Errorf("remove job %s: %w", name, err)
	}
	js.logger.Info("background job removed", zap.String("job", name))
	return nil
}

// RunJob triggers a registered job once without changing its schedule
func (js *JobScheduler) RunJob(name string) error {
	js.mu.RLock()
	job, exists := js.jobs[name]
	js.mu.RUnlock()
	if !exists {
		return common.NotFoundError("job")
	}
	if err := job.RunNow(); err != nil {
		return fmt.Errorf("run job %s: %w", name, err)
	}
	js.logger.Info("background job triggered", zap.String("job", name))
	return nil
}

// GetJobStatus returns the registered jobs and the outcome of the last ledger sync
func (js *JobScheduler) GetJobStatus() map[string]interface{} {
	js.mu.RLock()
	defer js.mu.RUnlock()

	names := make([]string, 0, len(js.jobs))
	for name := range js.jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	status := map[string]interface{}{
		"total_jobs": len(js.jobs),
		"jobs":       names,
	}
	if js.lastReport != nil {
		status["ledger_sync"] = map[string]interface{}{
			"last_run_at": js.lastRunAt,
			"accounts":    js.lastReport.Accounts,
			"imported":    js.lastReport.Imported,
			"failed":      js.lastReport.Failed,
		}
	}
	return status
}

// syncLedgers imports new directory transactions for every linked account
func (js *JobScheduler) syncLedgers(ctx context.Context) {
	started := time.Now()
	report, err := js.ledgerSync.SyncAll(ctx)
	if err != nil {
		js.logger.Error("ledger sync failed", zap.Error(err))
		return
	}

	js.mu.Lock()
	js.lastReport = report
	js.lastRunAt = started
	js.mu.Unlock()

	log := js.logger.Info
	if report.Failed > 0 {
		log = js.logger.Warn
	}
	log("ledger sync completed",
		zap.Int("accounts", report.Accounts),
		zap.Int("imported", report.Imported),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", time.Since(started)),
	)
}
