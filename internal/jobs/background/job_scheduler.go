package background

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"bizdesk/internal/common"
	"bizdesk/internal/jobs"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

const (
	JobStaleTenders    = "stale-tender-scan"
	JobDashboardWarmup = "dashboard-warmup"
	defaultStaleEvery  = time.Hour
	defaultWarmupEvery = 15 * time.Minute
	jobRunTimeout      = 10 * time.Minute
)

type Intervals struct {
	StaleScan       time.Duration
	DashboardWarmup time.Duration
}

// JobScheduler runs the periodic jobs of the service.
type JobScheduler struct {
	scheduler gocron.Scheduler
	stale     *jobs.StaleTenderScanner
	warmup    *jobs.DashboardWarmup
	logger    *zap.Logger
	jobs      map[string]gocron.Job
	mu        sync.RWMutex
}

// JobStatus describes one registered job.
type JobStatus struct {
	Name    string    `json:"name"`
	LastRun time.Time `json:"last_run,omitempty"`
	NextRun time.Time `json:"next_run,omitempty"`
}

func NewJobScheduler(stale *jobs.StaleTenderScanner, warmup *jobs.DashboardWarmup, intervals Intervals, logger *zap.Logger) (*JobScheduler, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	js := &JobScheduler{
		scheduler: scheduler,
		stale:     stale,
		warmup:    warmup,
		logger:    logger,
		jobs:      make(map[string]gocron.Job),
	}
	if err := js.registerJobs(intervals); err != nil {
		_ = scheduler.Shutdown()
		return nil, err
	}
	return js, nil
}

func (js *JobScheduler) Start() {
	js.logger.Info("starting background job scheduler", zap.Int("jobs", len(js.jobs)))
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	js.logger.Info("stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs(intervals Intervals) error {
	staleEvery := intervals.StaleScan
	if staleEvery <= 0 {
		staleEvery = defaultStaleEvery
	}
	warmupEvery := intervals.DashboardWarmup
	if warmupEvery <= 0 {
		warmupEvery = defaultWarmupEvery
	}

	if err := js.add(JobStaleTenders, staleEvery, js.runStaleScan); err != nil {
		return err
	}
	return js.add(JobDashboardWarmup, warmupEvery, js.runWarmup)
}

func (js *JobScheduler) add(name string, every time.Duration, task func()) error {
	job, err := js.scheduler.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(task),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("register job %s: %w", name, err)
	}
	js.mu.Lock()
	js.jobs[name] = job
	js.mu.Unlock()
	return nil
}

func (js *JobScheduler) runStaleScan() {
	ctx, cancel := context.WithTimeout(context.Background(), jobRunTimeout)
	defer cancel()
	if _, err := js.stale.ScanAll(ctx); err != nil {
		js.logger.Error("stale tender scan failed", zap.Error(err))
	}
}

func (js *JobScheduler) runWarmup() {
	ctx, cancel := context.WithTimeout(context.Background(), jobRunTimeout)
	defer cancel()
	if _, err := js.warmup.WarmAll(ctx); err != nil {
		js.logger.Error("dashboard warmup failed", zap.Error(err))
	}
}

// RunNow triggers a registered job outside its schedule.
func (js *JobScheduler) RunNow(name string) error {
	js.mu.RLock()
	job, ok := js.jobs[name]
	js.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: unknown job %q", common.ErrNotFound, name)
	}
	return job.RunNow()
}

// Status lists the registered jobs sorted by name.
func (js *JobScheduler) Status() []JobStatus {
	js.mu.RLock()
	defer js.mu.RUnlock()

	out := make([]JobStatus, 0, len(js.jobs))
	for name, job := range js.jobs {
		st := JobStatus{Name: name}
		if last, err := job.LastRun(); err == nil {
			st.LastRun = last
		}
		if next, err := job.NextRun(); err == nil {
			st.NextRun = next
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
