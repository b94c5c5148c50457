package scheduler

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"pingmon/internal/probe"
)

// Job is one named, independently scheduled probe configuration. A job never
// runs concurrently with itself; distinct jobs are fully independent.
type Job struct {
	Name string
	// TargetFile and InventoryQuery describe the target source; at most one
	// is set. Both empty means the default inventory query.
	TargetFile     string
	InventoryQuery string
	Params         probe.Params
	Spec           string

	schedule cron.Schedule
	running  atomic.Bool

	mu      sync.Mutex
	lastRun time.Time
}

// NewJob parses the job's 5-field cron spec and returns the runnable job.
func NewJob(cfg JobConfig) (*Job, error) {
	schedule, err := cron.ParseStandard(cfg.Schedule)
	if err != nil {
		return nil, fmt.Errorf("NewJob %q: parsing schedule %q: %w", cfg.Name, cfg.Schedule, err)
	}
	return &Job{
		Name:           cfg.Name,
		TargetFile:     cfg.TargetFile,
		InventoryQuery: cfg.InventoryQuery,
		Params: probe.Params{
			Timeout: cfg.Timeout,
			Count:   cfg.Count,
			Workers: cfg.Workers,
		},
		Spec:     cfg.Schedule,
		schedule: schedule,
	}, nil
}

// Next returns the first schedule match after t.
func (j *Job) Next(t time.Time) time.Time {
	return j.schedule.Next(t)
}

// tryAcquire flips the job to running; false means a run is already in
// flight and this fire must be dropped.
func (j *Job) tryAcquire() bool {
	return j.running.CompareAndSwap(false, true)
}

func (j *Job) release(completed time.Time) {
	j.mu.Lock()
	j.lastRun = completed
	j.mu.Unlock()
	j.running.Store(false)
}

// Running reports whether a run is currently in flight.
func (j *Job) Running() bool {
	return j.running.Load()
}

// LastRun is the completion time of the most recent finished run.
func (j *Job) LastRun() time.Time {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.lastRun
}
