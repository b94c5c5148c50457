package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrShutdownTimeout means in-flight job runs outlived the grace period and
// were cancelled.
var ErrShutdownTimeout = errors.New("shutdown grace period expired with runs in flight")

const defaultPollInterval = time.Second

// Scheduler drives every job from a single polling loop. A job whose
// schedule matches fires unless a run of the same job is still in flight, in
// which case the fire is dropped, not queued.
type Scheduler interface {
	Start()
	Stop(ctx context.Context) error
}

type scheduler struct {
	jobs         []*Job
	runner       Runner
	pollInterval time.Duration
	logger       *zap.Logger

	lastPoll time.Time
	stopChan chan struct{}
	loopDone chan struct{}
	wg       sync.WaitGroup

	runCtx    context.Context
	cancelRun context.CancelFunc
}

func NewScheduler(jobs []*Job, runner Runner, logger *zap.Logger) Scheduler {
	runCtx, cancelRun := context.WithCancel(context.Background())
	return &scheduler{
		jobs:         jobs,
		runner:       runner,
		pollInterval: defaultPollInterval,
		logger:       logger,
		stopChan:     make(chan struct{}),
		loopDone:     make(chan struct{}),
		runCtx:       runCtx,
		cancelRun:    cancelRun,
	}
}

func (s *scheduler) Start() {
	now := time.Now()
	s.lastPoll = now
	for _, job := range s.jobs {
		s.logger.Info("job scheduled",
			zap.String("job", job.Name),
			zap.String("schedule", job.Spec),
			zap.Time("next_run", job.Next(now)))
	}
	go func() {
		defer close(s.loopDone)
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.poll(time.Now())
			case <-s.stopChan:
				return
			}
		}
	}()
}

// poll fires every job whose schedule matched since the previous poll. Using
// Next over the last poll time makes each matching minute fire exactly once
// regardless of the tick rate.
func (s *scheduler) poll(now time.Time) {
	for _, job := range s.jobs {
		if next := job.Next(s.lastPoll); !next.After(now) {
			s.fire(job)
		}
	}
	s.lastPoll = now
}

func (s *scheduler) fire(job *Job) {
	if !job.tryAcquire() {
		s.logger.Warn("fire dropped, previous run still in flight", zap.String("job", job.Name))
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer job.release(time.Now())
		if err := s.runner.RunJob(s.runCtx, job); err != nil {
			s.logger.Error("job run failed", zap.String("job", job.Name), zap.Error(err))
		}
	}()
}

// Stop stops accepting fires and waits for in-flight runs to finish. When the
// context expires first, remaining runs are cancelled and ErrShutdownTimeout
// is returned.
func (s *scheduler) Stop(ctx context.Context) error {
	close(s.stopChan)
	<-s.loopDone

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		s.cancelRun()
		<-done
		return ErrShutdownTimeout
	}
}
