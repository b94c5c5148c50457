package probe

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"pingmon/internal/target"
)

// Params bounds one engine invocation.
type Params struct {
	Timeout time.Duration
	Count   int
	Workers int
}

func (p Params) sanitized() Params {
	if p.Timeout <= 0 {
		p.Timeout = 3 * time.Second
	}
	if p.Count < 1 {
		p.Count = 1
	}
	if p.Workers < 1 {
		p.Workers = 1
	}
	return p
}

type Engine interface {
	Run(ctx context.Context, targets []target.Target, invalid []string, jobName string, params Params) Batch
}

type engine struct {
	pinger Pinger
	logger *zap.Logger
}

func NewEngine(pinger Pinger, logger *zap.Logger) Engine {
	return &engine{
		pinger: pinger,
		logger: logger,
	}
}

// Run probes every target under at most params.Workers concurrent calls and
// materializes results in submission order regardless of completion order.
// A failed probe becomes a failure Result; it never aborts the batch.
func (e *engine) Run(ctx context.Context, targets []target.Target, invalid []string, jobName string, params Params) Batch {
	params = params.sanitized()

	batch := NewBatch(jobName, invalid)
	results := make([]Result, len(targets))

	jobQueue := make(chan int)
	var wg sync.WaitGroup
	wg.Add(params.Workers)
	for i := 0; i < params.Workers; i++ {
		go func() {
			defer wg.Done()
			for idx := range jobQueue {
				results[idx] = e.probeOne(ctx, targets[idx], jobName, params)
			}
		}()
	}
	for idx := range targets {
		jobQueue <- idx
	}
	close(jobQueue)
	wg.Wait()

	batch.Results = results
	return batch
}

func (e *engine) probeOne(ctx context.Context, tgt target.Target, jobName string, params Params) Result {
	reply, err := e.pinger.Ping(ctx, tgt.Identifier, params.Timeout, params.Count)
	result := Result{
		Target:    target.Target{Identifier: tgt.Identifier, Label: tgt.Label, Job: jobName},
		Timestamp: time.Now(),
	}
	if err == nil {
		result.Success = true
		result.Latency = reply.Latency
		result.HasLatency = reply.HasLatency
		return result
	}

	result.Reason = classify(err)
	e.logger.Debug("probe failed",
		zap.String("target", tgt.Identifier),
		zap.String("reason", string(result.Reason)),
		zap.Error(err))
	return result
}

func classify(err error) FailureReason {
	switch {
	case errors.Is(err, ErrProbeTimeout):
		return ReasonTimeout
	case errors.Is(err, ErrProbeResolution):
		return ReasonResolution
	case errors.Is(err, ErrProbeUnreachable):
		return ReasonUnreachable
	default:
		return ReasonToolError
	}
}
