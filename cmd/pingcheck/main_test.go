package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pingmon/internal/probe"
	"pingmon/internal/target"
)

func TestExitCode(t *testing.T) {
	result := func(success bool) probe.Result {
		r := probe.Result{
			Target:    target.Target{Identifier: "8.8.8.8"},
			Success:   success,
			Timestamp: time.Now(),
		}
		if !success {
			r.Reason = probe.ReasonTimeout
		}
		return r
	}

	t.Run("all reachable", func(t *testing.T) {
		batch := probe.NewBatch("", nil)
		batch.Results = []probe.Result{result(true), result(true)}
		assert.Equal(t, exitAllReachable, exitCode(batch))
	})

	t.Run("some failed", func(t *testing.T) {
		batch := probe.NewBatch("", nil)
		batch.Results = []probe.Result{result(true), result(false)}
		assert.Equal(t, exitSomeFailed, exitCode(batch))
	})

	t.Run("every line rejected", func(t *testing.T) {
		batch := probe.NewBatch("", []string{"bad..ip", "-leading-hyphen"})
		assert.Equal(t, exitCouldNotStart, exitCode(batch))
	})
}
