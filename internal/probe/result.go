package probe

import (
	"strconv"
	"time"

	"pingmon/internal/target"
)

// FailureReason classifies why a probe produced no reply.
type FailureReason string

const (
	ReasonTimeout     FailureReason = "timeout"
	ReasonUnreachable FailureReason = "unreachable"
	ReasonResolution  FailureReason = "resolution-failure"
	ReasonToolError   FailureReason = "tool-error"
)

// Result is the uniform record for one probed target. Success and the
// latency/reason fields are mutually exclusive: a successful result carries a
// latency (or HasLatency=false when the tool reported none) and no reason, a
// failed result carries a reason and no latency.
type Result struct {
	Target     target.Target
	Success    bool
	Latency    time.Duration
	HasLatency bool
	Reason     FailureReason
	Timestamp  time.Time
}

// Detail renders the latency-or-reason column of the run log line.
func (r Result) Detail() string {
	if r.Success {
		if !r.HasLatency {
			return "N/A"
		}
		ms := float64(r.Latency) / float64(time.Millisecond)
		return strconv.FormatFloat(ms, 'f', 1, 64) + "ms"
	}
	return string(r.Reason)
}

// Batch is the complete outcome of one engine invocation. Timestamp is
// assigned once at creation and names every file derived from this batch.
type Batch struct {
	Job       string
	Timestamp time.Time
	Results   []Result
	Invalid   []string
}

func NewBatch(job string, invalid []string) Batch {
	return Batch{
		Job:       job,
		Timestamp: time.Now(),
		Invalid:   invalid,
	}
}

// AllReachable reports whether every probed target succeeded.
func (b Batch) AllReachable() bool {
	for _, r := range b.Results {
		if !r.Success {
			return false
		}
	}
	return true
}

// Counts returns the number of successful and failed results.
func (b Batch) Counts() (successful, failed int) {
	for _, r := range b.Results {
		if r.Success {
			successful++
		} else {
			failed++
		}
	}
	return successful, failed
}
