package probe

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"time"
)

var (
	ErrProbeTimeout     = errors.New("probe timed out")
	ErrProbeUnreachable = errors.New("host unreachable")
	ErrProbeResolution  = errors.New("host resolution failed")
	ErrProbeTool        = errors.New("probe tool error")
)

// Reply is what the reachability primitive reports for a successful probe.
// HasLatency is false when the tool confirmed a reply but printed no
// round-trip time.
type Reply struct {
	Latency    time.Duration
	HasLatency bool
}

// Pinger is the reachability capability: one check against one identifier
// with the configured timeout and packet count. A nil error means at least
// one reply was received.
type Pinger interface {
	Ping(ctx context.Context, identifier string, timeout time.Duration, count int) (Reply, error)
}

// argsFunc builds the platform ping argument list. Selected once per process
// from the host OS, never per target.
type argsFunc func(identifier string, timeout time.Duration, count int) []string

type execPinger struct {
	binary    string
	buildArgs argsFunc
}

// NewExecPinger returns a Pinger that shells out to the system ping binary,
// with flag syntax chosen for the host platform.
func NewExecPinger() Pinger {
	return newExecPingerFor(runtime.GOOS)
}

func newExecPingerFor(goos string) *execPinger {
	p := &execPinger{binary: "ping"}
	switch goos {
	case "windows":
		p.buildArgs = func(identifier string, timeout time.Duration, count int) []string {
			return []string{"-n", strconv.Itoa(count), "-w", strconv.FormatInt(timeout.Milliseconds(), 10), identifier}
		}
	case "darwin":
		p.buildArgs = func(identifier string, timeout time.Duration, count int) []string {
			return []string{"-c", strconv.Itoa(count), "-t", strconv.Itoa(timeoutSeconds(timeout)), identifier}
		}
	default:
		// linux and the rest of the unixes
		p.buildArgs = func(identifier string, timeout time.Duration, count int) []string {
			return []string{"-c", strconv.Itoa(count), "-W", strconv.Itoa(timeoutSeconds(timeout)), identifier}
		}
	}
	return p
}

func timeoutSeconds(d time.Duration) int {
	s := int(d / time.Second)
	if s < 1 {
		s = 1
	}
	return s
}

// toolGrace bounds the external call a little past the ping timeout itself,
// so a wedged tool cannot hold a worker forever.
const toolGrace = 2 * time.Second

func (p *execPinger) Ping(ctx context.Context, identifier string, timeout time.Duration, count int) (Reply, error) {
	callCtx, cancel := context.WithTimeout(ctx, timeout+toolGrace)
	defer cancel()

	cmd := exec.CommandContext(callCtx, p.binary, p.buildArgs(identifier, timeout, count)...)
	out, err := cmd.CombinedOutput()
	if err == nil {
		if latency, ok := parseLatency(string(out)); ok {
			return Reply{Latency: latency, HasLatency: true}, nil
		}
		return Reply{}, nil
	}

	if callCtx.Err() == context.DeadlineExceeded {
		return Reply{}, fmt.Errorf("execPinger.Ping %s: %w", identifier, ErrProbeTimeout)
	}
	if callCtx.Err() != nil {
		// cancelled mid-flight, the kill is ours and says nothing about the host
		return Reply{}, fmt.Errorf("execPinger.Ping %s: %v: %w", identifier, callCtx.Err(), ErrProbeTool)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if isResolutionFailure(string(out)) {
			return Reply{}, fmt.Errorf("execPinger.Ping %s: %w", identifier, ErrProbeResolution)
		}
		return Reply{}, fmt.Errorf("execPinger.Ping %s: %w", identifier, ErrProbeUnreachable)
	}
	return Reply{}, fmt.Errorf("execPinger.Ping %s: %v: %w", identifier, err, ErrProbeTool)
}

// latencyRegexp matches "time=12.3 ms" (unix) and "time<1ms" / "time=12ms"
// (windows) reply lines.
var latencyRegexp = regexp.MustCompile(`time[=<]([0-9.]+)\s*ms`)

func parseLatency(output string) (time.Duration, bool) {
	m := latencyRegexp.FindStringSubmatch(output)
	if m == nil {
		return 0, false
	}
	ms, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(ms * float64(time.Millisecond)), true
}

var resolutionMarkers = []string{
	"unknown host",
	"name or service not known",
	"name does not resolve",
	"cannot resolve",
	"could not find host",
	"temporary failure in name resolution",
}

func isResolutionFailure(output string) bool {
	lower := strings.ToLower(output)
	for _, marker := range resolutionMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
