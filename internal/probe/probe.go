package probe

import "context"

// CheckResult is the unified outcome of a single probe.
//
// LatencyMS is the recorded sample value: wall-clock milliseconds on
// success, always 0 on failure (failed probes record a zero sample so the
// history doubles as the failure log). StatusCode carries the HTTP status
// when one was received; it is 0 for transport errors and non-HTTP probes.
type CheckResult struct {
	Success    bool
	LatencyMS  int
	StatusCode int
	Message    string
}

// Checker performs a single probe of a target. Implementations never
// return an error: every network or protocol failure is reported as a
// failed CheckResult, and no call blocks past the checker's timeout.
type Checker interface {
	Check(ctx context.Context, target string) CheckResult
}
