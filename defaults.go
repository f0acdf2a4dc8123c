package upload

import "time"

var (
	// DefaultProbeTimeout bounds a single reachability check.
	DefaultProbeTimeout = 200 * time.Millisecond

	// DefaultUploadTimeout bounds one upload attempt against one backend.
	// Zero disables the limit.
	DefaultUploadTimeout = 10 * time.Minute

	// DefaultUserAgent is sent by the HTTP backends.
	DefaultUserAgent = "upload/0.1"
)

// ProbePolicy selects when reachability probes are launched.
type ProbePolicy string

const (
	// ProbeEager launches every probe at startup so network latency overlaps
	// with file enumeration.
	ProbeEager ProbePolicy = "eager"
	// ProbeDeferred launches a probe only when the orchestrator needs the
	// next candidate.
	ProbeDeferred ProbePolicy = "deferred"
)

// CallbackMode describes how the manager should react when post-upload callbacks fail.
type CallbackMode string

const (
	// CallbackModeStrict turns callback errors into a failed result.
	CallbackModeStrict CallbackMode = "strict"
	// CallbackModeBestEffort logs callback failures but still reports success to the caller.
	CallbackModeBestEffort CallbackMode = "best_effort"
)
