package upload

import "context"

// Backend is one remote (or local) file host. Implementations are read
// only after construction and safe to share between goroutines.
type Backend interface {
	Name() string
	// StaticSettingsCheck reports whether the backend can serve req at all,
	// without looking at a file or touching the network.
	StaticSettingsCheck(req Requirements) bool
	// StaticFileCheck is a cheap, file aware pre-flight. No network I/O.
	StaticFileCheck(req Requirements, file *File) bool
	// CheckReachable performs one probe bounded by ctx.
	CheckReachable(ctx context.Context, req Requirements) error
	// UploadFile transfers file and returns its URL. Errors are always
	// recoverable; the caller may try another backend.
	UploadFile(ctx context.Context, req Requirements, file *File) (string, error)
}

// CapabilityReporter is implemented by backends that expose their limits.
type CapabilityReporter interface {
	Capabilities() Capabilities
}
