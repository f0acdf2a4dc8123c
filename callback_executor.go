package upload

import "context"

// UploadCallback is invoked after a file was accepted by a backend.
type UploadCallback func(ctx context.Context, result *Result) error

type CallbackExecutor interface {
	Execute(ctx context.Context, cb UploadCallback, result *Result) error
}

type syncCallbackExecutor struct{}

func (syncCallbackExecutor) Execute(ctx context.Context, cb UploadCallback, result *Result) error {
	return cb(ctx, result)
}

// AsyncCallbackExecutor runs callbacks in their own goroutine. Errors are
// logged and never reach the caller.
type AsyncCallbackExecutor struct {
	logger Logger
}

func NewAsyncCallbackExecutor(logger Logger) *AsyncCallbackExecutor {
	if logger == nil {
		logger = &DefaultLogger{}
	}
	return &AsyncCallbackExecutor{logger: logger}
}

func (e *AsyncCallbackExecutor) Execute(ctx context.Context, cb UploadCallback, result *Result) error {
	if cb == nil || result == nil {
		return nil
	}

	go func() {
		if err := cb(context.WithoutCancel(ctx), result); err != nil && e.logger != nil {
			e.logger.Error("async upload callback failed", "file", result.File, "url", result.URL, "error", err)
		}
	}()

	return nil
}
