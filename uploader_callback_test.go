package upload

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCallbackBestEffortUploadFile(t *testing.T) {
	ctx := context.Background()
	logger := &mockLogger{}

	manager := NewManager()
	WithLogger(logger)(manager)
	WithBackends(newMockBackend("a"))(manager)
	defer manager.Close()

	invoked := 0
	WithOnUploadComplete(func(ctx context.Context, result *Result) error {
		invoked++
		return errors.New("boom")
	})(manager)

	result, err := manager.UploadFile(ctx, NewFile("sample.txt", []byte("hello")))
	if err != nil {
		t.Fatalf("expected best-effort callback to not fail upload: %v", err)
	}

	if !result.Succeeded() {
		t.Fatalf("expected successful result, got %v", result.Err)
	}

	if invoked != 1 {
		t.Fatalf("expected callback invoked once, got %d", invoked)
	}

	if len(logger.errorLogs()) != 1 {
		t.Fatalf("expected callback failure to be logged")
	}
}

func TestCallbackStrictUploadFile(t *testing.T) {
	ctx := context.Background()
	a := newMockBackend("a")
	b := newMockBackend("b")

	manager := NewManager()
	WithLogger(&mockLogger{})(manager)
	WithBackends(a, b)(manager)
	WithOnUploadComplete(func(ctx context.Context, result *Result) error {
		return errors.New("fail")
	})(manager)
	WithCallbackMode(CallbackModeStrict)(manager)
	defer manager.Close()

	result, err := manager.UploadFile(ctx, NewFile("sample.txt", []byte("hello")))
	if !errors.Is(err, ErrCallbackFailed) {
		t.Fatalf("expected strict callback failure to bubble up, got %v", err)
	}

	if result.Succeeded() {
		t.Fatalf("expected result to be marked failed")
	}

	if result.URL == "" {
		t.Fatalf("expected url of the accepted upload to be kept")
	}

	if len(b.uploadedFiles()) != 0 {
		t.Fatalf("expected no fallback once a backend accepted the file")
	}
}

func TestCallbackReceivesResult(t *testing.T) {
	ctx := context.Background()

	manager := NewManager()
	WithLogger(&mockLogger{})(manager)
	WithBackends(newMockBackend("a"))(manager)
	defer manager.Close()

	var got *Result
	WithOnUploadComplete(func(ctx context.Context, result *Result) error {
		got = result
		return nil
	})(manager)

	source := NewSliceSource(NewFile("one.txt", []byte("1")))
	if _, err := manager.UploadAll(ctx, source); err != nil {
		t.Fatalf("UploadAll: %v", err)
	}

	if got == nil {
		t.Fatalf("expected callback to be invoked")
	}

	if got.File != "one.txt" || got.Backend != "a" || got.URL != "https://example.com/a/one.txt" {
		t.Fatalf("unexpected callback result %+v", got)
	}
}

func TestCallbackNotInvokedOnFailure(t *testing.T) {
	ctx := context.Background()

	a := newMockBackend("a")
	a.uploadFunc = func(context.Context, Requirements, *File) (string, error) {
		return "", errors.New("rejected")
	}

	manager := NewManager()
	WithLogger(&mockLogger{})(manager)
	WithBackends(a)(manager)
	defer manager.Close()

	called := false
	WithOnUploadComplete(func(ctx context.Context, result *Result) error {
		called = true
		return nil
	})(manager)

	if _, err := manager.UploadFile(ctx, NewFile("x.txt", []byte("x"))); !errors.Is(err, ErrNoBackendAccepted) {
		t.Fatalf("expected ErrNoBackendAccepted, got %v", err)
	}

	if called {
		t.Fatalf("expected no callback for a failed file")
	}
}

func TestAsyncCallbackExecutor(t *testing.T) {
	ctx := context.Background()

	manager := NewManager()
	WithLogger(&mockLogger{})(manager)
	WithBackends(newMockBackend("a"))(manager)
	WithCallbackExecutor(NewAsyncCallbackExecutor(manager.logger))(manager)
	WithCallbackMode(CallbackModeStrict)(manager)
	defer manager.Close()

	done := make(chan struct{})
	WithOnUploadComplete(func(ctx context.Context, result *Result) error {
		close(done)
		return errors.New("ignored")
	})(manager)

	if _, err := manager.UploadFile(ctx, NewFile("sample.txt", []byte("hello"))); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("async callback not invoked")
	}
}

func TestAsyncCallbackExecutorLogsErrors(t *testing.T) {
	logger := &mockLogger{}
	executor := NewAsyncCallbackExecutor(logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	err := executor.Execute(ctx, func(ctx context.Context, result *Result) error {
		done <- ctx.Err()
		return errors.New("boom")
	}, &Result{File: "a.txt"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	select {
	case ctxErr := <-done:
		if ctxErr != nil {
			t.Fatalf("expected callback context to outlive the caller, got %v", ctxErr)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("async callback not invoked")
	}

	deadline := time.Now().Add(500 * time.Millisecond)
	for len(logger.errorLogs()) == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("expected callback error to be logged")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
