package upload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestNewLocalBackend(t *testing.T) {
	base := "/tmp/test"
	backend := NewLocalBackend(base)

	if backend == nil {
		t.Fatal("NewLocalBackend returned nil")
	}

	if backend.base != base {
		t.Errorf("Expected base '%s', got '%s'", base, backend.base)
	}

	if backend.Name() != "local" {
		t.Errorf("Expected name 'local', got '%s'", backend.Name())
	}

	if backend.logger == nil {
		t.Error("Backend should have default logger")
	}
}

func TestLocalBackendWithLogger(t *testing.T) {
	logger := &mockLogger{}
	backend := NewLocalBackend("/tmp").WithLogger(logger)

	if backend.logger != logger {
		t.Error("Logger not set correctly")
	}
}

func TestLocalBackendWithURLPrefix(t *testing.T) {
	t.Run("without trailing slash", func(t *testing.T) {
		prefix := "http://example.com/files"
		backend := NewLocalBackend("/tmp").WithURLPrefix(prefix)

		expected := prefix + "/"
		if backend.urlPrefix != expected {
			t.Errorf("Expected URL prefix '%s', got '%s'", expected, backend.urlPrefix)
		}
	})

	t.Run("with trailing slash", func(t *testing.T) {
		prefix := "http://example.com/files/"
		backend := NewLocalBackend("/tmp").WithURLPrefix(prefix)

		if backend.urlPrefix != prefix {
			t.Errorf("Expected URL prefix '%s', got '%s'", prefix, backend.urlPrefix)
		}
	})
}

func TestLocalBackendUploadFile(t *testing.T) {
	ctx := context.Background()

	t.Run("file url", func(t *testing.T) {
		dir := t.TempDir()
		backend := NewLocalBackend(dir).WithLogger(&mockLogger{})

		url, err := backend.UploadFile(ctx, Requirements{}, NewFile("test.txt", []byte("test content")))
		if err != nil {
			t.Fatalf("UploadFile failed: %v", err)
		}

		if !strings.HasPrefix(url, "file://") || !strings.HasSuffix(url, "/test.txt") {
			t.Errorf("Expected file url, got '%s'", url)
		}

		data, err := os.ReadFile(filepath.Join(dir, "test.txt"))
		if err != nil {
			t.Fatalf("Failed to read uploaded file: %v", err)
		}

		if string(data) != "test content" {
			t.Errorf("Expected content 'test content', got '%s'", data)
		}
	})

	t.Run("url prefix", func(t *testing.T) {
		backend := NewLocalBackend(t.TempDir()).
			WithLogger(&mockLogger{}).
			WithURLPrefix("https://files.example.com/drop")

		url, err := backend.UploadFile(ctx, Requirements{}, NewFile("a.txt", []byte("a")))
		if err != nil {
			t.Fatalf("UploadFile failed: %v", err)
		}

		if url != "https://files.example.com/drop/a.txt" {
			t.Errorf("Unexpected url '%s'", url)
		}
	})

	t.Run("existing file is not overwritten", func(t *testing.T) {
		dir := t.TempDir()
		if err := os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("original"), 0644); err != nil {
			t.Fatalf("WriteFile: %v", err)
		}

		backend := NewLocalBackend(dir).WithLogger(&mockLogger{})

		_, err := backend.UploadFile(ctx, Requirements{}, NewFile("keep.txt", []byte("new")))
		if !errors.Is(err, ErrFileRejected) {
			t.Fatalf("Expected ErrFileRejected, got %v", err)
		}

		data, _ := os.ReadFile(filepath.Join(dir, "keep.txt"))
		if string(data) != "original" {
			t.Errorf("Expected original content to survive, got '%s'", data)
		}
	})

	t.Run("permission denied", func(t *testing.T) {
		if runtime.GOOS == "windows" || os.Geteuid() == 0 {
			t.Skip("permission bits are not enforced")
		}

		dir := t.TempDir()
		if err := os.Chmod(dir, 0500); err != nil {
			t.Fatalf("Chmod: %v", err)
		}
		t.Cleanup(func() { _ = os.Chmod(dir, 0700) })

		backend := NewLocalBackend(dir).WithLogger(&mockLogger{})

		_, err := backend.UploadFile(ctx, Requirements{}, NewFile("a.txt", []byte("a")))
		if !errors.Is(err, ErrPermissionDenied) {
			t.Fatalf("Expected ErrPermissionDenied, got %v", err)
		}
	})
}

func TestLocalBackendStaticFileCheck(t *testing.T) {
	backend := NewLocalBackend(t.TempDir()).WithLogger(&mockLogger{})

	tests := []struct {
		name string
		file string
		want bool
	}{
		{name: "plain name", file: "a.txt", want: true},
		{name: "nested path", file: "dir/a.txt", want: false},
		{name: "parent traversal", file: "../a.txt", want: false},
		{name: "dot dot", file: "..", want: false},
		{name: "empty", file: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := backend.StaticFileCheck(Requirements{}, NewFile(tt.file, nil)); got != tt.want {
				t.Errorf("StaticFileCheck(%q) = %v, want %v", tt.file, got, tt.want)
			}
		})
	}
}

func TestLocalBackendCheckReachable(t *testing.T) {
	ctx := context.Background()

	dir := t.TempDir()
	if err := NewLocalBackend(dir).CheckReachable(ctx, Requirements{}); err != nil {
		t.Errorf("Expected directory to be reachable, got %v", err)
	}

	missing := filepath.Join(dir, "missing")
	if err := NewLocalBackend(missing).CheckReachable(ctx, Requirements{}); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Expected ErrInvalidPath for missing directory, got %v", err)
	}

	file := filepath.Join(dir, "file.txt")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	if err := NewLocalBackend(file).CheckReachable(ctx, Requirements{}); !errors.Is(err, ErrInvalidPath) {
		t.Errorf("Expected ErrInvalidPath for a file, got %v", err)
	}
}

func TestLocalBackendStaticSettingsCheck(t *testing.T) {
	backend := NewLocalBackend("/tmp")

	if !backend.StaticSettingsCheck(Requirements{PreserveName: Some(true)}) {
		t.Error("Expected name preservation to be supported")
	}

	if backend.StaticSettingsCheck(Requirements{PreserveName: Some(false)}) {
		t.Error("Expected random names to be unsupported")
	}

	if backend.StaticSettingsCheck(Requirements{HTTPS: Some(true)}) {
		t.Error("Expected transport requirements to rule out the local backend")
	}
}
