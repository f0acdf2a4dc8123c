package upload

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var _ Backend = &LocalBackend{}

// LocalBackend copies files into a directory. Existing files are never
// overwritten.
type LocalBackend struct {
	name      string
	base      string
	urlPrefix string
	caps      Capabilities
	logger    Logger
}

func NewLocalBackend(base string) *LocalBackend {
	return &LocalBackend{
		name: "local",
		base: base,
		caps: Capabilities{
			MaxSize:      math.MaxInt64,
			PreserveName: Some(true),
			MaxRetention: time.Duration(math.MaxInt64),
		},
		logger: &DefaultLogger{},
	}
}

func (p *LocalBackend) WithLogger(l Logger) *LocalBackend {
	if l != nil {
		p.logger = l
	}
	return p
}

func (p *LocalBackend) WithName(name string) *LocalBackend {
	p.name = name
	return p
}

// WithURLPrefix makes the backend return prefix + name instead of a
// file:// URL, for directories served over http.
func (p *LocalBackend) WithURLPrefix(prefix string) *LocalBackend {
	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}

	p.urlPrefix = prefix
	return p
}

func (p *LocalBackend) Name() string {
	return p.name
}

func (p *LocalBackend) Capabilities() Capabilities {
	return p.caps
}

func (p *LocalBackend) StaticSettingsCheck(req Requirements) bool {
	return Satisfies(req, p.caps)
}

// StaticFileCheck only accepts bare file names.
func (p *LocalBackend) StaticFileCheck(_ Requirements, file *File) bool {
	name := file.Name()
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		p.logger.Debug("file name has to be a plain name", "backend", p.name, "file", name)
		return false
	}
	return true
}

func (p *LocalBackend) CheckReachable(_ context.Context, _ Requirements) error {
	info, err := os.Stat(p.base)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidPath, p.base, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidPath, p.base)
	}

	return nil
}

func (p *LocalBackend) UploadFile(_ context.Context, _ Requirements, file *File) (string, error) {
	fullPath := filepath.Join(p.base, filepath.Clean(file.Name()))

	out, err := os.OpenFile(fullPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if errors.Is(err, fs.ErrExist) {
		return "", fmt.Errorf("%w: %s already exists", ErrFileRejected, fullPath)
	}

	if errors.Is(err, fs.ErrPermission) {
		return "", fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}

	if err != nil {
		return "", fmt.Errorf("local write: %w", err)
	}

	if _, err := out.Write(file.Content()); err != nil {
		_ = out.Close()
		return "", fmt.Errorf("local write: %w", err)
	}

	if err := out.Close(); err != nil {
		return "", fmt.Errorf("local write: %w", err)
	}

	if p.urlPrefix != "" {
		return joinSegments(p.urlPrefix, file.Name()), nil
	}

	abs, err := filepath.Abs(fullPath)
	if err != nil {
		abs = fullPath
	}

	return "file://" + filepath.ToSlash(abs), nil
}

func joinSegments(prefix, path string) string {
	path = strings.TrimPrefix(path, "/")

	if !strings.HasSuffix(prefix, "/") {
		prefix = prefix + "/"
	}
	return prefix + path
}
