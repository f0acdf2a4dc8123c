package upload

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// StdinPath in a path list means "read more paths from stdin, one per line".
const StdinPath = "-"

// SourceMode selects how paths are turned into files.
type SourceMode string

const (
	// ModeIndividual yields one file per path; directories become archives.
	ModeIndividual SourceMode = "individual"
	// ModeArchive packs every path into a single archive.
	ModeArchive SourceMode = "archive"
)

// PathSource loads files from paths on an fs.FS. Symlinks are followed.
// Paths listed on stdin are scanned in the background while earlier
// files are already being uploaded.
type PathSource struct {
	fsys             fs.FS
	normalize        func(string) (string, error)
	mode             SourceMode
	archiveName      string
	directoryArchive bool
	stdin            io.Reader
	logger           Logger

	once    sync.Once
	group   errgroup.Group
	pending chan string

	mu    sync.Mutex
	queue []string
	done  bool
}

var _ FileSource = &PathSource{}

type PathSourceOption func(*PathSource)

// WithSourceFS reads paths from fsys instead of the operating system.
// Paths must then be valid fs.FS paths.
func WithSourceFS(fsys fs.FS) PathSourceOption {
	return func(s *PathSource) {
		if fsys != nil {
			s.fsys = fsys
			s.normalize = func(p string) (string, error) {
				p = path.Clean(strings.TrimPrefix(p, "/"))
				if !fs.ValidPath(p) {
					return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
				}
				return p, nil
			}
		}
	}
}

func WithSourceMode(mode SourceMode) PathSourceOption {
	return func(s *PathSource) {
		if mode != "" {
			s.mode = mode
		}
	}
}

func WithArchiveName(name string) PathSourceOption {
	return func(s *PathSource) {
		if name != "" {
			s.archiveName = name
		}
	}
}

// WithDirectoryArchive keeps directory names as top level folders inside
// archives instead of unpacking their contents into the root.
func WithDirectoryArchive(v bool) PathSourceOption {
	return func(s *PathSource) {
		s.directoryArchive = v
	}
}

func WithStdin(r io.Reader) PathSourceOption {
	return func(s *PathSource) {
		s.stdin = r
	}
}

func WithSourceLogger(l Logger) PathSourceOption {
	return func(s *PathSource) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewPathSource(paths []string, opts ...PathSourceOption) *PathSource {
	s := &PathSource{
		fsys:      os.DirFS("/"),
		normalize: osPath,
		mode:      ModeIndividual,
		stdin:     os.Stdin,
		logger:    nopLogger{},
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.archiveName == "" {
		s.archiveName = RandomArchiveName()
	}

	s.queue = append(s.queue, paths...)
	return s
}

func (s *PathSource) Next(ctx context.Context) (*File, error) {
	s.once.Do(func() { s.startStdin(ctx) })

	if s.mode == ModeArchive {
		return s.nextArchive(ctx)
	}

	p, ok, err := s.nextPath(ctx)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, io.EOF
	}

	return s.load(p)
}

// Wait blocks until the stdin scanner has stopped and reports its error.
func (s *PathSource) Wait() error {
	return s.group.Wait()
}

func (s *PathSource) nextArchive(ctx context.Context) (*File, error) {
	var paths []string
	for {
		p, ok, err := s.nextPath(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		paths = append(paths, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(paths) == 0 || s.done {
		s.done = true
		return nil, io.EOF
	}
	s.done = true

	s.logger.Debug("creating archive", "name", s.archiveName, "paths", len(paths))
	return buildArchive(s.fsys, paths, s.archiveName, s.directoryArchive)
}

// nextPath pops the next queued path. Once the queue reaches the stdin
// marker it waits for the background scanner.
func (s *PathSource) nextPath(ctx context.Context) (string, bool, error) {
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			s.mu.Unlock()
			return "", false, nil
		}

		head := s.queue[0]
		if head != StdinPath {
			s.queue = s.queue[1:]
			s.mu.Unlock()
			p, err := s.normalize(head)
			return p, err == nil, err
		}
		pending := s.pending
		s.mu.Unlock()

		select {
		case line, ok := <-pending:
			if !ok {
				s.mu.Lock()
				s.queue = s.queue[1:]
				s.mu.Unlock()
				if err := s.group.Wait(); err != nil {
					return "", false, err
				}
				continue
			}
			p, err := s.normalize(line)
			return p, err == nil, err
		case <-ctx.Done():
			return "", false, ctx.Err()
		}
	}
}

func (s *PathSource) startStdin(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = make(chan string)

	hasStdin := false
	for _, p := range s.queue {
		if p == StdinPath {
			hasStdin = true
			break
		}
	}

	// only the first marker reads stdin, later ones see a closed channel
	if !hasStdin || s.stdin == nil {
		close(s.pending)
		return
	}

	pending := s.pending
	stdin := s.stdin
	s.group.Go(func() error {
		defer close(pending)

		scanner := bufio.NewScanner(stdin)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			select {
			case pending <- line:
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := scanner.Err(); err != nil {
			return fmt.Errorf("%w: stdin: %w", ErrReadFile, err)
		}
		return nil
	})
}

func (s *PathSource) load(p string) (*File, error) {
	info, err := fs.Stat(s.fsys, p)
	if err != nil {
		return nil, readError(p, err)
	}

	if info.IsDir() {
		name := path.Base(p) + archiveExtension
		s.logger.Debug("creating archive", "name", name, "path", p)
		return buildArchive(s.fsys, []string{p}, name, s.directoryArchive)
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file or directory", ErrReadFile, p)
	}

	content, err := fs.ReadFile(s.fsys, p)
	if err != nil {
		return nil, readError(p, err)
	}

	return NewFile(path.Base(p), content), nil
}

func readError(p string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s does not exist, maybe check for typos", ErrReadFile, p)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %w: %s", ErrReadFile, ErrPermissionDenied, p)
	default:
		return fmt.Errorf("%w: %s: %w", ErrReadFile, p, err)
	}
}

// osPath turns an operating system path into a path on os.DirFS("/").
func osPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrInvalidPath, p, err)
	}

	rel := strings.TrimPrefix(filepath.ToSlash(abs), "/")
	if rel == "" {
		rel = "."
	}
	return rel, nil
}
