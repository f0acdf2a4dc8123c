package upload

import (
	"context"
	"io"
	"sync"
)

// FileSource yields the files of a run one at a time. Next returns io.EOF
// once the source is exhausted and keeps doing so on later calls.
type FileSource interface {
	Next(ctx context.Context) (*File, error)
}

// SliceSource serves a fixed list of files in order.
type SliceSource struct {
	mu    sync.Mutex
	files []*File
	pos   int
}

func NewSliceSource(files ...*File) *SliceSource {
	return &SliceSource{files: files}
}

func (s *SliceSource) Next(ctx context.Context) (*File, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pos >= len(s.files) {
		return nil, io.EOF
	}

	f := s.files[s.pos]
	s.pos++
	return f, nil
}
