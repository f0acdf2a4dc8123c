package upload

import (
	"context"
	"time"
)

const ixHost = "ix.io"

// NewIxBackend returns the ix.io paste backend, plain http only.
func NewIxBackend() *HTTPBackend {
	base := serviceBase(false, ixHost)
	caps := Capabilities{
		MaxSize:       1 << 20,
		PreserveName:  Some(false),
		MinRetention:  365 * 24 * time.Hour,
		MaxRetention:  365 * 24 * time.Hour,
		RandomizedURL: urlShape(base, "", 4, false),
	}

	return newHTTPBackend("ix", false, ixHost, caps, uploadIx)
}

func uploadIx(ctx context.Context, b *HTTPBackend, _ Requirements, file *File) (string, error) {
	body, err := b.postForm(ctx, "/", "f:1", file, nil)
	if err != nil {
		return "", err
	}
	return firstURL(b.name, body)
}
