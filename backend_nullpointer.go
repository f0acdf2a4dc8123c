package upload

import (
	"context"
	"math"
	"time"
)

const nullPointerHost = "0x0.st"

var nullPointerBlacklist = []string{
	"application/x-dosexec",
	"application/x-executable",
	"application/x-hdf5",
	"application/vnd.android.package-archive",
	"application/java-archive",
	"application/java-vm",
}

// NewNullPointerBackend returns the 0x0.st backend. Names are always
// randomized and the retention shrinks as the file grows.
func NewNullPointerBackend(ssl bool) *HTTPBackend {
	name := "THE NULL POINTER"
	if !ssl {
		name = "THE NULL POINTER (HTTP)"
	}

	base := serviceBase(ssl, nullPointerHost)
	caps := Capabilities{
		MaxSize:       512 << 20,
		PreserveName:  Some(false),
		MinRetention:  30 * 24 * time.Hour,
		MaxRetention:  365 * 24 * time.Hour,
		RandomizedURL: urlShape(base, "", 4, false),
	}

	return newHTTPBackend(name, ssl, nullPointerHost, caps, uploadNullPointer).
		withBlacklist(nullPointerBlacklist...).
		withFileCheck(checkNullPointerRetention)
}

func uploadNullPointer(ctx context.Context, b *HTTPBackend, _ Requirements, file *File) (string, error) {
	body, err := b.postForm(ctx, "/", "file", file, nil)
	if err != nil {
		return "", err
	}
	return firstURL(b.name, body)
}

func checkNullPointerRetention(b *HTTPBackend, req Requirements, file *File) bool {
	retention := nullPointerRetention(b.caps, file.Size())

	if min, ok := req.MinRetention.Get(); ok && min > retention {
		b.logger.Info("file too large for the required retention", "backend", b.name, "file", file.Name())
		return false
	}

	if max, ok := req.MaxRetention.Get(); ok && max < retention {
		b.logger.Info("file would be kept longer than allowed", "backend", b.name, "file", file.Name())
		return false
	}

	return true
}

// nullPointerRetention is min + (max - min) * (1 - size/maxSize)^3,
// clamped to the supported range.
func nullPointerRetention(caps Capabilities, size int64) time.Duration {
	ratio := float64(size) / float64(caps.MaxSize)
	spread := float64(caps.MaxRetention - caps.MinRetention)
	retention := caps.MinRetention + time.Duration(spread*math.Pow(1-ratio, 3))

	switch {
	case retention < caps.MinRetention:
		return caps.MinRetention
	case retention > caps.MaxRetention:
		return caps.MaxRetention
	default:
		return retention
	}
}
