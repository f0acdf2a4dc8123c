package upload

import (
	"context"
	"fmt"
	"time"
)

const fileIOHost = "file.io"

// NewFileIOBackend returns the file.io backend, https only.
func NewFileIOBackend() *HTTPBackend {
	base := serviceBase(true, fileIOHost)
	caps := Capabilities{
		MaxSize:       100 << 20,
		PreserveName:  Some(false),
		MinRetention:  24 * time.Hour,
		MaxRetention:  365 * 24 * time.Hour,
		RandomizedURL: urlShape(base, "", 12, false),
	}

	return newHTTPBackend("file.io", true, fileIOHost, caps, uploadFileIO)
}

func uploadFileIO(ctx context.Context, b *HTTPBackend, req Requirements, file *File) (string, error) {
	path := fmt.Sprintf("/?expires=%dd", days(EffectiveRetention(req, b.caps)))

	body, err := b.postForm(ctx, path, "file", file, nil)
	if err != nil {
		return "", err
	}

	return firstURL(b.name, body)
}
