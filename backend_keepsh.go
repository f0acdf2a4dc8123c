package upload

import (
	"context"
	"math"
	"strconv"
	"time"
)

const (
	keepShHost      = "free.keep.sh"
	keepShUserAgent = "curl/7.64.1"
)

// NewKeepShBackend returns the keep.sh backend. The service only answers
// with a plain link to curl like clients.
func NewKeepShBackend() *HTTPBackend {
	base := serviceBase(true, keepShHost)
	caps := Capabilities{
		MaxSize:      10 << 30,
		PreserveName: Some(true),
		MinRetention: 24 * time.Hour,
		MaxRetention: 14 * 24 * time.Hour,
		MaxDownloads: Some[int64](math.MaxInt64),
		PreservedURL: urlShape(base, "get/", 16, true),
	}

	return newHTTPBackend("keep.sh", true, keepShHost, caps, uploadKeepSh).
		WithUserAgent(keepShUserAgent)
}

func uploadKeepSh(ctx context.Context, b *HTTPBackend, req Requirements, file *File) (string, error) {
	headers := map[string]string{
		"Expires-After": strconv.FormatInt(days(EffectiveRetention(req, b.caps)), 10),
	}

	if n, ok := EffectiveMaxDownloads(req, b.caps).Get(); ok {
		headers["Max-Downloads"] = strconv.FormatInt(n, 10)
	}

	body, err := b.putFile(ctx, file, headers)
	if err != nil {
		return "", err
	}

	return firstURL(b.name, body)
}
