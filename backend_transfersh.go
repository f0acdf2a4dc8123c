package upload

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const transferShHost = "transfer.sh"

// NewTransferShBackend returns the transfer.sh backend. It always keeps
// the file name and its links point to a preview page unless "get/" is
// inserted after the host.
func NewTransferShBackend(ssl bool) *HTTPBackend {
	name := "transfer.sh"
	if !ssl {
		name = "transfer.sh (HTTP)"
	}

	caps := Capabilities{
		MaxSize:      10 << 30,
		PreserveName: Some(true),
		MinRetention: 24 * time.Hour,
		MaxRetention: 14 * 24 * time.Hour,
		MaxDownloads: Some[int64](math.MaxInt64),
	}

	return newHTTPBackend(name, ssl, transferShHost, caps, uploadTransferSh)
}

func uploadTransferSh(ctx context.Context, b *HTTPBackend, req Requirements, file *File) (string, error) {
	headers := map[string]string{
		"Max-Days": strconv.FormatInt(days(EffectiveRetention(req, b.caps)), 10),
	}

	if n, ok := EffectiveMaxDownloads(req, b.caps).Get(); ok {
		headers["Max-Downloads"] = strconv.FormatInt(n, 10)
	}

	body, err := b.putFile(ctx, file, headers)
	if err != nil {
		return "", err
	}

	link, err := firstURL(b.name, body)
	if err != nil {
		return "", err
	}

	return directLink(b.name, link)
}

func directLink(name, link string) (string, error) {
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("%w: %s returned a malformed url %q", ErrUnexpectedResponse, name, link)
	}

	u.Path = "/get/" + strings.TrimPrefix(u.Path, "/")
	if u.RawPath != "" {
		u.RawPath = "/get/" + strings.TrimPrefix(u.RawPath, "/")
	}

	return u.String(), nil
}
