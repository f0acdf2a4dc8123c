package upload

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

const oshiHost = "oshi.at"

// NewOshiBackend returns the oshi.at backend. Files can be kept from one
// minute up to 90 days and may be destroyed after the first download.
func NewOshiBackend(ssl bool) *HTTPBackend {
	name := "oshi"
	if !ssl {
		name = "oshi (HTTP)"
	}

	base := serviceBase(ssl, oshiHost)
	caps := Capabilities{
		MaxSize:       512 << 20,
		MinRetention:  time.Minute,
		MaxRetention:  90 * 24 * time.Hour,
		MaxDownloads:  Some[int64](1),
		PreservedURL:  urlShape(base, "", 6, true),
		RandomizedURL: urlShape(base, "", 6, false),
	}

	return newHTTPBackend(name, ssl, oshiHost, caps, uploadOshi)
}

func uploadOshi(ctx context.Context, b *HTTPBackend, req Requirements, file *File) (string, error) {
	retention := EffectiveRetention(req, b.caps)

	form := map[string]string{
		"expire": strconv.FormatInt(int64(retention/time.Minute), 10),
	}

	if EffectiveMaxDownloads(req, b.caps).IsSet() {
		form["autodestroy"] = "1"
	}

	if DeterminePreserveName(req, b.caps) {
		form["shorturl"] = "0"
		form["randomizefn"] = "0"
	} else {
		form["shorturl"] = "1"
		form["randomizefn"] = "1"
	}

	body, err := b.postForm(ctx, "/", "f", file, form)
	if err != nil {
		return "", err
	}

	// The first link manages the upload, the second one downloads it.
	urls := findURLs(body)
	if len(urls) != 2 {
		return "", fmt.Errorf("%w: %s answered with %d urls", ErrUnexpectedResponse, b.name, len(urls))
	}

	return urls[1], nil
}
