package upload

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/goliatone/go-print"
	"github.com/samber/lo"
)

var urlPattern = regexp.MustCompile(`(?i)https?://[-\]_.~!*'();:@&=+$,/?%#\[A-Za-z0-9]+`)

type httpUploadFunc func(ctx context.Context, b *HTTPBackend, req Requirements, file *File) (string, error)

type httpFileCheckFunc func(b *HTTPBackend, req Requirements, file *File) bool

// HTTPBackend talks to one file hosting service over http or https. The
// service specific parts are the capabilities and the upload function.
type HTTPBackend struct {
	name      string
	baseURL   string
	caps      Capabilities
	blacklist []string
	userAgent string
	client    *resty.Client
	logger    Logger
	upload    httpUploadFunc
	fileCheck httpFileCheckFunc
}

var _ Backend = &HTTPBackend{}

func newHTTPBackend(name string, ssl bool, host string, caps Capabilities, upload httpUploadFunc) *HTTPBackend {
	caps.HTTP = !ssl
	caps.HTTPS = ssl

	b := &HTTPBackend{
		name:      name,
		caps:      caps,
		userAgent: DefaultUserAgent,
		logger:    &DefaultLogger{},
		upload:    upload,
	}

	return b.WithBaseURL(serviceBase(ssl, host))
}

// WithBaseURL points the backend at another address, such as a mirror or
// a test server. Capabilities are left untouched.
func (b *HTTPBackend) WithBaseURL(base string) *HTTPBackend {
	b.baseURL = strings.TrimSuffix(base, "/")
	b.client = resty.New().
		SetBaseURL(b.baseURL).
		SetHeader("Accept", "*/*").
		SetHeader("User-Agent", b.userAgent)
	return b
}

func (b *HTTPBackend) WithLogger(l Logger) *HTTPBackend {
	if l != nil {
		b.logger = l
	}
	return b
}

func (b *HTTPBackend) WithUserAgent(agent string) *HTTPBackend {
	b.userAgent = agent
	b.client.SetHeader("User-Agent", agent)
	return b
}

func (b *HTTPBackend) withBlacklist(mimetypes ...string) *HTTPBackend {
	b.blacklist = append(b.blacklist, mimetypes...)
	return b
}

func (b *HTTPBackend) withFileCheck(check httpFileCheckFunc) *HTTPBackend {
	b.fileCheck = check
	return b
}

func (b *HTTPBackend) Name() string {
	return b.name
}

func (b *HTTPBackend) Capabilities() Capabilities {
	return b.caps
}

func (b *HTTPBackend) StaticSettingsCheck(req Requirements) bool {
	if !Satisfies(req, b.caps) {
		b.logger.Debug("not all required features are supported", "backend", b.name)
		return false
	}
	return true
}

func (b *HTTPBackend) StaticFileCheck(req Requirements, file *File) bool {
	if file.Size() > b.caps.MaxSize {
		b.logger.Info("file exceeds the size limit", "backend", b.name, "file", file.Name(), "limit", b.caps.MaxSize)
		return false
	}

	if lo.Contains(b.blacklist, file.Mimetype()) {
		b.logger.Info("mimetype not allowed", "backend", b.name, "file", file.Name(), "mimetype", file.Mimetype())
		return false
	}

	preserve := DeterminePreserveName(req, b.caps)
	nameLength := 0
	if preserve {
		nameLength = len(url.PathEscape(file.Name()))
	}

	if !shapeSatisfies(req, b.caps.shape(preserve), nameLength) {
		b.logger.Debug("predicted url does not meet the requirements", "backend", b.name, "file", file.Name())
		return false
	}

	if b.fileCheck != nil {
		return b.fileCheck(b, req, file)
	}

	return true
}

// CheckReachable posts an empty request to the service root. Any HTTP
// answer counts as reachable.
func (b *HTTPBackend) CheckReachable(ctx context.Context, _ Requirements) error {
	resp, err := b.client.R().SetContext(ctx).Post("/")
	if err != nil {
		return fmt.Errorf("%s is not reachable: %w", b.name, err)
	}

	b.logger.Debug("received response", "backend", b.name, "status", resp.StatusCode())
	return nil
}

func (b *HTTPBackend) UploadFile(ctx context.Context, req Requirements, file *File) (string, error) {
	if b.upload == nil {
		return "", fmt.Errorf("%s: upload not supported", b.name)
	}
	return b.upload(ctx, b, req, file)
}

func (b *HTTPBackend) postForm(ctx context.Context, path, field string, file *File, form map[string]string) (string, error) {
	r := b.client.R().
		SetContext(ctx).
		SetMultipartField(field, file.Name(), file.Mimetype(), file.Reader())

	if len(form) > 0 {
		r.SetMultipartFormData(form)
	}

	resp, err := r.Post(path)
	return b.readBody(resp, err)
}

func (b *HTTPBackend) putFile(ctx context.Context, file *File, headers map[string]string) (string, error) {
	resp, err := b.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", file.Mimetype()).
		SetHeaders(headers).
		SetBody(file.Content()).
		Put("/" + url.PathEscape(file.Name()))

	return b.readBody(resp, err)
}

func (b *HTTPBackend) readBody(resp *resty.Response, err error) (string, error) {
	if err != nil {
		return "", fmt.Errorf("request to %s failed: %w", b.name, err)
	}

	body := resp.String()
	b.logger.Debug("received response", "backend", b.name, "status", resp.StatusCode(), "body", print.MaybeHighlightJSON(body))

	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("%w: %s answered with status %d", ErrUnexpectedResponse, b.name, resp.StatusCode())
	}

	return body, nil
}

func findURLs(body string) []string {
	return urlPattern.FindAllString(body, -1)
}

func firstURL(name, body string) (string, error) {
	urls := findURLs(body)
	if len(urls) == 0 {
		return "", fmt.Errorf("%w: %s response did not contain any urls", ErrUnexpectedResponse, name)
	}
	return urls[0], nil
}

func serviceBase(ssl bool, host string) string {
	if ssl {
		return "https://" + host
	}
	return "http://" + host
}

// urlShape predicts the URL shape for a service whose links look like
// base/prefix + random part, followed by "/name" when the name is kept.
func urlShape(base, prefix string, random int, preserve bool) URLShape {
	length := len(base) + 1 + len(prefix) + random
	if preserve {
		length++
	}
	return URLShape{RandomPart: random, Length: length}
}

func days(d time.Duration) int64 {
	return int64(d / (24 * time.Hour))
}
