package upload

import (
	"time"

	gerrors "github.com/goliatone/go-errors"
)

// Requirements are the user declared constraints a backend must meet.
// Every field is optional; an unset field means "don't care".
type Requirements struct {
	HTTP          Opt[bool]
	HTTPS         Opt[bool]
	MinSize       Opt[int64]
	PreserveName  Opt[bool]
	MinRetention  Opt[time.Duration]
	MaxRetention  Opt[time.Duration]
	MaxDownloads  Opt[int64]
	MinRandomPart Opt[int]
	MaxRandomPart Opt[int]
	MaxURLLength  Opt[int]
}

type RequirementOption func(*Requirements)

func RequireHTTPS() RequirementOption {
	return func(r *Requirements) {
		r.HTTPS = Some(true)
		r.HTTP = Some(false)
	}
}

func RequireHTTP() RequirementOption {
	return func(r *Requirements) {
		r.HTTP = Some(true)
		r.HTTPS = Some(false)
	}
}

// ForbidHTTPS only rules out https, plain http must then be available.
func ForbidHTTPS() RequirementOption {
	return func(r *Requirements) { r.HTTPS = Some(false) }
}

func ForbidHTTP() RequirementOption {
	return func(r *Requirements) { r.HTTP = Some(false) }
}

func RequireMinSize(size int64) RequirementOption {
	return func(r *Requirements) { r.MinSize = Some(size) }
}

func RequirePreserveName() RequirementOption {
	return func(r *Requirements) { r.PreserveName = Some(true) }
}

func RequireRandomName() RequirementOption {
	return func(r *Requirements) { r.PreserveName = Some(false) }
}

func RequireMinRetention(d time.Duration) RequirementOption {
	return func(r *Requirements) { r.MinRetention = Some(d) }
}

func RequireMaxRetention(d time.Duration) RequirementOption {
	return func(r *Requirements) { r.MaxRetention = Some(d) }
}

func RequireRetention(min, max time.Duration) RequirementOption {
	return func(r *Requirements) {
		r.MinRetention = Some(min)
		r.MaxRetention = Some(max)
	}
}

func RequireMaxDownloads(n int64) RequirementOption {
	return func(r *Requirements) { r.MaxDownloads = Some(n) }
}

func RequireMinRandomPart(n int) RequirementOption {
	return func(r *Requirements) { r.MinRandomPart = Some(n) }
}

// RequireMaxRandomPart caps the random part of the URL. Zero asks for URLs
// without any random part.
func RequireMaxRandomPart(n int) RequirementOption {
	return func(r *Requirements) { r.MaxRandomPart = Some(n) }
}

func RequireMaxURLLength(n int) RequirementOption {
	return func(r *Requirements) { r.MaxURLLength = Some(n) }
}

// NewRequirements builds an immutable Requirements value and rejects
// contradictory combinations.
func NewRequirements(opts ...RequirementOption) (Requirements, error) {
	r := Requirements{}
	for _, opt := range opts {
		opt(&r)
	}

	if err := r.Validate(); err != nil {
		return Requirements{}, err
	}

	return r, nil
}

// Validate reports configuration errors. No backend can satisfy a
// Requirements value that fails validation.
func (r Requirements) Validate() error {
	var fields []gerrors.FieldError

	http, httpSet := r.HTTP.Get()
	https, httpsSet := r.HTTPS.Get()
	if httpSet && httpsSet && !http && !https {
		fields = append(fields, gerrors.FieldError{
			Field:   "transport",
			Message: "http and https cannot both be forbidden",
		})
	}

	if size, ok := r.MinSize.Get(); ok && size < 0 {
		fields = append(fields, gerrors.FieldError{
			Field:   "min_size",
			Message: "must not be negative",
			Value:   size,
		})
	}

	minRet, minOK := r.MinRetention.Get()
	maxRet, maxOK := r.MaxRetention.Get()
	if minOK && minRet < 0 {
		fields = append(fields, gerrors.FieldError{
			Field:   "min_retention",
			Message: "must not be negative",
			Value:   minRet,
		})
	}
	if maxOK && maxRet <= 0 {
		fields = append(fields, gerrors.FieldError{
			Field:   "max_retention",
			Message: "must be greater than zero",
			Value:   maxRet,
		})
	}
	if minOK && maxOK && maxRet < minRet {
		fields = append(fields, gerrors.FieldError{
			Field:   "max_retention",
			Message: "must not be lower than min_retention",
			Value:   maxRet,
		})
	}

	if n, ok := r.MaxDownloads.Get(); ok && n < 1 {
		fields = append(fields, gerrors.FieldError{
			Field:   "max_downloads",
			Message: "must be at least 1",
			Value:   n,
		})
	}

	minRand, minRandOK := r.MinRandomPart.Get()
	maxRand, maxRandOK := r.MaxRandomPart.Get()
	if minRandOK && maxRandOK && maxRand < minRand {
		fields = append(fields, gerrors.FieldError{
			Field:   "max_random_part",
			Message: "must not be lower than min_random_part",
			Value:   maxRand,
		})
	}

	if n, ok := r.MaxURLLength.Get(); ok && n <= 0 {
		fields = append(fields, gerrors.FieldError{
			Field:   "max_url_length",
			Message: "must be greater than zero",
			Value:   n,
		})
	}

	if len(fields) == 0 {
		return nil
	}

	return gerrors.NewValidation("invalid requirements", fields...).
		WithCode(400).
		WithTextCode("INVALID_REQUIREMENTS")
}

func (r Requirements) hasURLShape() bool {
	return r.MinRandomPart.IsSet() || r.MaxRandomPart.IsSet() || r.MaxURLLength.IsSet()
}
