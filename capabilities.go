package upload

import (
	"math"
	"time"
)

// URLShape describes the URLs a backend hands out in one naming mode.
// In preserve-name mode Length does not include the file name itself.
// A zero Length means the shape is unknown.
type URLShape struct {
	RandomPart int
	Length     int
}

func (s URLShape) known() bool {
	return s.Length > 0
}

// Capabilities are fixed when a backend is built and never change afterwards.
type Capabilities struct {
	HTTP    bool
	HTTPS   bool
	MaxSize int64
	// PreserveName unset means the backend can do both.
	PreserveName Opt[bool]
	MinRetention time.Duration
	MaxRetention time.Duration
	// MaxDownloads set means files can be deleted after at most this many
	// downloads. Not deleting is always possible.
	MaxDownloads  Opt[int64]
	PreservedURL  URLShape
	RandomizedURL URLShape
}

// Satisfies reports whether caps does not contradict any set field of req.
func Satisfies(req Requirements, caps Capabilities) bool {
	if v, ok := req.HTTP.Get(); ok {
		if v && !caps.HTTP {
			return false
		}
		if !v && !caps.HTTPS {
			return false
		}
	}

	if v, ok := req.HTTPS.Get(); ok {
		if v && !caps.HTTPS {
			return false
		}
		if !v && !caps.HTTP {
			return false
		}
	}

	if size, ok := req.MinSize.Get(); ok && size > caps.MaxSize {
		return false
	}

	if want, ok := req.PreserveName.Get(); ok {
		if has, fixed := caps.PreserveName.Get(); fixed && has != want {
			return false
		}
	}

	if min, ok := req.MinRetention.Get(); ok && min > caps.MaxRetention {
		return false
	}

	if max, ok := req.MaxRetention.Get(); ok && max < caps.MinRetention {
		return false
	}

	if want, ok := req.MaxDownloads.Get(); ok {
		ceiling, limited := caps.MaxDownloads.Get()
		if !limited || want > ceiling {
			return false
		}
	}

	if req.hasURLShape() {
		preserve := DeterminePreserveName(req, caps)
		return shapeSatisfies(req, caps.shape(preserve), 0)
	}

	return true
}

// DeterminePreserveName picks the naming mode used for an upload: the
// requirement wins, then a fixed backend policy, then whichever mode meets
// the URL shape requirements, preserving the name when both do.
func DeterminePreserveName(req Requirements, caps Capabilities) bool {
	if v, ok := req.PreserveName.Get(); ok {
		return v
	}

	if v, ok := caps.PreserveName.Get(); ok {
		return v
	}

	if shapeSatisfies(req, caps.PreservedURL, 0) {
		return true
	}

	if shapeSatisfies(req, caps.RandomizedURL, 0) {
		return false
	}

	return true
}

// EffectiveRetention is the retention requested from the backend: its
// maximum, lowered to the required maximum when one is set.
func EffectiveRetention(req Requirements, caps Capabilities) time.Duration {
	period := caps.MaxRetention
	if max, ok := req.MaxRetention.Get(); ok && max < period {
		period = max
	}
	return period
}

// EffectiveMaxDownloads returns the download limit to request. It is unset
// when the user did not ask for one.
func EffectiveMaxDownloads(req Requirements, caps Capabilities) Opt[int64] {
	want, ok := req.MaxDownloads.Get()
	if !ok {
		return None[int64]()
	}

	limit := int64(math.MaxInt64)
	if ceiling, capped := caps.MaxDownloads.Get(); capped {
		limit = ceiling
	}

	if want < limit {
		limit = want
	}

	return Some(limit)
}

// PredictURLLength returns the expected URL length for fileName, or zero
// when the backend does not publish its URL shape.
func (c Capabilities) PredictURLLength(preserve bool, fileName string) int {
	shape := c.shape(preserve)
	if !shape.known() {
		return 0
	}

	if preserve {
		return shape.Length + len(fileName)
	}

	return shape.Length
}

func (c Capabilities) shape(preserve bool) URLShape {
	if preserve {
		return c.PreservedURL
	}
	return c.RandomizedURL
}

func shapeSatisfies(req Requirements, shape URLShape, nameLength int) bool {
	if !req.hasURLShape() {
		return true
	}

	if !shape.known() {
		return false
	}

	if min, ok := req.MinRandomPart.Get(); ok && shape.RandomPart < min {
		return false
	}

	if max, ok := req.MaxRandomPart.Get(); ok && shape.RandomPart > max {
		return false
	}

	if max, ok := req.MaxURLLength.Get(); ok && shape.Length+nameLength > max {
		return false
	}

	return true
}
