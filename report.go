package upload

import (
	"sync"
	"time"

	"github.com/samber/lo"
)

// Result is the outcome of uploading one file.
type Result struct {
	File     string        `json:"file"`
	Backend  string        `json:"backend,omitempty"`
	URL      string        `json:"url,omitempty"`
	Err      error         `json:"-"`
	Duration time.Duration `json:"duration"`
}

func (r *Result) Succeeded() bool {
	return r != nil && r.Err == nil && r.URL != ""
}

// Outcome summarizes a whole run.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomePartial Outcome = "partial"
	OutcomeFailure Outcome = "failure"
)

// Report collects the results of a run in source order.
type Report struct {
	mu      sync.RWMutex
	results []*Result
}

func (r *Report) Add(result *Result) {
	if result == nil {
		return
	}
	r.mu.Lock()
	r.results = append(r.results, result)
	r.mu.Unlock()
}

func (r *Report) Results() []*Result {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Result(nil), r.results...)
}

func (r *Report) Succeeded() []*Result {
	return lo.Filter(r.Results(), func(res *Result, _ int) bool {
		return res.Succeeded()
	})
}

func (r *Report) Failed() []*Result {
	return lo.Reject(r.Results(), func(res *Result, _ int) bool {
		return res.Succeeded()
	})
}

// Outcome is success when nothing failed, failure when nothing succeeded
// and partial otherwise. An empty report is a success.
func (r *Report) Outcome() Outcome {
	results := r.Results()
	failed := len(lo.Reject(results, func(res *Result, _ int) bool {
		return res.Succeeded()
	}))

	switch {
	case failed == 0:
		return OutcomeSuccess
	case failed == len(results):
		return OutcomeFailure
	default:
		return OutcomePartial
	}
}
