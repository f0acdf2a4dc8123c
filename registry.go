package upload

import (
	"fmt"

	"github.com/samber/lo"
)

// Rank orders pool for one run. When wanted is not empty only backends
// with those names are kept, grouped in wanted order while keeping their
// pool order inside a group. Excluded names are then removed and the rest
// is filtered by StaticSettingsCheck. The returned order is the priority
// used for the whole run.
func Rank(pool []Backend, wanted, excluded []string, req Requirements, logger Logger) ([]Backend, error) {
	if logger == nil {
		logger = nopLogger{}
	}

	ordered := pool
	if len(wanted) > 0 {
		var err error
		if ordered, err = selectWanted(pool, wanted); err != nil {
			return nil, err
		}
	}

	ordered = lo.Reject(ordered, func(b Backend, _ int) bool {
		return lo.Contains(excluded, b.Name())
	})

	eligible := lo.Filter(ordered, func(b Backend, _ int) bool {
		if b.StaticSettingsCheck(req) {
			logger.Debug("backend has all required features", "backend", b.Name())
			return true
		}
		logger.Debug("backend does not have all required features", "backend", b.Name())
		return false
	})

	return eligible, nil
}

func selectWanted(pool []Backend, wanted []string) ([]Backend, error) {
	remaining := append([]Backend(nil), pool...)
	out := make([]Backend, 0, len(pool))

	for _, name := range wanted {
		matched, rest := lo.FilterReject(remaining, func(b Backend, _ int) bool {
			return b.Name() == name
		})

		if len(matched) == 0 {
			return nil, fmt.Errorf("%w: %q, maybe check for a typo in its name", ErrBackendNotFound, name)
		}

		out = append(out, matched...)
		remaining = rest
	}

	return out, nil
}

// Names returns the backend names in order.
func Names(backends []Backend) []string {
	return lo.Map(backends, func(b Backend, _ int) string {
		return b.Name()
	})
}
