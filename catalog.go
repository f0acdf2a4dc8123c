package upload

// DefaultBackends returns the built in hosting services in their default
// priority order. The https variant of a service comes before its plain
// http variant.
func DefaultBackends(logger Logger) []Backend {
	services := []*HTTPBackend{
		NewNullPointerBackend(true),
		NewNullPointerBackend(false),
		NewOshiBackend(true),
		NewOshiBackend(false),
		NewTransferShBackend(true),
		NewTransferShBackend(false),
		NewFileIOBackend(),
		NewKeepShBackend(),
		NewIxBackend(),
	}

	backends := make([]Backend, 0, len(services))
	for _, s := range services {
		backends = append(backends, s.WithLogger(logger))
	}

	return backends
}
