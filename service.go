package svg2png

import "github.com/rs/zerolog"

// Service converts batches of SVG files to raster images by driving a
// headless rendering engine. A Service is safe for concurrent use; each
// batch call starts and releases its own engine instance.
type Service struct {
	cfg    serviceConfig
	engine Engine
	fs     FS
	log    zerolog.Logger
}

// New creates a Service with default configuration.
// Use options to customize behavior (e.g., WithTimeout, WithLogger).
func New(opts ...Option) *Service {
	s := &Service{
		cfg: serviceConfig{timeout: defaultTimeout},
		fs:  osFS{},
		log: zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(s)
	}

	// Create engine if not injected (e.g., by tests)
	if s.engine == nil {
		s.engine = newRodEngine(s.cfg.timeout)
	}

	return s
}
