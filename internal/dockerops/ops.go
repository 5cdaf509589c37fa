package dockerops

import (
	"github.com/rs/zerolog"
)

// DefaultImage is the tag of the application image built by `make build`.
const DefaultImage = "montekkundan/rustapp:1.0.0"

// Ops implements the lifecycle commands on top of the Docker Engine API.
type Ops struct {
	engine Engine
	logger zerolog.Logger

	// concurrency caps parallel removals during clean.
	concurrency int
}

func New(engine Engine, logger zerolog.Logger) *Ops {
	return &Ops{
		engine:      engine,
		logger:      logger.With().Str("component", "dockerops").Logger(),
		concurrency: 4,
	}
}
