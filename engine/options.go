package engine

import (
	"log"
	"runtime"
)

const defaultTileRows = 16

type config struct {
	workers  int
	tileRows int
	logger   *log.Logger
}

func defaultConfig() config {
	return config{
		workers:  runtime.GOMAXPROCS(0),
		tileRows: defaultTileRows,
		logger:   log.Default(),
	}
}

// Option configures an Engine.
type Option func(*config)

// WithWorkers sets how many goroutines one generation renders on.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithTileRows sets the height of the row bands handed to workers.
// Values below 1 are ignored.
func WithTileRows(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.tileRows = n
		}
	}
}

// WithLogger replaces the default logger.
func WithLogger(l *log.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}
