package gateway

import (
	"log/slog"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/reglet-dev/callgate/internal/handle"
)

type config struct {
	logger     *slog.Logger
	registry   *handle.Registry
	mem        memory.Allocator
	hook       CallHook
	middleware []Middleware
	policy     OverridePolicy
}

// Option configures a Gateway.
type Option func(*config)

func defaultConfig() config {
	return config{
		logger:   slog.Default(),
		registry: handle.Global(),
		mem:      memory.DefaultAllocator,
		policy:   OverrideReject,
	}
}

// WithLogger sets the logger (default: slog.Default()).
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRegistry sets the handle registry (default: the process-wide registry).
func WithRegistry(r *handle.Registry) Option {
	return func(c *config) {
		if r != nil {
			c.registry = r
		}
	}
}

// WithAllocator sets the allocator for output storage.
func WithAllocator(mem memory.Allocator) Option {
	return func(c *config) {
		if mem != nil {
			c.mem = mem
		}
	}
}

// WithHook installs a CallHook.
func WithHook(h CallHook) Option {
	return func(c *config) {
		c.hook = h
	}
}

// WithMiddleware adds method middleware.
// Middleware executes in FIFO order (first added wraps first).
func WithMiddleware(mw ...Middleware) Option {
	return func(c *config) {
		c.middleware = append(c.middleware, mw...)
	}
}

// WithOverridePolicy sets what happens when a Class registers a method name
// twice (default: OverrideReject).
func WithOverridePolicy(p OverridePolicy) Option {
	return func(c *config) {
		c.policy = p
	}
}
