package middleware

import (
	"log/slog"
	"net/http"
)

// Middleware represents a middleware function
type Middleware func(http.Handler) http.Handler

// Chain represents a middleware chain
type Chain struct {
	middlewares []Middleware
}

// New creates a new middleware chain
func New(middlewares ...Middleware) Chain {
	return Chain{middlewares: middlewares}
}

// Then adds more middleware to the chain
func (c Chain) Then(middlewares ...Middleware) Chain {
	return Chain{middlewares: append(c.middlewares, middlewares...)}
}

// Handler applies all middleware in the chain to the given handler
func (c Chain) Handler(handler http.Handler) http.Handler {
	for i := len(c.middlewares) - 1; i >= 0; i-- {
		handler = c.middlewares[i](handler)
	}

	return handler
}

// MiddlewareSet contains all configured middleware for easy composition
type MiddlewareSet struct {
	Recovery Middleware
	Logging  Middleware
}

// NewMiddlewareSet creates a complete set of middleware with proper dependencies
func NewMiddlewareSet(logger *slog.Logger) MiddlewareSet {
	return MiddlewareSet{
		Recovery: NewRecoveryMiddleware(logger),
		Logging:  NewLoggingMiddleware(logger),
	}
}

// DefaultChain returns the standard middleware chain for the proxy route
func (ms MiddlewareSet) DefaultChain() Chain {
	return New(
		ms.Recovery,
		ms.Logging,
	)
}

// HealthChain returns the middleware chain for the health endpoint; it
// skips request logging to keep liveness-probe traffic out of the log
// stream.
func (ms MiddlewareSet) HealthChain() Chain {
	return New(
		ms.Recovery,
	)
}
