// Package middleware provides HTTP middleware components for the GovAI server.
//
// Available middleware:
//   - RateLimiter: per-client token bucket limiting (default 10 requests per minute)
//   - RequestID: attaches an X-Request-ID to every request context
//
// Usage:
//
//	rl := middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
//	defer rl.Stop()
//	handler = middleware.RequestID(rl.Middleware(handler))
package middleware
