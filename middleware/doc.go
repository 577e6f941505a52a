// Package middleware provides the HTTP guards that sit between the
// router and the handlers: request metadata capture, session
// authentication, role gating, double-submit CSRF validation, and
// per-client rate limiting.
//
// # Guards
//
//   - [Metadata] lifts client IP and User-Agent into the context.
//   - [Authenticate] extracts the session token, calls
//     Engine.Validate, and injects the principal.
//   - [RequireRole] gates a subtree on the principal's role.
//   - [CSRF] is the double-submit cookie check on state-changing
//     requests.
//   - [RateLimiter] is a per-client token bucket.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Engine calls. It does
// NOT implement authentication logic itself; all decisions are
// delegated to Engine.Validate.
//
// # What this package must NOT do
//
//   - Parse or create session tokens directly (delegates to Engine).
//   - Set session cookies (package httpapi owns cookie writes).
//   - Make authorization decisions beyond role membership.
package middleware
