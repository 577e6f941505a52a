// Package secauth is the authentication and session-security core of
// the velvetcart platform: password-based login with single active
// sessions, field-level encryption of identity data at rest, password
// lifecycle enforcement, and brute-force lockouts.
//
// The package is designed for concurrent server workloads: Engine
// methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Architecture boundaries
//
// secauth is the public surface. It exposes [Engine], [Builder],
// [Config], the [IdentityStore] contract, and value types. The codec,
// token, policy, and throttle mechanics live in the privacy, token,
// password, and throttle sub-packages; the HTTP surface lives in
// httpapi and middleware.
//
// # What this package must NOT do
//
//   - Expose plaintext credentials, raw emails, or session IDs through
//     audit events or errors.
//   - Distinguish unknown emails from wrong passwords in any
//     caller-visible way.
//   - Perform I/O outside of Engine methods (construction via Builder
//     is allocation-only until Build).
//
// # Session model
//
// Each identity has at most one active session: the stored session
// hash names the session ID of the last issued token, and the stored
// token version gates every outstanding token. Logout and password
// changes bump the version, invalidating everything at once.
package secauth
