// Package throttle enforces the brute-force lockout policy for
// credential endpoints.
//
// Attempts are tracked per key, where a key combines a scope (the
// endpoint family), the client IP, and the normalized email. Failures
// inside a sliding window accumulate; reaching the attempt budget locks
// the key for the lockout duration, and a successful attempt clears the
// key entirely.
//
// State lives behind the [Store] interface. [MemoryStore] serves a
// single process; [RedisStore] shares state across instances using one
// atomic server-side script per recorded failure.
//
// # What this package must NOT do
//
//   - It must not inspect credentials; callers report only success or
//     failure.
//   - It must not write HTTP responses; callers map [ThrottledError] to
//     their own surface.
package throttle
