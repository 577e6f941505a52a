// Package password implements password hashing, verification, and the
// credential lifecycle policy: complexity rules, expiry computation, and
// history-based reuse rejection.
//
// # Hashing
//
// Hashes are bcrypt with a per-hash random salt. Verification always
// goes through [Hasher.Verify]; nothing in this module compares secrets
// with raw equality.
//
// # Policy
//
// The [Policy] functions are pure: complexity validation walks a fixed
// rule order and reports the first violated rule, expiry is a constant
// offset from the reference time, and the reuse check compares a
// candidate against the current hash plus a bounded history window.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords: callers supply plaintext and receive
//     hashes.
//   - Import any other secauth package.
//   - Log plaintext passwords.
package password
