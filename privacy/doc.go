// Package privacy implements reversible field-level encryption for
// personally identifying data at rest, plus the deterministic lookup
// hash used to search records whose plaintext is never stored.
//
// # Envelope format
//
// Encoded values are tagged, delimited envelopes:
//
//	v1:<salt>:<iv>:<tag>:<ciphertext>
//
// with every component base64-encoded. The per-value key is derived from
// the master secret and the random salt via PBKDF2-SHA512 (100,000
// iterations) and used with AES-256-GCM, so tampering with any component
// fails closed on decode. Values without the version tag are treated as
// legacy plaintext and passed through unchanged on decode; this is a
// migration affordance only and never applies to freshly encoded data.
//
// # What this package must NOT do
//
//   - Persist or return partially decrypted data: decode either yields
//     the exact original plaintext or an error.
//   - Fall back to a built-in secret. Secret policy (production vs
//     development) is decided by the caller.
//   - Import any other secauth package.
package privacy
