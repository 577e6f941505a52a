// Package token issues and validates the signed session tokens that bind
// an authenticated identity to a single active session.
//
// Tokens are HS256 JWTs carrying the identity ID as subject plus the
// role, a unique session ID (jti), the identity's token version (tv),
// and a schema version (ver). Tokens with an unknown schema version are
// rejected outright so the claim layout can evolve without ambiguity.
//
// The package also owns request extraction: the raw token is read from
// the "token" header first, then an Authorization bearer value, then the
// access_token cookie, in that fixed order.
//
// # What this package must NOT do
//
//   - It must not consult any credential store; revocation checks against
//     the stored token version and session hash belong to the engine.
//   - It must not set or clear cookies.
//   - It must not accept any signing algorithm other than HS256.
package token
