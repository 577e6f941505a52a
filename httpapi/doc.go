// Package httpapi exposes the authentication engine over HTTP.
//
// The package owns the JSON request and response shapes, the cookie
// policy, and the mapping from engine errors to HTTP status codes.
// Handlers never inspect passwords or tokens beyond forwarding them to
// the engine.
//
// # Cookie policy
//
// A successful login or registration sets two cookies. The session
// cookie is HttpOnly and carries the signed token; the CSRF cookie is
// readable by scripts so clients can echo it back in the X-CSRF-Token
// header. Both are scoped to "/" with SameSite=Lax and expire together
// with the session. Logout and password changes clear both.
//
// # What this package must NOT do
//
//   - Never log request bodies, passwords, tokens, or reset tokens.
//   - Never reveal whether an email is registered. Login failures and
//     forgot-password requests return the same shape either way.
//   - Never bypass the engine: no direct store access from handlers.
package httpapi
