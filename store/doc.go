// Package store provides IdentityStore implementations.
//
// Memory is the in-process implementation. It keeps email and name
// encrypted at rest through the privacy codec and indexes records only
// by identity ID, email hash, and reset token hash; plaintext email is
// never a lookup key.
package store
