// Package auth holds the authentication core: password hashing, signed
// session tokens, and the role gate. It depends only on the domain types and
// a read-only user lookup.
package auth
