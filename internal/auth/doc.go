// Package auth provides API authentication for typecd.
//
// The model is a single-operator one: the API admin key (plaintext or an
// Argon2id hash in config) is exchanged for a short-lived HS256 JWT, and
// mutating routes require that bearer token. There are no user accounts,
// sessions or refresh tokens; a token that expires is simply reissued
// against the admin key.
package auth
