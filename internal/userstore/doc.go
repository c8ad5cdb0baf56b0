// Package userstore holds the UserProvider implementations: an in-memory store
// for tests and local demos (package memory) and the MongoDB store used in
// production (package mongo).
//
// Both hash passwords with password.Multi, so bcrypt hashes imported from an
// older store keep verifying and are re-hashed with Argon2id on login.
package userstore
