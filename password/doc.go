// Package password hashes and verifies user passwords.
//
// New hashes are Argon2id in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Existing bcrypt hashes ($2a$, $2b$, $2y$) imported from older user stores keep
// verifying through [Multi], and [Multi.NeedsRehash] reports them so the caller
// can re-hash with Argon2id after the next successful login.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Where hashes are stored and
// when they are upgraded is decided by the user store.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords.
//   - Import any other cartauth package.
//   - Log plaintext passwords.
package password
