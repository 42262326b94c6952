// Package password hashes and verifies account passwords with Argon2id.
//
// # Output format
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification reads the parameters back out of the stored string, so hashes
// produced under older parameters keep verifying after the configuration changes.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Password policy (length and
// character classes) is enforced at the HTTP boundary before a hash is requested.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords. Callers supply plaintext and receive hashes.
//   - Import any other trybeauth package.
//   - Log plaintext passwords or hashes.
package password
