// Package password hashes and verifies account passwords.
//
// Two encodings are understood. bcrypt hashes use the modular crypt form ($2a$, $2b$, $2y$)
// and are the default. Argon2id hashes use the PHC string form:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// A [Scheme] hashes new passwords with one configured algorithm and verifies stored hashes
// of either kind, so switching the configured algorithm does not lock out existing accounts.
//
// This package never stores passwords and never logs plaintext or hashes.
package password
