package auth

import (
	"encoding/hex"

	"golang.org/x/crypto/sha3"
)

// HashIdentity computes the deterministic one-way digest that stands in for a
// Google identity in the users table.
//
// WHY A PLAIN (UNSALTED) DIGEST?
// The whole point of the column is lookup: on every OAuth login we need
// `WHERE hashed_google_id = ?` to find the same row again. A salted,
// slow hash like bcrypt produces a different output every time, which would
// make that lookup impossible. Determinism is the requirement here, and the
// input (Google's subject ID) is not a low-entropy secret like a password,
// so rainbow-table resistance isn't the threat model — unlinkability of the
// stored value from the Google account is, and a one-way digest gives us
// that.
//
// SHA3-256 is collision-resistant, so two distinct Google accounts cannot
// end up sharing a row.
func HashIdentity(subject string) string {
	sum := sha3.Sum256([]byte(subject))
	return hex.EncodeToString(sum[:])
}
