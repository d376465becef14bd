package analytics

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"

	"golang.org/x/crypto/blake2b"
)

// sessionHashLen is the length of the stored hex digest. Truncation keeps
// the column compact while leaving 64 bits of digest, which is plenty for
// grouping events into sessions.
const sessionHashLen = 16

// SessionHasher produces the one-way session-id digests stored with
// events. Raw session ids must never reach storage; the digest preserves
// the ability to group events into sessions for funnel and retention math
// without identifying the subject behind a session.
//
// With a pepper configured the digest is a keyed BLAKE2b hash, so an
// attacker with a database dump cannot run an offline dictionary attack
// against guessable session ids. Without a pepper it falls back to plain
// SHA-256. Unlike flag bucketing, session hashing may depend on a secret:
// it never needs to be recomputed by parties that lack the key.
type SessionHasher struct {
	pepper []byte
}

// NewSessionHasher creates a hasher. An empty pepper selects the unkeyed
// SHA-256 fallback.
func NewSessionHasher(pepper string) *SessionHasher {
	if pepper == "" {
		return &SessionHasher{}
	}
	// Digest the pepper down to a fixed-size key so any pepper length is
	// accepted.
	key := sha256.Sum256([]byte(pepper))
	return &SessionHasher{pepper: key[:]}
}

// Hash returns the truncated hex digest of sessionID. Identical inputs
// always produce identical digests for a given pepper.
func (h *SessionHasher) Hash(sessionID string) string {
	var digest hash.Hash
	if len(h.pepper) > 0 {
		// Key length is fixed at 32 bytes, New256 cannot fail.
		digest, _ = blake2b.New256(h.pepper)
	} else {
		digest = sha256.New()
	}
	digest.Write([]byte(sessionID))
	return hex.EncodeToString(digest.Sum(nil))[:sessionHashLen]
}
