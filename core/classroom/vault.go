package classroom

import (
	"crypto/rand"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"

	pkgerrors "github.com/pkg/errors"
	"golang.org/x/crypto/pbkdf2"

	"github.com/trezcool/darasa/core"
)

// Vault salts, hashes and verifies classroom credentials (the teacher
// password and the recovery secret answer). Plaintext is never stored.
// Each credential gets its own freshly generated salt at creation time.
type Vault struct {
	iterations int
	keyLen     int
	saltLen    int
}

func NewVault(conf *core.Config) *Vault {
	return &Vault{
		iterations: conf.Hashing.Iterations,
		keyLen:     conf.Hashing.KeyLength,
		saltLen:    conf.Hashing.SaltLength,
	}
}

// NewSalt generates a fresh hex-encoded salt.
func (v *Vault) NewSalt() (string, error) {
	buf := make([]byte, v.saltLen)
	if _, err := rand.Read(buf); err != nil {
		return "", pkgerrors.Wrap(err, "generating salt")
	}
	return hex.EncodeToString(buf), nil
}

// Hash derives a hex-encoded PBKDF2-SHA512 digest of secret.
func (v *Vault) Hash(secret, salt string) string {
	key := pbkdf2.Key([]byte(secret), []byte(salt), v.iterations, v.keyLen, sha512.New)
	return hex.EncodeToString(key)
}

// Verify recomputes the digest and compares it in constant time.
func (v *Vault) Verify(secret, digest, salt string) bool {
	return subtle.ConstantTimeCompare([]byte(v.Hash(secret, salt)), []byte(digest)) == 1
}
