package hash

import "github.com/alexedwards/argon2id"

// Argon2Hasher hashes passwords with argon2id using the library defaults.
type Argon2Hasher struct {
	params *argon2id.Params
}

func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{params: argon2id.DefaultParams}
}

func (h *Argon2Hasher) Hash(plaintext string) (string, error) {
	return argon2id.CreateHash(plaintext, h.params)
}

func (h *Argon2Hasher) Compare(plaintext, digest string) (bool, error) {
	return argon2id.ComparePasswordAndHash(plaintext, digest)
}
