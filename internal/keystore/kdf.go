package keystore

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"

	"sealwire/internal/domain"
)

const saltSize = 16

// Argon2id parameters. Kept in one place so the whole profile can be
// upgraded without touching the rest of the store.
const (
	argonTime    = 3
	argonMemory  = 64 * 1024 // KiB
	argonThreads = 4
)

const saltLabel = "sealwire/storage-salt/v1|"

// deriveSalt builds the account-bound KDF salt. The salt is deterministic
// per account so re-unlocking on the same device reproduces the same
// storage key.
func deriveSalt(accountID domain.DID) []byte {
	sum := sha256.Sum256([]byte(saltLabel + string(accountID)))
	return sum[:saltSize]
}

// deriveStorageKey runs the memory-hard KDF over the password and salt.
func deriveStorageKey(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, argonTime, argonMemory, argonThreads, chacha20poly1305.KeySize)
}
