package interfaces

import domaintypes "sealwire/internal/domain/types"

// KeyStore is the encrypted local key store. Plaintext key material never
// touches durable storage; every record is sealed under a key derived from
// the account password at unlock time.
//
// Load methods return (nil, nil) when a record is absent. A record that is
// present but fails to decrypt is an integrity failure, never "absent".
type KeyStore interface {
	// Unlock derives and holds the storage key for the account.
	Unlock(password string, accountID domaintypes.DID) error
	// IsUnlocked reports whether a storage key is currently held.
	IsUnlocked() bool

	LoadDeviceBundle() (*domaintypes.DeviceBundle, error)
	StoreDeviceBundle(bundle domaintypes.DeviceBundle) error

	LoadSession(key domaintypes.SessionKey) (*domaintypes.RatchetState, error)
	StoreSession(key domaintypes.SessionKey, state domaintypes.RatchetState) error

	Close() error
}
