package keystore

import (
	"errors"
	"sync"

	bolt "go.etcd.io/bbolt"

	"sealwire/internal/domain"
	"sealwire/internal/util/memzero"
)

var (
	// ErrUnlock is returned when the storage key cannot be derived, for
	// example because the password or account binding is missing. A wrong
	// password is not detectable here; it surfaces as ErrIntegrity on the
	// first decrypt attempt.
	ErrUnlock = errors.New("keystore: cannot derive storage key")

	// ErrIntegrity is returned when a stored record fails to decrypt after
	// unlock. It is fatal for that record.
	ErrIntegrity = errors.New("keystore: record integrity failure")

	// ErrLocked is returned when a record operation runs before Unlock.
	ErrLocked = errors.New("keystore: store is locked")
)

const (
	bucketBundle   = "bundle"
	bucketSessions = "sessions"

	bundleRecord = "device-bundle"
)

// Store is a bbolt-backed encrypted key store. One Store serves one device.
type Store struct {
	mu  sync.Mutex
	db  *bolt.DB
	key []byte // storage key; nil while locked
}

// Open opens (or creates) the store file. The store starts locked.
func Open(path string) (*Store, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{bucketBundle, bucketSessions} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Unlock derives and holds the storage key for the account.
func (s *Store) Unlock(password string, accountID domain.DID) error {
	if password == "" || accountID == "" {
		return ErrUnlock
	}
	key := deriveStorageKey(password, deriveSalt(accountID))

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key != nil {
		memzero.Zero(s.key)
	}
	s.key = key
	return nil
}

// IsUnlocked reports whether a storage key is currently held.
func (s *Store) IsUnlocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key != nil
}

// Close wipes the storage key and closes the backing file.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.key != nil {
		memzero.Zero(s.key)
		s.key = nil
	}
	s.mu.Unlock()
	return s.db.Close()
}

// StoreDeviceBundle encrypts and persists the bundle, replacing any prior one.
func (s *Store) StoreDeviceBundle(bundle domain.DeviceBundle) error {
	return s.put(bucketBundle, bundleRecord, bundle)
}

// LoadDeviceBundle decrypts and returns the bundle, or (nil, nil) if none is
// stored yet.
func (s *Store) LoadDeviceBundle() (*domain.DeviceBundle, error) {
	var bundle domain.DeviceBundle
	ok, err := s.get(bucketBundle, bundleRecord, &bundle)
	if err != nil || !ok {
		return nil, err
	}
	return &bundle, nil
}

// StoreSession writes one session's ratchet state through to disk.
func (s *Store) StoreSession(key domain.SessionKey, state domain.RatchetState) error {
	return s.put(bucketSessions, key.String(), state)
}

// LoadSession reads one session's ratchet state, or (nil, nil) if absent.
func (s *Store) LoadSession(key domain.SessionKey) (*domain.RatchetState, error) {
	var state domain.RatchetState
	ok, err := s.get(bucketSessions, key.String(), &state)
	if err != nil || !ok {
		return nil, err
	}
	return &state, nil
}

func (s *Store) storageKey() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.key == nil {
		return nil, ErrLocked
	}
	return s.key, nil
}

func (s *Store) put(bucket, name string, value any) error {
	key, err := s.storageKey()
	if err != nil {
		return err
	}
	blob, err := sealRecord(key, bucket+"/"+name, value)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucket)).Put([]byte(name), blob)
	})
}

func (s *Store) get(bucket, name string, out any) (bool, error) {
	key, err := s.storageKey()
	if err != nil {
		return false, err
	}
	var blob []byte
	err = s.db.View(func(tx *bolt.Tx) error {
		if raw := tx.Bucket([]byte(bucket)).Get([]byte(name)); raw != nil {
			blob = append([]byte(nil), raw...)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	if blob == nil {
		return false, nil
	}
	if err := openRecord(key, bucket+"/"+name, blob, out); err != nil {
		return false, err
	}
	return true, nil
}

// Compile-time assertion that Store implements domain.KeyStore.
var _ domain.KeyStore = (*Store)(nil)
