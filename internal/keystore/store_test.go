package keystore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"sealwire/internal/domain"
	"sealwire/internal/keystore"
)

func openStore(t *testing.T) (*keystore.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "keystore.db")
	st, err := keystore.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st, path
}

func sampleBundle() domain.DeviceBundle {
	return domain.DeviceBundle{
		DID:         "did:alice",
		DeviceID:    "dev-1",
		IdentityKey: domain.KeyPair{Pub: domain.X25519Public{1}, Priv: domain.X25519Private{2}},
		SigningPub:  domain.Ed25519Public{3},
		SignedPreKey: domain.SignedPreKeyPair{
			ID:        1,
			Key:       domain.KeyPair{Pub: domain.X25519Public{4}, Priv: domain.X25519Private{5}},
			Signature: []byte("sig"),
		},
		OneTime: map[uint32]domain.KeyPair{
			1: {Pub: domain.X25519Public{6}, Priv: domain.X25519Private{7}},
			2: {Pub: domain.X25519Public{8}, Priv: domain.X25519Private{9}},
		},
		NextOneTimeID: 3,
	}
}

func TestUnlock_InputValidation(t *testing.T) {
	st, _ := openStore(t)

	require.ErrorIs(t, st.Unlock("", "did:alice"), keystore.ErrUnlock)
	require.ErrorIs(t, st.Unlock("hunter2hunter2", ""), keystore.ErrUnlock)
	require.False(t, st.IsUnlocked())

	require.NoError(t, st.Unlock("hunter2hunter2", "did:alice"))
	require.True(t, st.IsUnlocked())
}

func TestLockedAccessFails(t *testing.T) {
	st, _ := openStore(t)

	_, err := st.LoadDeviceBundle()
	require.ErrorIs(t, err, keystore.ErrLocked)
	require.ErrorIs(t, st.StoreDeviceBundle(sampleBundle()), keystore.ErrLocked)
}

func TestDeviceBundleRoundTrip(t *testing.T) {
	st, _ := openStore(t)
	require.NoError(t, st.Unlock("correct horse", "did:alice"))

	// Absent before any store.
	got, err := st.LoadDeviceBundle()
	require.NoError(t, err)
	require.Nil(t, got)

	want := sampleBundle()
	require.NoError(t, st.StoreDeviceBundle(want))

	got, err = st.LoadDeviceBundle()
	require.NoError(t, err)
	require.Equal(t, want, *got)
}

func TestWrongPassword_IsIntegrityFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.db")

	st, err := keystore.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Unlock("correct horse", "did:alice"))
	require.NoError(t, st.StoreDeviceBundle(sampleBundle()))
	require.NoError(t, st.Close())

	st, err = keystore.Open(path)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Unlock("wrong horse", "did:alice"))

	// The record exists and must not be masked as absent or returned as
	// garbage: it fails decryption.
	_, err = st.LoadDeviceBundle()
	require.ErrorIs(t, err, keystore.ErrIntegrity)
}

func TestSessionRoundTrip(t *testing.T) {
	st, _ := openStore(t)
	require.NoError(t, st.Unlock("correct horse", "did:alice"))

	key := domain.SessionKey{DID: "did:bob", DeviceID: "dev-9"}

	got, err := st.LoadSession(key)
	require.NoError(t, err)
	require.Nil(t, got)

	peer := domain.X25519Public{42}
	want := domain.RatchetState{
		RootKey:   []byte("rootrootrootrootrootrootrootroot"),
		DHPriv:    domain.X25519Private{1},
		DHPub:     domain.X25519Public{2},
		PeerDHPub: &peer,
		SendCK:    []byte("sendsendsendsendsendsendsendsend"),
		Ns:        7,
		Nr:        3,
		PN:        2,
	}
	require.NoError(t, st.StoreSession(key, want))

	got, err = st.LoadSession(key)
	require.NoError(t, err)
	require.Equal(t, want, *got)

	// Sessions are keyed independently.
	other, err := st.LoadSession(domain.SessionKey{DID: "did:bob", DeviceID: "dev-other"})
	require.NoError(t, err)
	require.Nil(t, other)
}

func TestReopenSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keystore.db")

	st, err := keystore.Open(path)
	require.NoError(t, err)
	require.NoError(t, st.Unlock("correct horse", "did:alice"))
	require.NoError(t, st.StoreDeviceBundle(sampleBundle()))
	require.NoError(t, st.Close())

	st, err = keystore.Open(path)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Unlock("correct horse", "did:alice"))

	got, err := st.LoadDeviceBundle()
	require.NoError(t, err)
	require.Equal(t, sampleBundle(), *got)
}
