package session

import (
	"context"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"sealwire/internal/crypto"
	"sealwire/internal/domain"
)

const (
	// DefaultOneTimeKeyCount is how many one-time pre-keys a fresh device mints.
	DefaultOneTimeKeyCount = 20

	firstSignedPreKeyID = 1
	firstOneTimeKeyID   = 1
)

// NewDeviceBundle generates the full private key material for a device:
// identity pair, signing pair, signed pre-key and count one-time pre-keys
// with ids from an explicit table.
func NewDeviceBundle(did domain.DID, deviceID domain.DeviceID, count int) (domain.DeviceBundle, error) {
	identity, err := crypto.Generate()
	if err != nil {
		return domain.DeviceBundle{}, err
	}
	signingPriv, signingPub, err := crypto.GenerateEd25519()
	if err != nil {
		return domain.DeviceBundle{}, err
	}
	spk, err := crypto.Generate()
	if err != nil {
		return domain.DeviceBundle{}, err
	}

	bundle := domain.DeviceBundle{
		DID:         did,
		DeviceID:    deviceID,
		IdentityKey: identity,
		SigningPub:  signingPub,
		SigningPriv: signingPriv,
		SignedPreKey: domain.SignedPreKeyPair{
			ID:        firstSignedPreKeyID,
			Key:       spk,
			Signature: crypto.SignEd25519(signingPriv, spk.Pub.Slice()),
		},
		OneTime:       make(map[uint32]domain.KeyPair, count),
		NextOneTimeID: firstOneTimeKeyID,
	}
	if err := mintOneTimeKeys(&bundle, count); err != nil {
		return domain.DeviceBundle{}, err
	}
	return bundle, nil
}

// mintOneTimeKeys appends n fresh one-time pre-keys. Ids come from the
// bundle's monotonic counter and are never reused, consumed or not.
func mintOneTimeKeys(bundle *domain.DeviceBundle, n int) error {
	for i := 0; i < n; i++ {
		kp, err := crypto.Generate()
		if err != nil {
			return err
		}
		bundle.OneTime[bundle.NextOneTimeID] = kp
		bundle.NextOneTimeID++
	}
	return nil
}

// SignBundle wraps the bundle's public projection with an Ed25519 signature
// over its CBOR encoding.
func SignBundle(bundle *domain.DeviceBundle) (domain.SignedBundle, error) {
	pub := bundle.Public()
	payload, err := cbor.Marshal(pub)
	if err != nil {
		return domain.SignedBundle{}, err
	}
	return domain.SignedBundle{
		Bundle:    pub,
		Signature: crypto.SignEd25519(bundle.SigningPriv, payload),
	}, nil
}

// Provision creates this device's key material, stores it encrypted and
// publishes the signed public projection to the directory. It refuses to
// overwrite an existing bundle.
func (m *Manager) Provision(ctx context.Context, oneTimeCount int) (domain.Fingerprint, error) {
	existing, err := m.store.LoadDeviceBundle()
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", fmt.Errorf("device already provisioned")
	}

	bundle, err := NewDeviceBundle(m.cfg.DID, m.cfg.DeviceID, oneTimeCount)
	if err != nil {
		return "", err
	}
	if err := m.store.StoreDeviceBundle(bundle); err != nil {
		return "", err
	}
	if err := m.publish(ctx, &bundle); err != nil {
		return "", err
	}
	return domain.Fingerprint(crypto.Fingerprint(bundle.IdentityKey.Pub.Slice())), nil
}

// ReplenishOneTimeKeys mints n fresh one-time pre-keys and republishes the
// bundle so initiators stop falling back to three-DH handshakes.
func (m *Manager) ReplenishOneTimeKeys(ctx context.Context, n int) error {
	bundle, err := m.store.LoadDeviceBundle()
	if err != nil {
		return err
	}
	if bundle == nil {
		return ErrNotProvisioned
	}
	if err := mintOneTimeKeys(bundle, n); err != nil {
		return err
	}
	if err := m.store.StoreDeviceBundle(*bundle); err != nil {
		return err
	}
	return m.publish(ctx, bundle)
}

// PublishBundle re-publishes the current bundle's public projection.
func (m *Manager) PublishBundle(ctx context.Context) error {
	bundle, err := m.store.LoadDeviceBundle()
	if err != nil {
		return err
	}
	if bundle == nil {
		return ErrNotProvisioned
	}
	return m.publish(ctx, bundle)
}

func (m *Manager) publish(ctx context.Context, bundle *domain.DeviceBundle) error {
	signed, err := SignBundle(bundle)
	if err != nil {
		return err
	}
	return m.dir.Publish(ctx, signed)
}
