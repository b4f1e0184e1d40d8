package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"sealwire/internal/domain"
	"sealwire/internal/protocol/ratchet"
	"sealwire/internal/protocol/x3dh"
)

var (
	// ErrForeignDevice is returned for an envelope addressed to a different
	// device of this identity. It is dropped at the transport boundary and
	// logged for diagnostics only.
	ErrForeignDevice = errors.New("session: envelope addressed to a different device")

	// ErrSendFailed is returned when a plaintext could not be delivered to
	// any device of the recipient identity. Partial per-device failures are
	// logged, not surfaced.
	ErrSendFailed = errors.New("session: send failed for every device")

	// ErrNotProvisioned is returned when an operation needs local key
	// material that has not been generated yet.
	ErrNotProvisioned = errors.New("session: device not provisioned")
)

// Config carries the manager's identity binding and repair tuning.
type Config struct {
	DID      domain.DID
	DeviceID domain.DeviceID

	// RepairInterval is the period of the background bundle check.
	RepairInterval time.Duration
	// RepairBackoff is the initial retry delay after a failed check; it
	// doubles up to RepairInterval.
	RepairBackoff time.Duration
}

func (c Config) withDefaults() Config {
	if c.RepairInterval <= 0 {
		c.RepairInterval = 5 * time.Minute
	}
	if c.RepairBackoff <= 0 {
		c.RepairBackoff = 15 * time.Second
	}
	return c
}

// session is one cache entry. Its lock serializes every encrypt/decrypt
// against the same remote device; concurrent advancement of one chain key
// corrupts the ratchet irrecoverably.
type session struct {
	mu    sync.Mutex
	state *domain.RatchetState // nil until loaded or bootstrapped
}

// Manager fans plaintext out to a recipient's devices, maps inbound
// envelopes to local sessions, and repairs missing bundle publications.
type Manager struct {
	cfg       Config
	store     domain.KeyStore
	dir       domain.Directory
	transport domain.Transport
	log       *logrus.Entry

	mu       sync.Mutex
	sessions map[domain.SessionKey]*session

	onMessage func(domain.Message)

	repairDone atomic.Bool
	repairKick chan struct{}
}

// NewManager builds a manager. The session cache is owned by the returned
// value; there is no package-level state.
func NewManager(cfg Config, store domain.KeyStore, dir domain.Directory, transport domain.Transport, log *logrus.Logger) *Manager {
	return &Manager{
		cfg:       cfg.withDefaults(),
		store:     store,
		dir:       dir,
		transport: transport,
		log:       log.WithField("component", "session"),
		sessions:  make(map[domain.SessionKey]*session),
		repairKick: make(chan struct{}, 1),
	}
}

// OnMessage sets the handler for decrypted inbound messages.
func (m *Manager) OnMessage(fn func(domain.Message)) { m.onMessage = fn }

// Bind registers the manager as the transport's envelope handler.
func (m *Manager) Bind(t domain.Transport) {
	t.OnReceive(func(env domain.Envelope) {
		plaintext, err := m.ReceiveEnvelope(env)
		switch {
		case errors.Is(err, ErrForeignDevice):
			m.log.WithField("recipient_device", env.RecipientDeviceID).Debug("dropping foreign-device envelope")
		case err != nil:
			m.log.WithError(err).WithField("sender", env.SenderDID).Warn("envelope rejected")
		default:
			if m.onMessage != nil {
				m.onMessage(domain.Message{
					From:       env.SenderDID,
					FromDevice: env.SenderDeviceID,
					Plaintext:  plaintext,
					SentAt:     env.SentAt,
				})
			}
		}
	})
}

// SendToIdentity encrypts plaintext once per published device of the
// recipient identity and dispatches one envelope per device. Per-device
// failures are independent: a bad bundle or failed delivery never blocks the
// sibling devices. Only when every device fails is an error returned.
func (m *Manager) SendToIdentity(ctx context.Context, to domain.DID, plaintext []byte) error {
	bundles, err := m.dir.BundleSet(ctx, to)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", to, err)
	}
	if len(bundles) == 0 {
		return fmt.Errorf("%w: %s has no published devices", ErrSendFailed, to)
	}

	local, err := m.store.LoadDeviceBundle()
	if err != nil {
		return err
	}
	if local == nil {
		return ErrNotProvisioned
	}

	delivered := 0
	for _, remote := range bundles {
		if err := m.sendToDevice(ctx, local, remote, plaintext); err != nil {
			m.log.WithError(err).WithFields(logrus.Fields{
				"did": to, "device": remote.DeviceID,
			}).Warn("device delivery failed")
			continue
		}
		delivered++
	}
	if delivered == 0 {
		// Delivery trouble can mean our own bundle is gone from the
		// directory; have the repair loop look right away.
		m.KickRepair()
		return fmt.Errorf("%w: all %d devices of %s", ErrSendFailed, len(bundles), to)
	}
	return nil
}

// sendToDevice resolves or bootstraps the session for one remote device,
// encrypts, persists the advanced state and dispatches the envelope.
func (m *Manager) sendToDevice(ctx context.Context, local *domain.DeviceBundle, remote domain.DeviceBundlePublic, plaintext []byte) error {
	key := domain.SessionKey{DID: remote.DID, DeviceID: remote.DeviceID}
	sess := m.entry(key)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := m.ensureLoaded(sess, key); err != nil {
		return err
	}

	var prekey *domain.PreKeyAttachment
	if sess.state == nil {
		state, attachment, err := m.bootstrapSender(local, remote)
		if err != nil {
			return err
		}
		sess.state = state
		prekey = attachment
	}

	msg, err := ratchet.Encrypt(sess.state, plaintext)
	if err != nil {
		return err
	}
	msg.Header.PreKey = prekey

	// Write through before dispatch: a crash after this point loses at most
	// the message, never the chain position.
	if err := m.store.StoreSession(key, *sess.state); err != nil {
		return err
	}

	return m.transport.Deliver(ctx, domain.Envelope{
		SenderDID:         m.cfg.DID,
		SenderDeviceID:    m.cfg.DeviceID,
		RecipientDID:      remote.DID,
		RecipientDeviceID: remote.DeviceID,
		Header:            msg.Header,
		IV:                msg.IV,
		Ciphertext:        msg.Ciphertext,
		SentAt:            time.Now().Unix(),
	})
}

// bootstrapSender runs the X3DH initiator side against a published bundle
// and seeds a fresh sender ratchet.
func (m *Manager) bootstrapSender(local *domain.DeviceBundle, remote domain.DeviceBundlePublic) (*domain.RatchetState, *domain.PreKeyAttachment, error) {
	if !x3dh.VerifySignedPreKey(remote.SigningKey, remote.SignedPreKey, remote.SignedPreKeySig) {
		return nil, nil, fmt.Errorf("%w: bad signed pre-key signature for %s/%s",
			x3dh.ErrHandshake, remote.DID, remote.DeviceID)
	}

	bundle := x3dh.RemoteBundle{
		IdentityKey:  remote.IdentityKey,
		SignedPreKey: remote.SignedPreKey,
	}
	var oneTimeID *uint32
	if len(remote.OneTimePreKeys) > 0 {
		otk := remote.OneTimePreKeys[0]
		bundle.OneTimeKey = &otk.Pub
		id := otk.ID
		oneTimeID = &id
	}

	label := x3dh.ContextLabel(m.cfg.DID, m.cfg.DeviceID, remote.DID, remote.DeviceID)
	res, err := x3dh.Initiate(local.IdentityKey, bundle, label)
	if err != nil {
		return nil, nil, err
	}
	state, err := ratchet.InitAsSender(res.Secret, remote.SignedPreKey)
	if err != nil {
		return nil, nil, err
	}

	return &state, &domain.PreKeyAttachment{
		InitiatorIdentityKey: local.IdentityKey.Pub,
		EphemeralKey:         res.Ephemeral.Pub,
		SignedPreKeyID:       remote.SignedPreKeyID,
		OneTimePreKeyID:      oneTimeID,
	}, nil
}

// ReceiveEnvelope maps an inbound envelope to its session, bootstrapping the
// responder side from the handshake attachment when no session exists, and
// returns the plaintext.
//
// Nothing is committed until the envelope decrypts: a bootstrap derived for a
// corrupt or forged first message is discarded, the cache slot stays empty and
// the one-time pre-key stays in the bundle, so a legitimate initiator can
// still open the session later.
func (m *Manager) ReceiveEnvelope(env domain.Envelope) ([]byte, error) {
	if env.RecipientDeviceID != m.cfg.DeviceID {
		return nil, fmt.Errorf("%w: addressed to %s", ErrForeignDevice, env.RecipientDeviceID)
	}

	key := env.SessionKey()
	sess := m.entry(key)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := m.ensureLoaded(sess, key); err != nil {
		return nil, err
	}

	state := sess.state
	var consumed *uint32
	if state == nil {
		var err error
		state, consumed, err = m.bootstrapReceiver(env)
		if err != nil {
			return nil, err
		}
	}

	plaintext, err := ratchet.Decrypt(state, ratchet.Message{
		Header:     env.Header,
		IV:         env.IV,
		Ciphertext: env.Ciphertext,
	})
	if err != nil {
		return nil, err
	}

	if consumed != nil {
		if err := m.consumeOneTimeKey(*consumed); err != nil {
			return nil, err
		}
	}
	if err := m.store.StoreSession(key, *state); err != nil {
		return nil, err
	}
	sess.state = state
	return plaintext, nil
}

// bootstrapReceiver mirrors the X3DH derivation from local private material.
// The one-time pre-key is looked up in the explicit id table; an unknown id
// is a handshake error, never a silent wrong-key derivation. The lookup does
// not consume the key: envelopes are unauthenticated until the ratchet opens
// them, and deleting on lookup would let forged attachments burn the whole
// batch. The caller consumes the returned id after the first decrypt.
func (m *Manager) bootstrapReceiver(env domain.Envelope) (*domain.RatchetState, *uint32, error) {
	prekey := env.Header.PreKey
	if prekey == nil {
		return nil, nil, fmt.Errorf("%w: no session with %s/%s and no handshake attachment",
			x3dh.ErrHandshake, env.SenderDID, env.SenderDeviceID)
	}

	bundle, err := m.store.LoadDeviceBundle()
	if err != nil {
		return nil, nil, err
	}
	if bundle == nil {
		return nil, nil, ErrNotProvisioned
	}
	if prekey.SignedPreKeyID != bundle.SignedPreKey.ID {
		return nil, nil, fmt.Errorf("%w: unknown signed pre-key id %d", x3dh.ErrHandshake, prekey.SignedPreKeyID)
	}

	var oneTime *domain.KeyPair
	if prekey.OneTimePreKeyID != nil {
		kp, ok := bundle.OneTime[*prekey.OneTimePreKeyID]
		if !ok {
			return nil, nil, fmt.Errorf("%w: unknown or consumed one-time pre-key id %d",
				x3dh.ErrHandshake, *prekey.OneTimePreKeyID)
		}
		oneTime = &kp
	}

	label := x3dh.ContextLabel(env.SenderDID, env.SenderDeviceID, m.cfg.DID, m.cfg.DeviceID)
	secret, err := x3dh.Respond(
		bundle.IdentityKey,
		bundle.SignedPreKey.Key,
		oneTime,
		prekey.InitiatorIdentityKey,
		prekey.EphemeralKey,
		label,
	)
	if err != nil {
		return nil, nil, err
	}
	state := ratchet.InitAsReceiver(secret, bundle.SignedPreKey.Key)
	return &state, prekey.OneTimePreKeyID, nil
}

// consumeOneTimeKey removes a used one-time pre-key from the bundle and
// persists it. Ids are never reused; NextOneTimeID keeps growing.
func (m *Manager) consumeOneTimeKey(id uint32) error {
	bundle, err := m.store.LoadDeviceBundle()
	if err != nil {
		return err
	}
	if bundle == nil {
		return ErrNotProvisioned
	}
	if _, ok := bundle.OneTime[id]; !ok {
		return nil
	}
	delete(bundle.OneTime, id)
	return m.store.StoreDeviceBundle(*bundle)
}

// entry returns the cache slot for key, creating it if needed.
func (m *Manager) entry(key domain.SessionKey) *session {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[key]
	if !ok {
		sess = &session{}
		m.sessions[key] = sess
	}
	return sess
}

// ensureLoaded pulls the persisted tier into the cache slot. The in-memory
// tier is always at least as fresh as disk, so this only ever runs while the
// slot is empty. Caller holds the session lock.
func (m *Manager) ensureLoaded(sess *session, key domain.SessionKey) error {
	if sess.state != nil {
		return nil
	}
	state, err := m.store.LoadSession(key)
	if err != nil {
		return err
	}
	sess.state = state
	return nil
}
