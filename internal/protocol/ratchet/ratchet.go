package ratchet

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"sealwire/internal/crypto"
	"sealwire/internal/domain"
	"sealwire/internal/util/memzero"
)

var (
	// ErrDecrypt is returned when a message cannot be opened: AEAD failure,
	// a replayed message, or a message whose chain has already advanced past
	// its index. The session state is left untouched on failure.
	ErrDecrypt = errors.New("ratchet: cannot decrypt message")

	errChainNotReady = errors.New("ratchet: sending chain not yet established")
)

// Message is one ciphertext message: the ratchet header, the per-message IV
// and the sealed payload.
type Message struct {
	Header     domain.RatchetHeader
	IV         []byte
	Ciphertext []byte
}

// InitAsSender creates the initiator-side state from an X3DH secret.
//
// It seeds the root key from the shared secret, generates the first local
// ratchet pair and performs one DH step against the responder's signed
// pre-key to derive the initial sending chain.
func InitAsSender(secret [32]byte, remoteSignedPreKey domain.X25519Public) (domain.RatchetState, error) {
	pair, err := crypto.Generate()
	if err != nil {
		return domain.RatchetState{}, err
	}
	dh, err := crypto.DH(pair.Priv, remoteSignedPreKey)
	if err != nil {
		return domain.RatchetState{}, err
	}
	rk, sendCK := kdfRoot(secret[:], dh[:])
	memzero.Zero(dh[:])

	peer := remoteSignedPreKey
	return domain.RatchetState{
		RootKey:   rk,
		DHPriv:    pair.Priv,
		DHPub:     pair.Pub,
		PeerDHPub: &peer,
		SendCK:    sendCK,
	}, nil
}

// InitAsReceiver creates the responder-side state from an X3DH secret.
//
// The responder's ratchet pair starts as its signed pre-key pair and no
// sending chain exists yet; both chains are established by the DH step run
// when the first inbound message arrives, guaranteeing root-key agreement
// before any sending chain diverges.
func InitAsReceiver(secret [32]byte, localSignedPreKey domain.KeyPair) domain.RatchetState {
	return domain.RatchetState{
		RootKey: append([]byte(nil), secret[:]...),
		DHPriv:  localSignedPreKey.Priv,
		DHPub:   localSignedPreKey.Pub,
	}
}

// Encrypt derives the next message key from the sending chain, seals
// plaintext under it and advances the state in place. The caller must
// persist the state before the message is considered sent.
func Encrypt(st *domain.RatchetState, plaintext []byte) (Message, error) {
	next := st.Clone()

	// A responder that replies before its first send derives its sending
	// chain here with a fresh ratchet pair.
	if len(next.SendCK) == 0 {
		if next.PeerDHPub == nil {
			return Message{}, errChainNotReady
		}
		if err := stepSending(&next, *next.PeerDHPub); err != nil {
			return Message{}, err
		}
	}

	mk := nextMessageKey(&next.SendCK)
	defer memzero.Zero(mk)

	header := domain.RatchetHeader{
		DHPub:               next.DHPub,
		PreviousChainLength: next.PN,
		MessageIndex:        next.Ns,
	}

	iv := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(iv); err != nil {
		return Message{}, err
	}
	aead, err := chacha20poly1305.New(mk)
	if err != nil {
		return Message{}, err
	}
	ct := aead.Seal(nil, iv, plaintext, headerAD(header))

	next.Ns++
	*st = next
	return Message{Header: header, IV: iv, Ciphertext: ct}, nil
}

// Decrypt opens a message and advances the state in place. On any failure
// the state is left exactly as it was, so a good message arriving after a
// bad one still decrypts.
func Decrypt(st *domain.RatchetState, msg Message) ([]byte, error) {
	next := st.Clone()
	h := msg.Header

	if next.PeerDHPub == nil || *next.PeerDHPub != h.DHPub {
		if err := stepReceiving(&next, h.DHPub); err != nil {
			return nil, err
		}
	}

	if len(next.RecvCK) == 0 {
		return nil, fmt.Errorf("%w: no receiving chain", ErrDecrypt)
	}
	// Strict ordering: the chain only ever moves forward, one key per
	// message. An index behind Nr is a replay; one ahead means messages
	// were skipped and their keys are gone.
	if h.MessageIndex != next.Nr {
		return nil, fmt.Errorf("%w: message index %d, chain at %d", ErrDecrypt, h.MessageIndex, next.Nr)
	}

	mk := nextMessageKey(&next.RecvCK)
	defer memzero.Zero(mk)

	aead, err := chacha20poly1305.New(mk)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, msg.IV, msg.Ciphertext, headerAD(h))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}

	next.Nr++
	*st = next
	return plaintext, nil
}

// stepReceiving runs the full DH ratchet for a newly seen remote key: the
// receiving chain first, then a fresh local pair and the next sending chain.
func stepReceiving(st *domain.RatchetState, remote domain.X25519Public) error {
	dh, err := crypto.DH(st.DHPriv, remote)
	if err != nil {
		return err
	}
	rk, recvCK := kdfRoot(st.RootKey, dh[:])
	memzero.Zero(dh[:])

	st.RootKey = rk
	st.RecvCK = recvCK
	st.Nr = 0
	peer := remote
	st.PeerDHPub = &peer

	return stepSending(st, remote)
}

// stepSending rolls the local ratchet pair and derives the next sending
// chain against the given remote key.
func stepSending(st *domain.RatchetState, remote domain.X25519Public) error {
	pair, err := crypto.Generate()
	if err != nil {
		return err
	}
	dh, err := crypto.DH(pair.Priv, remote)
	if err != nil {
		return err
	}
	rk, sendCK := kdfRoot(st.RootKey, dh[:])
	memzero.Zero(dh[:])

	st.RootKey = rk
	st.DHPriv, st.DHPub = pair.Priv, pair.Pub
	st.SendCK = sendCK
	st.PN = st.Ns
	st.Ns = 0
	return nil
}
