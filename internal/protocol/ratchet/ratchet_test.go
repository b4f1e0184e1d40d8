package ratchet_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"sealwire/internal/crypto"
	"sealwire/internal/domain"
	"sealwire/internal/protocol/ratchet"
)

// bootstrap builds a matched sender/receiver state pair sharing a secret, as
// X3DH would leave them.
func bootstrap(t *testing.T) (sender, receiver domain.RatchetState) {
	t.Helper()

	var secret [32]byte
	copy(secret[:], []byte("0123456789abcdef0123456789abcdef"))

	spk, err := crypto.Generate()
	require.NoError(t, err)

	sender, err = ratchet.InitAsSender(secret, spk.Pub)
	require.NoError(t, err)
	receiver = ratchet.InitAsReceiver(secret, spk)
	return sender, receiver
}

func TestSingleRoundTrip(t *testing.T) {
	sender, receiver := bootstrap(t)

	msg, err := ratchet.Encrypt(&sender, []byte("hi"))
	require.NoError(t, err)

	plaintext, err := ratchet.Decrypt(&receiver, msg)
	require.NoError(t, err)
	require.Equal(t, []byte("hi"), plaintext)
}

func TestAlternatingConversation_NoKeyReuse(t *testing.T) {
	alice, bob := bootstrap(t)

	// Every (sending DH key, message index) pair must be unique across the
	// whole exchange: a repeat would mean a reused message key.
	seen := map[string]bool{}
	record := func(m ratchet.Message) {
		id := fmt.Sprintf("%x/%d", m.Header.DHPub, m.Header.MessageIndex)
		require.False(t, seen[id], "message key coordinates reused: %s", id)
		seen[id] = true
	}

	for round := 0; round < 10; round++ {
		// Two in a row each way to exercise chain advance without DH step.
		for i := 0; i < 2; i++ {
			want := []byte(fmt.Sprintf("a->b %d/%d", round, i))
			msg, err := ratchet.Encrypt(&alice, want)
			require.NoError(t, err)
			record(msg)
			got, err := ratchet.Decrypt(&bob, msg)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
		for i := 0; i < 2; i++ {
			want := []byte(fmt.Sprintf("b->a %d/%d", round, i))
			msg, err := ratchet.Encrypt(&bob, want)
			require.NoError(t, err)
			record(msg)
			got, err := ratchet.Decrypt(&alice, msg)
			require.NoError(t, err)
			require.Equal(t, want, got)
		}
	}
}

func TestReplayFails(t *testing.T) {
	sender, receiver := bootstrap(t)

	msg, err := ratchet.Encrypt(&sender, []byte("once"))
	require.NoError(t, err)

	_, err = ratchet.Decrypt(&receiver, msg)
	require.NoError(t, err)

	_, err = ratchet.Decrypt(&receiver, msg)
	require.ErrorIs(t, err, ratchet.ErrDecrypt)
}

func TestOutOfOrderFails(t *testing.T) {
	sender, receiver := bootstrap(t)

	first, err := ratchet.Encrypt(&sender, []byte("first"))
	require.NoError(t, err)
	second, err := ratchet.Encrypt(&sender, []byte("second"))
	require.NoError(t, err)

	// Chains are strictly ordered: the second message cannot be opened
	// before the first.
	_, err = ratchet.Decrypt(&receiver, second)
	require.ErrorIs(t, err, ratchet.ErrDecrypt)

	// The failure must not have advanced the chain.
	got, err := ratchet.Decrypt(&receiver, first)
	require.NoError(t, err)
	require.Equal(t, []byte("first"), got)
}

func TestTamperedCiphertextFailsWithoutStateChange(t *testing.T) {
	sender, receiver := bootstrap(t)

	msg, err := ratchet.Encrypt(&sender, []byte("payload"))
	require.NoError(t, err)

	tampered := msg
	tampered.Ciphertext = append([]byte(nil), msg.Ciphertext...)
	tampered.Ciphertext[0] ^= 0xff

	_, err = ratchet.Decrypt(&receiver, tampered)
	require.ErrorIs(t, err, ratchet.ErrDecrypt)

	got, err := ratchet.Decrypt(&receiver, msg)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), got)
}

func TestTamperedHeaderFails(t *testing.T) {
	sender, receiver := bootstrap(t)

	msg, err := ratchet.Encrypt(&sender, []byte("payload"))
	require.NoError(t, err)
	msg.Header.PreviousChainLength++

	_, err = ratchet.Decrypt(&receiver, msg)
	require.ErrorIs(t, err, ratchet.ErrDecrypt)
}

func TestHeaderAttachmentDoesNotAffectDecrypt(t *testing.T) {
	// The handshake attachment rides on bootstrap envelopes after sealing;
	// it must not participate in AEAD authentication.
	sender, receiver := bootstrap(t)

	msg, err := ratchet.Encrypt(&sender, []byte("bootstrap"))
	require.NoError(t, err)
	msg.Header.PreKey = &domain.PreKeyAttachment{SignedPreKeyID: 1}

	got, err := ratchet.Decrypt(&receiver, msg)
	require.NoError(t, err)
	require.Equal(t, []byte("bootstrap"), got)
}
