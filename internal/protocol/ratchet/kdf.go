package ratchet

import (
	"crypto/sha256"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/hkdf"

	"sealwire/internal/domain"
)

const keySize = 32

var (
	rootLabel  = []byte("sealwire/dr/root")
	chainLabel = []byte("sealwire/dr/chain")
)

// adEnc is the deterministic encoder used to bind the header to the AEAD.
var adEnc = func() cbor.EncMode {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return em
}()

// kdfRoot mixes a DH output into the root key, yielding the next root key
// and a fresh chain key.
func kdfRoot(rk, dh []byte) (newRK, ck []byte) {
	r := hkdf.New(sha256.New, dh, rk, rootLabel)
	newRK = make([]byte, keySize)
	ck = make([]byte, keySize)
	_, _ = io.ReadFull(r, newRK)
	_, _ = io.ReadFull(r, ck)
	return newRK, ck
}

// nextMessageKey advances the chain key in place and returns the message key
// derived from its previous value.
func nextMessageKey(ck *[]byte) []byte {
	r := hkdf.New(sha256.New, *ck, nil, chainLabel)
	next := make([]byte, keySize)
	mk := make([]byte, keySize)
	_, _ = io.ReadFull(r, next)
	_, _ = io.ReadFull(r, mk)
	*ck = next
	return mk
}

// headerAD returns the canonical encoding of the ratchet fields of a header.
// The X3DH attachment is deliberately excluded: it is added to bootstrap
// envelopes after encryption and authenticated by the handshake itself.
func headerAD(h domain.RatchetHeader) []byte {
	ad, err := adEnc.Marshal(struct {
		DHPub domain.X25519Public
		PN    uint32
		N     uint32
	}{h.DHPub, h.PreviousChainLength, h.MessageIndex})
	if err != nil {
		// Marshalling three fixed-size fields cannot fail at runtime.
		panic(err)
	}
	return ad
}
