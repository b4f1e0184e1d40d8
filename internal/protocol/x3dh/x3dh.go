package x3dh

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"golang.org/x/crypto/hkdf"

	"sealwire/internal/crypto"
	"sealwire/internal/domain"
	"sealwire/internal/util/memzero"
)

// SecretSize is the size of the derived shared secret in bytes.
const SecretSize = 32

// ErrHandshake is returned when an X3DH precondition is violated, for
// example a bundle without a signed pre-key or an unknown one-time
// pre-key id.
var ErrHandshake = errors.New("x3dh: handshake precondition violated")

// RemoteBundle is the subset of a published device bundle the initiator
// needs: the peer's identity key, signed pre-key and, when one is still
// available, a one-time pre-key.
type RemoteBundle struct {
	IdentityKey  domain.X25519Public
	SignedPreKey domain.X25519Public
	OneTimeKey   *domain.X25519Public
}

// Result is the initiator-side output: the shared secret plus the ephemeral
// pair whose public half is advertised to the responder.
type Result struct {
	Secret    [SecretSize]byte
	Ephemeral domain.KeyPair
}

// ContextLabel builds the canonical derivation label for a session between
// two devices. The two identities and the two device ids are each sorted
// before concatenation, so initiator and responder compute an identical
// label regardless of who runs the handshake.
func ContextLabel(a domain.DID, aDev domain.DeviceID, b domain.DID, bDev domain.DeviceID) string {
	ids := []string{string(a), string(b)}
	devs := []string{string(aDev), string(bDev)}
	sort.Strings(ids)
	sort.Strings(devs)
	return "sealwire/x3dh/" + strings.Join(ids, ":") + "/" + strings.Join(devs, ":")
}

// Initiate derives the shared secret against a peer's published bundle.
//
// It generates a fresh ephemeral pair and computes, in fixed order,
// DH(IK_A, SPK_B), DH(EK_A, IK_B), DH(EK_A, SPK_B) and, when the bundle
// carries a one-time pre-key, DH(EK_A, OPK_B). The concatenation runs
// through HKDF-SHA256 keyed by the context label.
func Initiate(localIdentity domain.KeyPair, remote RemoteBundle, label string) (Result, error) {
	var zero domain.X25519Public
	if remote.SignedPreKey == zero {
		return Result{}, fmt.Errorf("%w: bundle has no signed pre-key", ErrHandshake)
	}

	eph, err := crypto.Generate()
	if err != nil {
		return Result{}, err
	}

	dh1, err := crypto.DH(localIdentity.Priv, remote.SignedPreKey)
	if err != nil {
		return Result{}, err
	}
	dh2, err := crypto.DH(eph.Priv, remote.IdentityKey)
	if err != nil {
		return Result{}, err
	}
	dh3, err := crypto.DH(eph.Priv, remote.SignedPreKey)
	if err != nil {
		return Result{}, err
	}

	parts := [][]byte{dh1[:], dh2[:], dh3[:]}
	if remote.OneTimeKey != nil {
		dh4, err := crypto.DH(eph.Priv, *remote.OneTimeKey)
		if err != nil {
			return Result{}, err
		}
		parts = append(parts, dh4[:])
	}

	secret, err := derive(parts, label)
	if err != nil {
		return Result{}, err
	}
	return Result{Secret: secret, Ephemeral: eph}, nil
}

// Respond mirrors Initiate from the responder's private key material.
//
// The one-time pre-key supplied must be the exact pair whose id the
// initiator consumed; a mismatched key yields a different, wrong secret with
// no error at this layer, which is why pre-key lookup is by explicit id
// table upstream.
func Respond(
	localIdentity domain.KeyPair,
	localSignedPreKey domain.KeyPair,
	localOneTime *domain.KeyPair,
	remoteIdentityPub domain.X25519Public,
	remoteEphemeralPub domain.X25519Public,
	label string,
) ([SecretSize]byte, error) {
	var out [SecretSize]byte

	dh1, err := crypto.DH(localSignedPreKey.Priv, remoteIdentityPub)
	if err != nil {
		return out, err
	}
	dh2, err := crypto.DH(localIdentity.Priv, remoteEphemeralPub)
	if err != nil {
		return out, err
	}
	dh3, err := crypto.DH(localSignedPreKey.Priv, remoteEphemeralPub)
	if err != nil {
		return out, err
	}

	parts := [][]byte{dh1[:], dh2[:], dh3[:]}
	if localOneTime != nil {
		dh4, err := crypto.DH(localOneTime.Priv, remoteEphemeralPub)
		if err != nil {
			return out, err
		}
		parts = append(parts, dh4[:])
	}

	return derive(parts, label)
}

// VerifySignedPreKey checks a bundle's signed pre-key signature.
func VerifySignedPreKey(signingKey domain.Ed25519Public, spk domain.X25519Public, sig []byte) bool {
	return crypto.VerifyEd25519(signingKey, spk.Slice(), sig)
}

func derive(parts [][]byte, label string) ([SecretSize]byte, error) {
	var out [SecretSize]byte

	ikm := make([]byte, 0, SecretSize*len(parts))
	for _, p := range parts {
		ikm = append(ikm, p...)
	}
	defer memzero.Zero(ikm)

	r := hkdf.New(sha256.New, ikm, nil, []byte(label))
	if _, err := io.ReadFull(r, out[:]); err != nil {
		return out, err
	}
	return out, nil
}
