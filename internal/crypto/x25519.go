package crypto

import (
	"crypto/rand"

	"golang.org/x/crypto/curve25519"

	"sealwire/internal/domain"
)

// Generate returns a fresh Curve25519 key pair.
// The private key is clamped per RFC 7748.
func Generate() (domain.KeyPair, error) {
	var kp domain.KeyPair
	if _, err := rand.Read(kp.Priv[:]); err != nil {
		return domain.KeyPair{}, err
	}
	clamp(&kp.Priv)
	pub, err := curve25519.X25519(kp.Priv.Slice(), curve25519.Basepoint)
	if err != nil {
		return domain.KeyPair{}, err
	}
	copy(kp.Pub[:], pub)
	return kp, nil
}

// DH computes the X25519 Diffie–Hellman shared secret.
func DH(priv domain.X25519Private, pub domain.X25519Public) ([32]byte, error) {
	var out [32]byte
	secret, err := curve25519.X25519(priv.Slice(), pub.Slice())
	if err != nil {
		return out, err
	}
	copy(out[:], secret)
	return out, nil
}

func clamp(k *domain.X25519Private) {
	k[0] &= 248
	k[31] &= 127
	k[31] |= 64
}
