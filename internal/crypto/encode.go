package crypto

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"sealwire/internal/domain"
)

// ErrDecode is returned for malformed public or private key material arriving
// from the wire. Callers reject the offending bundle or device and move on.
var ErrDecode = errors.New("crypto: malformed key material")

// ExportPublic encodes a public key as standard base64, safe to transmit as
// plain text. The encoding is fixed-length (44 characters for 32 raw bytes).
func ExportPublic(pub domain.X25519Public) string {
	return base64.StdEncoding.EncodeToString(pub.Slice())
}

// ImportPublic decodes a public key produced by ExportPublic.
func ImportPublic(encoded string) (domain.X25519Public, error) {
	var pub domain.X25519Public
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return pub, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if len(raw) != len(pub) {
		return pub, fmt.Errorf("%w: got %d bytes, want %d", ErrDecode, len(raw), len(pub))
	}
	copy(pub[:], raw)
	return pub, nil
}

// ImportPrivate validates and copies raw private key bytes.
func ImportPrivate(raw []byte) (domain.X25519Private, error) {
	var priv domain.X25519Private
	if len(raw) != len(priv) {
		return priv, fmt.Errorf("%w: got %d bytes, want %d", ErrDecode, len(raw), len(priv))
	}
	copy(priv[:], raw)
	return priv, nil
}

// Fingerprint renders a public key as the 20-hex-char form shown to users
// for out-of-band identity verification: the first 10 bytes of its SHA-256.
func Fingerprint(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:10])
}
