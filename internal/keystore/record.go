package keystore

import (
	"crypto/rand"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/chacha20poly1305"
)

// record is the on-disk shape of every sealed value.
type record struct {
	V      int    `cbor:"v"`
	Nonce  []byte `cbor:"nonce"`
	Cipher []byte `cbor:"cipher"`
}

const recordVersion = 1

// sealRecord encrypts a CBOR-encoded value under the storage key. The record
// name is bound as associated data so a blob moved between keys fails to open.
func sealRecord(key []byte, name string, value any) ([]byte, error) {
	plaintext, err := cbor.Marshal(value)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	ct := aead.Seal(nil, nonce, plaintext, []byte(name))
	return cbor.Marshal(record{V: recordVersion, Nonce: nonce, Cipher: ct})
}

// openRecord decrypts a sealed blob into out. Any failure to parse or open
// is an integrity failure: the record exists, so it must open.
func openRecord(key []byte, name string, blob []byte, out any) error {
	var rec record
	if err := cbor.Unmarshal(blob, &rec); err != nil {
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}
	if rec.V > recordVersion {
		return fmt.Errorf("%w: unsupported record version %d", ErrIntegrity, rec.V)
	}
	aead, err := chacha20poly1305.New(key)
	if err != nil {
		return err
	}
	plaintext, err := aead.Open(nil, rec.Nonce, rec.Cipher, []byte(name))
	if err != nil {
		return fmt.Errorf("%w: record %q", ErrIntegrity, name)
	}
	if err := cbor.Unmarshal(plaintext, out); err != nil {
		return fmt.Errorf("%w: record %q: %v", ErrIntegrity, name, err)
	}
	return nil
}
