package types

// SignedPreKeyPair is the device's medium-term pre-key with its Ed25519
// signature over the public half.
type SignedPreKeyPair struct {
	ID        uint32  `json:"id"`
	Key       KeyPair `json:"key"`
	Signature []byte  `json:"sig"`
}

// OneTimePreKeyPublic is the public half of a one-time pre-key as it appears
// in a published bundle.
type OneTimePreKeyPublic struct {
	ID  uint32       `json:"id"`
	Pub X25519Public `json:"pub"`
}

// DeviceBundle is the private projection of a device's key material. It never
// leaves the encrypted key store.
//
// One-time pre-keys live in an explicit id-to-pair table. Consuming a key
// deletes its entry, and NextOneTimeID only ever grows, so an id is never
// reused within the device's lifetime.
type DeviceBundle struct {
	DID      DID      `json:"did"`
	DeviceID DeviceID `json:"device_id"`

	IdentityKey KeyPair `json:"identity_key"`

	SigningPub  Ed25519Public  `json:"signing_pub"`
	SigningPriv Ed25519Private `json:"signing_priv"`

	SignedPreKey SignedPreKeyPair   `json:"signed_pre_key"`
	OneTime      map[uint32]KeyPair `json:"one_time"`

	NextOneTimeID uint32 `json:"next_one_time_id"`
}

// Public returns the projection of the bundle that is safe to publish.
func (b *DeviceBundle) Public() DeviceBundlePublic {
	pub := DeviceBundlePublic{
		DID:             b.DID,
		DeviceID:        b.DeviceID,
		IdentityKey:     b.IdentityKey.Pub,
		SigningKey:      b.SigningPub,
		SignedPreKeyID:  b.SignedPreKey.ID,
		SignedPreKey:    b.SignedPreKey.Key.Pub,
		SignedPreKeySig: append([]byte(nil), b.SignedPreKey.Signature...),
	}
	for id, kp := range b.OneTime {
		pub.OneTimePreKeys = append(pub.OneTimePreKeys, OneTimePreKeyPublic{ID: id, Pub: kp.Pub})
	}
	return pub
}

// DeviceBundlePublic is the key material one device publishes to the
// directory so other identities can initiate sessions with it.
type DeviceBundlePublic struct {
	DID             DID                   `json:"did"`
	DeviceID        DeviceID              `json:"device_id"`
	IdentityKey     X25519Public          `json:"identity_key"`
	SigningKey      Ed25519Public         `json:"signing_key"`
	SignedPreKeyID  uint32                `json:"signed_pre_key_id"`
	SignedPreKey    X25519Public          `json:"signed_pre_key"`
	SignedPreKeySig []byte                `json:"signed_pre_key_sig"`
	OneTimePreKeys  []OneTimePreKeyPublic `json:"one_time_pre_keys,omitempty"`
}

// SignedBundle wraps a bundle publication with a signature over its CBOR
// encoding, verifiable against the account's long-term signing key.
type SignedBundle struct {
	Bundle    DeviceBundlePublic `json:"bundle"`
	Signature []byte             `json:"signature"`
}
