package types

// PreKeyAttachment carries the X3DH handshake parameters on the first
// envelope of a session. It is absent on every later message.
type PreKeyAttachment struct {
	InitiatorIdentityKey X25519Public `json:"initiator_identity_key"`
	EphemeralKey         X25519Public `json:"ephemeral_key"`
	SignedPreKeyID       uint32       `json:"signed_pre_key_id"`
	OneTimePreKeyID      *uint32      `json:"one_time_pre_key_id,omitempty"`
}

// RatchetHeader is sent alongside every ciphertext.
type RatchetHeader struct {
	DHPub               X25519Public      `json:"dh_pub"`
	PreviousChainLength uint32            `json:"pn"`
	MessageIndex        uint32            `json:"n"`
	PreKey              *PreKeyAttachment `json:"pre_key,omitempty"`
}

// Envelope is the wire message the transport moves between devices. It is
// opaque to every collaborator except the ratchet engine, and immutable once
// constructed.
type Envelope struct {
	SenderDID         DID           `json:"sender_did"`
	SenderDeviceID    DeviceID      `json:"sender_device_id"`
	RecipientDID      DID           `json:"recipient_did"`
	RecipientDeviceID DeviceID      `json:"recipient_device_id"`
	Header            RatchetHeader `json:"header"`
	IV                []byte        `json:"iv"`
	Ciphertext        []byte        `json:"ciphertext"`
	SentAt            int64         `json:"sent_at"`
}

// SessionKey returns the local session key an inbound envelope maps to.
func (e Envelope) SessionKey() SessionKey {
	return SessionKey{DID: e.SenderDID, DeviceID: e.SenderDeviceID}
}

// Message is a decrypted inbound message handed to the application.
type Message struct {
	From       DID      `json:"from"`
	FromDevice DeviceID `json:"from_device"`
	Plaintext  []byte   `json:"plaintext"`
	SentAt     int64    `json:"sent_at"`
}
