package types

// RatchetState contains all fields the Double Ratchet tracks for one session.
// Exactly one state exists per (local device, remote identity, remote device)
// at any time; every successful encrypt or decrypt mutates it and the result
// must be persisted before the operation is reported as complete.
type RatchetState struct {
	RootKey []byte `json:"root_key"`

	DHPriv X25519Private `json:"dh_priv"`
	DHPub  X25519Public  `json:"dh_pub"`

	// PeerDHPub is the last-seen remote ratchet key. Nil for a receiver that
	// has not yet processed its first inbound message.
	PeerDHPub *X25519Public `json:"peer_dh_pub,omitempty"`

	SendCK []byte `json:"send_ck,omitempty"`
	RecvCK []byte `json:"recv_ck,omitempty"`

	Ns uint32 `json:"ns"`
	Nr uint32 `json:"nr"`
	PN uint32 `json:"pn"`
}

// Clone returns a deep copy. Decrypt works on a clone and commits it only on
// success so a failed AEAD open never advances the live chain.
func (s *RatchetState) Clone() RatchetState {
	out := *s
	out.RootKey = append([]byte(nil), s.RootKey...)
	out.SendCK = append([]byte(nil), s.SendCK...)
	out.RecvCK = append([]byte(nil), s.RecvCK...)
	if s.PeerDHPub != nil {
		peer := *s.PeerDHPub
		out.PeerDHPub = &peer
	}
	return out
}
