// Package keystore persists the device's long-term key material and all
// per-session ratchet states, encrypted at rest.
//
// Records live in a single bbolt file. Each record is independently sealed
// with ChaCha20-Poly1305 under a storage key derived at unlock time from the
// account password via Argon2id, with a salt bound to the account identity.
// Plaintext key material never touches the disk, and every write is durable
// before the call returns.
//
// A record that exists but fails to open is surfaced as ErrIntegrity, never
// as "absent": masking a corrupted or tampered record as missing data would
// silently restart sessions and discard forward-secrecy state.
package keystore
