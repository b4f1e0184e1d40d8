// Package session orchestrates handshakes and ratchet sessions across all of
// a peer identity's devices, and keeps the local device's published bundle
// consistent with the key directory.
//
// A Manager owns the in-memory session cache (one ratchet state per remote
// identity+device, behind a per-session lock) and writes every ratchet
// advance through to the encrypted key store before reporting success.
// Outbound sends fan one plaintext out to every device bundle the directory
// returns; each device's delivery is independent and failures are isolated.
//
// The manager also runs the bundle self-repair check: a device that holds
// valid local key material while the directory has no bundle for it is
// unreachable until the bundle is re-published.
package session
