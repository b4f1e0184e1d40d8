// Package x3dh implements the Extended Triple Diffie–Hellman key agreement.
//
// Both sides are pure functions over already-unlocked key material; the
// package performs no I/O. The initiator derives a shared secret from a
// peer's published bundle, the responder mirrors the derivation from its
// private pre-keys, and matching inputs produce byte-identical secrets.
//
// The derivation is keyed by a context label that binds both identities and
// both device ids. Labels are canonical and order-independent so either
// party computes the same label regardless of who initiates.
package x3dh
