// Package ratchet implements the Double Ratchet message encryption engine.
//
// Each session holds one mutable state (domain.RatchetState). Every encrypt
// advances the sending chain; every direction change advances the
// Diffie–Hellman ratchet. The caller owns persistence: an updated state must
// be written through to the key store before the message it produced or
// consumed is considered handled, and Encrypt must never run twice against
// the same unpersisted state or two messages share a message key.
//
// Chains are strictly ordered. Skipped message keys are not buffered, so a
// message arriving after its chain has advanced past it (out-of-order
// delivery or replay) fails with ErrDecrypt and cannot be recovered later.
// Bounded skipped-key caching as described in Signal's Double Ratchet paper
// is a known gap left out of this engine on purpose.
package ratchet
