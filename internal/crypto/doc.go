// Package crypto exposes the key primitives used by sealwire.
//
// Contents
//
//   - X25519 key pair generation and Diffie–Hellman (Generate, DH)
//   - Ed25519 key generation, signing and verification (GenerateEd25519,
//     SignEd25519, VerifyEd25519)
//   - Fixed-length text encoding of public keys for the wire boundary
//     (ExportPublic, ImportPublic, ImportPrivate)
//   - Short public-key fingerprints for display/logging (Fingerprint)
//
// All functions return the fixed-size array types defined in
// internal/domain to avoid accidental reallocations. Callers should treat
// returned secrets as sensitive and rely on memzero.Zero when practical to
// reduce their lifetime in memory.
package crypto
