package domain

import (
	interfaces "sealwire/internal/domain/interfaces"
	types "sealwire/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	DID                 = types.DID
	DeviceID            = types.DeviceID
	Fingerprint         = types.Fingerprint
	SessionKey          = types.SessionKey
	RepairResult        = types.RepairResult
	KeyPair             = types.KeyPair
	X25519Public        = types.X25519Public
	X25519Private       = types.X25519Private
	Ed25519Public       = types.Ed25519Public
	Ed25519Private      = types.Ed25519Private
	SignedPreKeyPair    = types.SignedPreKeyPair
	OneTimePreKeyPublic = types.OneTimePreKeyPublic
	DeviceBundle        = types.DeviceBundle
	DeviceBundlePublic  = types.DeviceBundlePublic
	SignedBundle        = types.SignedBundle
	PreKeyAttachment    = types.PreKeyAttachment
	RatchetHeader       = types.RatchetHeader
	Envelope            = types.Envelope
	Message             = types.Message
	RatchetState        = types.RatchetState
)

// Re-exported repair outcomes.
const (
	RepairSkipped     = types.RepairSkipped
	RepairHealthy     = types.RepairHealthy
	RepairRepublished = types.RepairRepublished
	RepairNoKeys      = types.RepairNoKeys
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	Directory = interfaces.Directory
	Transport = interfaces.Transport
	KeyStore  = interfaces.KeyStore
)
