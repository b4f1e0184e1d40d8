package interfaces

import (
	"context"

	domaintypes "sealwire/internal/domain/types"
)

// Directory is the key-directory collaborator that stores and serves
// published device bundles.
type Directory interface {
	// BundleSet returns every published device bundle for an identity.
	BundleSet(ctx context.Context, did domaintypes.DID) ([]domaintypes.DeviceBundlePublic, error)
	// Publish stores (or replaces) one device's signed public bundle.
	Publish(ctx context.Context, bundle domaintypes.SignedBundle) error
	// Exists reports whether the identity has any published bundle.
	Exists(ctx context.Context, did domaintypes.DID) (bool, error)
}

// Transport moves opaque ciphertext envelopes between devices.
type Transport interface {
	// Deliver hands one envelope to the named recipient device.
	Deliver(ctx context.Context, envelope domaintypes.Envelope) error
	// OnReceive registers the handler invoked for each inbound envelope.
	OnReceive(handler func(domaintypes.Envelope))
}
