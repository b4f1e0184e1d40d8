package types

// DID is the decentralized identifier of an account on the network.
// One DID owns any number of devices.
type DID string

// String returns the string form of the identifier.
func (d DID) String() string { return string(d) }

// DeviceID is the opaque stable identifier of a single device.
type DeviceID string

// String returns the string form of the device identifier.
func (d DeviceID) String() string { return string(d) }

// Fingerprint is a short identifier for public keys presented to users.
type Fingerprint string

// String returns the string form of the fingerprint.
func (f Fingerprint) String() string { return string(f) }

// SessionKey addresses one ratchet session: the remote identity plus the
// remote device the session speaks to.
type SessionKey struct {
	DID      DID      `json:"did"`
	DeviceID DeviceID `json:"device_id"`
}

// String returns the canonical "did|device" form used as a storage key.
func (k SessionKey) String() string {
	return string(k.DID) + "|" + string(k.DeviceID)
}

// RepairResult reports what a bundle self-repair pass did.
type RepairResult int

const (
	// RepairSkipped means a previous pass already confirmed or restored the
	// published bundle during this process lifetime.
	RepairSkipped RepairResult = iota
	// RepairHealthy means the directory already holds our bundle.
	RepairHealthy
	// RepairRepublished means the bundle was missing and has been re-published.
	RepairRepublished
	// RepairNoKeys means there is no local key material to publish.
	RepairNoKeys
)

// String returns a human-readable form for logging.
func (r RepairResult) String() string {
	switch r {
	case RepairSkipped:
		return "skipped"
	case RepairHealthy:
		return "healthy"
	case RepairRepublished:
		return "republished"
	case RepairNoKeys:
		return "no-keys"
	default:
		return "unknown"
	}
}
