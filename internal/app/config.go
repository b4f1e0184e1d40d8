package app

import (
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration that decodes from TOML strings like "5m".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler for TOML decoding.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// Config holds runtime wiring options. Values normally come from the CLI
// flags, optionally pre-filled from a TOML file.
type Config struct {
	Home     string `toml:"home"`      // data directory, e.g. $HOME/.sealwire
	RelayURL string `toml:"relay_url"` // relay base URL, e.g. http://127.0.0.1:8484
	DID      string `toml:"did"`       // this account's identity
	DeviceID string `toml:"device_id"` // this device's stable id
	LogLevel string `toml:"log_level"` // logrus level name, default "info"

	RepairInterval Duration `toml:"repair_interval"` // bundle check period
	RepairBackoff  Duration `toml:"repair_backoff"`  // retry delay after a failed check

	HTTP *http.Client `toml:"-"` // optional; defaults to http.DefaultClient
}

// LoadFile overlays values from a TOML config file onto c. A missing file is
// not an error so the CLI works from flags alone.
func (c *Config) LoadFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return nil
}
