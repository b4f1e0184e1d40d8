package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
home = "/tmp/sealwire"
relay_url = "http://127.0.0.1:8484"
did = "did:alice"
device_id = "phone"
log_level = "debug"
repair_interval = "2m"
repair_backoff = "10s"
`), 0o600))

	var cfg Config
	require.NoError(t, cfg.LoadFile(path))

	require.Equal(t, "/tmp/sealwire", cfg.Home)
	require.Equal(t, "did:alice", cfg.DID)
	require.Equal(t, "phone", cfg.DeviceID)
	require.Equal(t, 2*time.Minute, time.Duration(cfg.RepairInterval))
	require.Equal(t, 10*time.Second, time.Duration(cfg.RepairBackoff))
}

func TestLoadFile_MissingFileIsNotAnError(t *testing.T) {
	cfg := Config{DID: "did:flags"}
	require.NoError(t, cfg.LoadFile(filepath.Join(t.TempDir(), "absent.toml")))
	require.Equal(t, "did:flags", cfg.DID)
}

func TestLoadFile_BadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`repair_interval = "soon"`), 0o600))

	var cfg Config
	require.Error(t, cfg.LoadFile(path))
}
