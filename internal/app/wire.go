package app

import (
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"sealwire/internal/directory"
	"sealwire/internal/domain"
	"sealwire/internal/keystore"
	"sealwire/internal/session"
	"sealwire/internal/transport"
)

// Wire bundles the store, collaborator clients and session manager.
type Wire struct {
	Store     domain.KeyStore
	Directory domain.Directory
	Transport *transport.Client
	Sessions  *session.Manager
	Log       *logrus.Logger
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	log := logrus.New()
	if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		log.SetLevel(level)
	}

	if err := os.MkdirAll(cfg.Home, 0o700); err != nil {
		return nil, err
	}
	store, err := keystore.Open(filepath.Join(cfg.Home, "keystore.db"))
	if err != nil {
		return nil, err
	}

	httpClient := cfg.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	dir := directory.New(cfg.RelayURL, httpClient)
	tr := transport.New(cfg.RelayURL, httpClient, log)

	sessions := session.NewManager(session.Config{
		DID:            domain.DID(cfg.DID),
		DeviceID:       domain.DeviceID(cfg.DeviceID),
		RepairInterval: time.Duration(cfg.RepairInterval),
		RepairBackoff:  time.Duration(cfg.RepairBackoff),
	}, store, dir, tr, log)
	sessions.Bind(tr)

	return &Wire{
		Store:     store,
		Directory: dir,
		Transport: tr,
		Sessions:  sessions,
		Log:       log,
	}, nil
}

// Close releases the key store.
func (w *Wire) Close() error { return w.Store.Close() }
