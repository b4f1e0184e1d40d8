package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sealwire/internal/app"
	"sealwire/internal/domain"
)

var (
	cfgFile  string
	home     string
	relayURL string
	did      string
	deviceID string
	password string
	logLevel string

	wire *app.Wire
)

// Execute runs the sealwire CLI.
func Execute() error {
	root := &cobra.Command{
		Use:           "sealwire",
		Short:         "End-to-end encrypted messaging core for federated chat",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config{}
			if cfgFile != "" {
				if err := cfg.LoadFile(cfgFile); err != nil {
					return err
				}
			}
			// Flags win over the config file.
			if home != "" {
				cfg.Home = home
			}
			if cfg.Home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				cfg.Home = filepath.Join(dir, ".sealwire")
			}
			if relayURL != "" {
				cfg.RelayURL = relayURL
			}
			if did != "" {
				cfg.DID = did
			}
			if deviceID != "" {
				cfg.DeviceID = deviceID
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			if cfg.DID == "" || cfg.DeviceID == "" {
				return fmt.Errorf("identity required: set --did and --device (or a config file)")
			}
			did, deviceID = cfg.DID, cfg.DeviceID

			var err error
			wire, err = app.NewWire(cfg)
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire != nil {
				return wire.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "TOML config file")
	root.PersistentFlags().StringVar(&home, "home", "", "data dir (default ~/.sealwire)")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8484)")
	root.PersistentFlags().StringVar(&did, "did", "", "account identity (DID)")
	root.PersistentFlags().StringVar(&deviceID, "device", "", "this device's id")
	root.PersistentFlags().StringVarP(&password, "password", "p", "", "password protecting local keys")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(initCmd(), publishCmd(), sendCmd(), listenCmd(), repairCmd(), fingerprintCmd())
	return root.Execute()
}

// unlock derives the storage key for the configured account.
func unlock() error {
	if password == "" {
		return fmt.Errorf("password required (-p)")
	}
	return wire.Store.Unlock(password, domain.DID(did))
}
