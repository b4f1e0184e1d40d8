package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sealwire/internal/crypto"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print this device's identity key fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := unlock(); err != nil {
				return err
			}
			bundle, err := wire.Store.LoadDeviceBundle()
			if err != nil {
				return err
			}
			if bundle == nil {
				return fmt.Errorf("device not provisioned; run init first")
			}
			fmt.Println(crypto.Fingerprint(bundle.IdentityKey.Pub.Slice()))
			return nil
		},
	}
}
