package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sealwire/internal/session"
)

func initCmd() *cobra.Command {
	var oneTimeCount int

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate this device's key material and publish its bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := unlock(); err != nil {
				return err
			}
			fp, err := wire.Sessions.Provision(cmd.Context(), oneTimeCount)
			if err != nil {
				return err
			}
			fmt.Printf("Device provisioned.\nIdentity fingerprint: %s\n", fp)
			return nil
		},
	}
	cmd.Flags().IntVar(&oneTimeCount, "one-time-keys", session.DefaultOneTimeKeyCount, "number of one-time pre-keys to mint")
	return cmd
}
