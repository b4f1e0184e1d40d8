package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sealwire/internal/domain"
)

// send <did> <message>: encrypt and send a message to every device of <did>.
func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <did> <message>",
		Short: "Encrypt and send a message to every device of an identity",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := unlock(); err != nil {
				return err
			}
			if err := wire.Sessions.SendToIdentity(cmd.Context(), domain.DID(args[0]), []byte(args[1])); err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}
}
