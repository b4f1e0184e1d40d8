package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"sealwire/internal/domain"
)

// listen: subscribe to this device's mailbox and print decrypted messages.
// The bundle self-repair loop runs in the background for the duration.
func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Receive and decrypt messages addressed to this device",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := unlock(); err != nil {
				return err
			}
			ctx := cmd.Context()

			wire.Sessions.OnMessage(func(msg domain.Message) {
				fmt.Printf("[%s/%s] %s\n", msg.From, msg.FromDevice, msg.Plaintext)
			})
			go wire.Sessions.RunRepairLoop(ctx)

			return wire.Transport.Listen(ctx, domain.DID(did), domain.DeviceID(deviceID))
		},
	}
}
