package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func publishCmd() *cobra.Command {
	var replenish int

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Re-publish this device's public bundle to the directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := unlock(); err != nil {
				return err
			}
			if replenish > 0 {
				if err := wire.Sessions.ReplenishOneTimeKeys(cmd.Context(), replenish); err != nil {
					return err
				}
				fmt.Printf("minted %d one-time pre-keys and published\n", replenish)
				return nil
			}
			if err := wire.Sessions.PublishBundle(cmd.Context()); err != nil {
				return err
			}
			fmt.Println("published")
			return nil
		},
	}
	cmd.Flags().IntVar(&replenish, "replenish", 0, "also mint this many fresh one-time pre-keys")
	return cmd
}
