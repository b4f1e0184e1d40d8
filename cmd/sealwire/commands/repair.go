package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func repairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Check the directory for this device's bundle and republish if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := unlock(); err != nil {
				return err
			}
			result, err := wire.Sessions.SelfRepair(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Println(result.String())
			return nil
		},
	}
}
