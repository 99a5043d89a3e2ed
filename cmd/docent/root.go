package main

import (
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "docent",
		Short:         "Documentation Q&A assistant grounded in an indexed docs corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newChatCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newIngestCmd())

	return cmd
}
