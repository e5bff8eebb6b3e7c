package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/gll/lsp"
)

func newLSPCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.config()
			if err != nil {
				return err
			}
			server, err := lsp.NewServer(cfg, version)
			if err != nil {
				return err
			}
			return server.RunStdio()
		},
	}
}
