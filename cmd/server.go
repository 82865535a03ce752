package cmd

import (
	"gatedfm/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the HTTP delivery server",
	Long:    `Start the HTTP server: /stream/{productId}/{trackIndex}, play counts, cache status, health and metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.Start(cfg)
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
