package cmd

import (
	"context"
	"fmt"
	"time"

	"gatedfm/db"
	"gatedfm/repository"

	"github.com/spf13/cobra"
)

var grantCmd = &cobra.Command{
	Use:   "grant <requesterId> <productId>",
	Short: "Record a purchase so the requester streams the product in full",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		gdb, err := db.ConnectGormDB(cfg)
		if err != nil {
			return err
		}
		defer db.CloseGormDB(gdb)
		if err := db.AutoMigrate(gdb); err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		if err := repository.NewGormEntitlementRepository(gdb).Grant(ctx, args[0], args[1], time.Now().UTC()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "granted %s full access to %s\n", args[0], args[1])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(grantCmd)
}
