package cmd

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gatedfm/core/analytics"
	"gatedfm/db"

	"github.com/spf13/cobra"
)

var playsCmd = &cobra.Command{
	Use:   "plays <productId>",
	Short: "Print play counts of a product from Redis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		rdb, err := db.ConnectRedis(cfg)
		if err != nil {
			return err
		}
		if rdb == nil {
			return errors.New("REDIS_HOST is not set; in-memory counts are only visible through GET /api/plays")
		}
		defer rdb.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		counts, err := analytics.NewRedisStore(rdb).Counts(ctx, args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "product %s: %d plays\n", counts.ProductID, counts.Total)
		indexes := make([]int, 0, len(counts.Tracks))
		for idx := range counts.Tracks {
			indexes = append(indexes, idx)
		}
		sort.Ints(indexes)
		for _, idx := range indexes {
			fmt.Fprintf(out, "  track %3d: %d\n", idx, counts.Tracks[idx])
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(playsCmd)
}
