package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gatedfm/storage"

	"github.com/spf13/cobra"
)

var storagePrefix string

var storageCmd = &cobra.Command{
	Use:   "storage",
	Short: "Probe the configured object storage backend",
	Example: `  # list objects under a prefix
  gatedfm storage ls -p "albums/"

  # check that a track's object key resolves
  gatedfm storage stat albums/42/01.mp3`,
}

func openBackend(ctx context.Context) (storage.Backend, error) {
	b, err := storage.New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if !storage.Available(b) {
		return nil, errors.New("STORAGE_PROVIDER is none; nothing to probe")
	}
	return b, nil
}

var storageStatCmd = &cobra.Command{
	Use:   "stat <objectKey>",
	Short: "Show metadata of one object",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()
		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		info, err := b.Stat(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "backend:  %s\nkey:      %s\nsize:     %s (%d bytes)\ntype:     %s\nmodified: %s\n",
			b.Name(), info.Key, storage.FormatSize(info.Size), info.Size, info.ContentType,
			info.LastModified.Format(time.RFC3339))
		return nil
	},
}

var storageLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List objects and print bucket stats",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()
		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		lister, ok := b.(storage.Lister)
		if !ok {
			return fmt.Errorf("backend %s cannot list objects", b.Name())
		}
		objects, err := lister.List(ctx, storagePrefix)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		for _, o := range objects {
			fmt.Fprintf(out, "%10s  %s\n", storage.FormatSize(o.Size), o.Key)
		}
		st := storage.Summarize(objects)
		fmt.Fprintf(out, "%d objects, %s", st.TotalObjects, storage.FormatSize(st.TotalSize))
		if !st.LastModified.IsZero() {
			fmt.Fprintf(out, ", last modified %s", st.LastModified.Format("2006-01-02 15:04:05"))
		}
		fmt.Fprintln(out)
		return nil
	},
}

func init() {
	storageLsCmd.Flags().StringVarP(&storagePrefix, "prefix", "p", "", "only list keys with this prefix")
	storageCmd.AddCommand(storageStatCmd, storageLsCmd)
	rootCmd.AddCommand(storageCmd)
}
