package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/banterlab/vetta/internal/cache"
	"github.com/banterlab/vetta/internal/projectconfig"
)

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the generation cache",
		Long: `Manage the durable generation cache.

The cache stores generated questions and answer evaluations keyed by their
inputs, so repeated turns with the same context skip the model call.`,
	}

	cmd.AddCommand(newCacheStatsCommand())
	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func openCacheDB() (*cache.Durable, error) {
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, err
	}
	path := cfg.Cache.Path
	if path == "" {
		path = filepath.Join(cfg.DataDir, "cache.db")
	}
	return cache.OpenDurable(path, cfg.Cache.DurableCapacity, time.Duration(cfg.Cache.TTLMinutes)*time.Minute)
}

func newCacheStatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			durable, err := openCacheDB()
			if err != nil {
				return err
			}
			defer durable.Close() //nolint:errcheck

			n, err := durable.Len()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Durable cache entries: %d\n", n)
			return nil
		},
	}
}

func newCacheClearCommand() *cobra.Command {
	var expiredOnly bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear the generation cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			durable, err := openCacheDB()
			if err != nil {
				return err
			}
			defer durable.Close() //nolint:errcheck

			if expiredOnly {
				n, err := durable.Purge()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d expired entries\n", n)
				return nil
			}

			if err := durable.Clear(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&expiredOnly, "expired", false, "Remove only entries past their TTL")

	return cmd
}
