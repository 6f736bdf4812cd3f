package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/vc-enrich/internal/cache"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the enrichment result cache",
}

var cachePurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete expired entries from a SQL cache backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cache.Open(cmd.Context(), cfg.Cache)
		if err != nil {
			return eris.Wrap(err, "open cache")
		}
		defer store.Close()

		purger, ok := store.(cache.Purger)
		if !ok {
			fmt.Fprintf(cmd.OutOrStdout(), "cache driver %q expires entries on its own; nothing to purge\n", cfg.Cache.Driver)
			return nil
		}

		n, err := purger.PurgeExpired(cmd.Context())
		if err != nil {
			return err
		}
		zap.L().Info("cache purged", zap.String("driver", cfg.Cache.Driver), zap.Int64("deleted", n))
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired entries\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cachePurgeCmd)
	rootCmd.AddCommand(cacheCmd)
}
