package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quotaguard/quotaguard/internal/cache"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired cache rows",
	Long: `Delete cache rows whose TTL has elapsed. The database backend only
removes expired rows lazily on read, so run this periodically to keep the
cache table small.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		removed, err := cache.NewDatabase(db.DB).CleanupExpired(cmd.Context())
		if err != nil {
			return err
		}

		fmt.Printf("removed %d expired cache entries\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
}
