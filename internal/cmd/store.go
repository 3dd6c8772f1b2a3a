package cmd

import (
	"context"

	"github.com/quotaguard/quotaguard/internal/core/store"
)

// openStore opens the configured store for a subcommand. The caller owns the
// returned connection.
func openStore(ctx context.Context) (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(ctx, cfg.Store)
}
