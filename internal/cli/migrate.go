package cli

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/blog-api/internal/server"
	"github.com/d60-Lab/blog-api/pkg/logger"
)

func (a *app) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the posts table (SQL) or indexes (MongoDB)",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := server.OpenStore(cmd.Context(), a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			logger.Info("migration complete", zap.String("driver", a.cfg.Database.Driver))
			return nil
		},
	}
}
