package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/blog-api/internal/server"
	"github.com/d60-Lab/blog-api/pkg/logger"
	"github.com/d60-Lab/blog-api/pkg/tracing"
)

func (a *app) serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port > 0 {
				a.cfg.Server.Port = port
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			shutdownTracing, err := tracing.Init(ctx, a.cfg.Tracing)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdownTracing(context.Background()); err != nil {
					logger.Warn("tracing shutdown failed", zap.Error(err))
				}
			}()

			srv, err := server.New(ctx, a.cfg)
			if err != nil {
				return fmt.Errorf("init server: %w", err)
			}
			defer func() {
				if err := srv.Close(); err != nil {
					logger.Warn("close server resources failed", zap.Error(err))
				}
			}()

			return srv.Run(ctx)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "override server.port")
	return cmd
}
