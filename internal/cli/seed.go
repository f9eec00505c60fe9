package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/blog-api/internal/fixture"
	"github.com/d60-Lab/blog-api/internal/server"
	"github.com/d60-Lab/blog-api/pkg/logger"
)

func (a *app) seedCmd() *cobra.Command {
	var (
		count int
		seed  int64
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert generated demo posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			if count <= 0 {
				return fmt.Errorf("--count must be positive, got %d", count)
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}

			ctx := cmd.Context()
			store, err := server.OpenStore(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			if reset {
				if err := store.DropAll(ctx); err != nil {
					return fmt.Errorf("drop posts: %w", err)
				}
			}
			posts, err := fixture.Seed(ctx, store, fixture.NewGenerator(seed), count)
			if err != nil {
				return err
			}

			total, err := store.Count(ctx)
			if err != nil {
				return fmt.Errorf("count posts: %w", err)
			}
			logger.Info("seed complete",
				zap.Int("inserted", len(posts)),
				zap.Int64("total", total),
				zap.Int64("seed", seed))
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d posts (total %d, seed %d)\n", len(posts), total, seed)
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", fixture.DefaultCount, "number of posts to insert")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	cmd.Flags().BoolVar(&reset, "reset", false, "drop existing posts first")
	return cmd
}
