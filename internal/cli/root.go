package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/blog-api/config"
	"github.com/d60-Lab/blog-api/pkg/logger"
)

// app 子命令共享的状态，由 PersistentPreRunE 填充
type app struct {
	configPath string
	cfg        *config.Config
}

// NewRootCmd 构建 blog-api 命令树
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:               "blog-api",
		Short:             "Blog posts REST API",
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		SilenceUsage:      true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFrom(a.configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default ./config/config.yaml)")

	root.AddCommand(a.serveCmd(), a.migrateCmd(), a.seedCmd())
	return root
}

// Execute 入口
func Execute() error {
	return NewRootCmd().Execute()
}
