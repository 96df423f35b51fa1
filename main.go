package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"VPNLogSift/internal/config"
	"VPNLogSift/internal/logger"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "vpnlogsift",
	Short:         "Sift GlobalProtect PanGP logs into connection sessions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to YAML config (optional, defaults and VPNSIFT_* env apply)")
	rootCmd.AddCommand(newAnalyzeCmd())
	rootCmd.AddCommand(newWatchCmd())
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "vpnlogsift: %v\n", err)
		os.Exit(1)
	}
}

// setup загружает конфиг и поднимает логгер
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	rootLogger, err := logger.InitZap(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, rootLogger, nil
}
