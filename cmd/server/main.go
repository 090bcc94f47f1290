package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/studysync/studysync-server/internal/app"
	"github.com/studysync/studysync-server/internal/config"
	"github.com/studysync/studysync-server/internal/log"
)

var (
	flagConfig   string
	flagAddr     string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "studysync-server",
	Short: "StudySync real-time server",
	Long: `studysync-server runs the StudySync backend: a WebSocket hub for
presence, chat, typing indicators, and video call signaling, plus the
REST API for accounts and message history.`,
	RunE: runServer,
}

func init() {
	rootCmd.Flags().StringVarP(&flagConfig, "config", "c", "", "path to config file")
	rootCmd.Flags().StringVar(&flagAddr, "addr", "", "HTTP listen address (overrides config)")
	rootCmd.Flags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error (overrides config)")
}

func runServer(cmd *cobra.Command, _ []string) error {
	bootstrapLogger := log.New("info")

	cfg, configPath, err := config.Load(bootstrapLogger, flagConfig)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", configPath).Str("addr", cfg.Addr).Msg("starting studysync server")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	logger.Info().Msg("server stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
