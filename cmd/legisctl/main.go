package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"observatorio/internal/config"
	"observatorio/internal/logging"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    config.Config
	logger *zap.Logger

	dataDirFlag  string
	komDirFlag   string
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "legisctl",
	Short: "Operate the Observatorio legislative repository",
	Long: `legisctl asks grounded questions against the commission repository,
inspects the evidence catalog and validates the collaborator data tree.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadEnvironment,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dataDirFlag, "data-dir", "", "commission repository root (overrides DATA_REPO_DIR)")
	rootCmd.PersistentFlags().StringVar(&komDirFlag, "kom-dir", "", "KOM profile directory (overrides KOM_DIR)")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "log level (overrides LOG_LEVEL)")
}

func loadEnvironment(_ *cobra.Command, _ []string) error {
	_ = godotenv.Load(".env")
	loaded, err := config.Load()
	if err != nil {
		return err
	}
	if dataDirFlag != "" {
		loaded.DataRepoDir = dataDirFlag
	}
	if komDirFlag != "" {
		loaded.KomDir = komDirFlag
	}
	level := loaded.LogLevel
	if logLevelFlag != "" {
		level = logLevelFlag
	} else if os.Getenv("LOG_LEVEL") == "" {
		// Keep the terminal readable unless asked otherwise.
		level = "warn"
	}
	l, err := logging.New("legisctl", level)
	if err != nil {
		return err
	}
	cfg, logger = loaded, l
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
