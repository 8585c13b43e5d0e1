package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/mselser95/swapgate/internal/app"
	"github.com/mselser95/swapgate/pkg/config"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the settlement service",
	Long: `Starts the swapgate service, which will:
1. Connect the configured price oracle (fixed or websocket feed)
2. Serve the admin and status HTTP API
3. Gate incoming trades through the validation pipeline
4. Settle approved trades through the custody engine

Configuration is read from the environment (.env supported).`,
	RunE: runService,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runService(cmd *cobra.Command, args []string) error {
	// .env is optional; environment variables win either way
	_ = godotenv.Load()

	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
