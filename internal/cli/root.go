package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/reentry/internal/config"
	"github.com/saturnino-fabrica-de-software/reentry/internal/face"
)

var envFile string

// NewRootCmd builds the reentry command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "reentry",
		Short: "Enroll and re-identify faces from the command line",
		Long: `reentry enrolls faces under a name and recognizes them later.

It uses the same configuration as the API server (STORE_BACKEND, STORE_PATH,
DATABASE_URL, DETECTOR, EMBEDDER, DEEPFACE_URL, MATCH_THRESHOLD, ...), read
from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading the environment")

	root.AddCommand(
		newEnrollCmd(),
		newEnrollDirCmd(),
		newRecognizeCmd(),
		newCountCmd(),
		newClearCmd(),
	)
	return root
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openRuntime loads configuration and opens the face store. Logs go to
// stderr so stdout only carries command output.
func openRuntime(cmd *cobra.Command) (*face.Runtime, error) {
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if level == "" {
		level = "warn"
	}
	logger := config.NewLoggerWithLevel(cmd.ErrOrStderr(), cfg.Environment, level)
	slog.SetDefault(logger)

	return face.Open(commandContext(cmd), cfg, logger)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
