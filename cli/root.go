// Package cli defines the skywise command tree.
package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/skywise-ai/skywise/pkg/logger"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "skywise",
		Short: "Airline policy assistant",
		Long:  "Answers natural-language questions about airline policies, grounded in indexed policy documents.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// .env is optional; explicit environment always wins.
			_ = godotenv.Load()
			logLevel, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
			if err != nil {
				return err
			}
			logger.SetupLogger(logLevel, logJSON, logSource)
			return nil
		},
	}
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().Bool("log-json", false, "log in JSON format")
	root.PersistentFlags().Bool("log-source", false, "log source file and line")

	root.AddCommand(
		ServeCmd(),
		IngestCmd(),
	)
	return root
}
