package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"certer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the web interface and API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		srv, err := server.New(cfg)
		if err != nil {
			return fmt.Errorf("failed to initialize server: %w", err)
		}

		return srv.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
