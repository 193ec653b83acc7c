package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"certer/internal/config"
	"certer/internal/version"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "certer",
	Short: "Certer issues server certificates from a Windows CA",
	Long: `Certer generates private keys and CSRs for a hostname, submits them to a
Windows certificate authority through its web enrollment pages and keeps the
resulting artifacts in a restricted directory.`,
	Version:      version.GetFullVersion(),
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "path to the configuration file")
}

func loadConfig() (*config.Config, error) {
	return config.LoadConfig(cfgFile)
}
