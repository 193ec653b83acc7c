package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"certer/internal/certdir"
	"certer/internal/enrollment"
	"certer/internal/server"
)

var (
	enrollCSRFile string
	enrollName    string
	enrollOut     string
)

var enrollCmd = &cobra.Command{
	Use:   "enroll",
	Short: "Submit an existing CSR to the CA and print the issued certificate",
	Example: `  certer enroll --csr srv1.csr
  certer enroll --csr srv1.csr --name srv1 --out srv1.crt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		csr, err := os.ReadFile(enrollCSRFile)
		if err != nil {
			return fmt.Errorf("failed to read CSR: %w", err)
		}

		name := enrollName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(enrollCSRFile), filepath.Ext(enrollCSRFile))
		}
		name = certdir.SanitizeName(name)
		if name == "" {
			return fmt.Errorf("could not derive a certificate name from %q, use --name", enrollCSRFile)
		}

		logger := server.SetupLogger(cfg)

		artifacts, err := certdir.Open(cfg.Certificates.Directory)
		if err != nil {
			return err
		}

		client, err := server.NewEnroller(cfg, artifacts, logger)
		if err != nil {
			return err
		}

		result := client.Enroll(cmd.Context(), enrollment.Request{CSR: string(csr), Name: name})
		if !result.Succeeded() {
			fmt.Fprintln(cmd.ErrOrStderr(), result.Log)
			return fmt.Errorf("enrollment failed: %w", result.Err)
		}

		if result.VerificationOutput != "" {
			fmt.Fprintln(cmd.ErrOrStderr(), strings.TrimSpace(result.VerificationOutput))
		}

		if enrollOut == "" {
			_, err = cmd.OutOrStdout().Write(result.Certificate)
			return err
		}

		if err := os.WriteFile(enrollOut, result.Certificate, 0o644); err != nil {
			return fmt.Errorf("failed to write certificate: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Certificate written to %s\n", enrollOut)
		return nil
	},
}

func init() {
	enrollCmd.Flags().StringVar(&enrollCSRFile, "csr", "", "PEM encoded CSR file")
	enrollCmd.Flags().StringVar(&enrollName, "name", "", "name for the temporary certificate file (default: CSR file name)")
	enrollCmd.Flags().StringVarP(&enrollOut, "out", "o", "", "write the certificate here instead of stdout")
	_ = enrollCmd.MarkFlagRequired("csr")

	rootCmd.AddCommand(enrollCmd)
}
