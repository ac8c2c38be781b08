package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terra-energy/inspecciones/internal/services/checklists"
	"github.com/terra-energy/inspecciones/internal/services/documents"
	"github.com/terra-energy/inspecciones/internal/utils"
)

// migrateCmd synchronizes the database schema
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
		return nil
	},
}

var checklistCmd = &cobra.Command{
	Use:   "checklist",
	Short: "Manage checklist definitions",
}

// checklistImportCmd publishes a YAML checklist definition
var checklistImportCmd = &cobra.Command{
	Use:   "import FILE.yaml",
	Short: "Publish a checklist definition from a YAML file",
	Long: `Publish a new immutable checklist version. The version must be valid
semver and greater than every version already published for the same code.
When the definition names a tipoInspeccionId, that job type is pointed at
the new version.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		c, _, err := checklists.New(db, logger).ImportYAML(cmd.Context(), f)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published %s %s (%s)\n", c.Codigo, c.Version, c.ID)
		return nil
	},
}

var renderOut string

// renderCmd writes the certificate of a document to disk
var renderCmd = &cobra.Command{
	Use:   "render DOCUMENT_ID",
	Short: "Render the certificate PDF of a document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		svc := documents.New(db, nil, nil, documents.NewHTTPFetcher(cfg.Documents.ImageFetchTimeout, cfg.Documents.AllowedImageHosts()...), documents.Config{
			BaseURL:        cfg.BaseURL,
			DocumentCode:   cfg.Documents.Code,
			NumberPrefix:   cfg.Documents.NumberPrefix,
			CompanyLogoURL: cfg.Documents.CompanyLogoURL,
		}, logger)

		pdf, numero, err := svc.RenderPDF(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := renderOut
		if out == "" {
			out = fmt.Sprintf("informe-%s.pdf", numero)
		}
		if err := os.WriteFile(out, pdf, 0o644); err != nil {
			return err
		}
		logger.Info("certificate rendered", zap.String("numero", numero), zap.String("file", out), zap.Int("bytes", len(pdf)))
		return nil
	},
}

var (
	tokenSub  string
	tokenRole string
	tokenTTL  time.Duration
)

// tokenCmd signs an API token with the configured secret
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Sign an API token for a service account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenSub == "" {
			return fmt.Errorf("--sub is required")
		}
		tok, err := utils.GenerateToken(tokenSub, tokenRole, tokenTTL, cfg.JWTSecret)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), tok)
		return nil
	},
}

func init() {
	checklistCmd.AddCommand(checklistImportCmd)

	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "", "output file (default informe-NUMERO.pdf)")

	tokenCmd.Flags().StringVar(&tokenSub, "sub", "", "token subject")
	tokenCmd.Flags().StringVar(&tokenRole, "role", "inspector", "role claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
}
