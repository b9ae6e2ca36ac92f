package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"pedimento-audit-service/cmd/pedimento/config"
	"pedimento-audit-service/internal/audit"
	"pedimento-audit-service/internal/datastage"
	"pedimento-audit-service/internal/invoices"
	"pedimento-audit-service/internal/models"
	"pedimento-audit-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the audit command
var (
	auditArchiveFile string
	invoiceFile      string
	pedimentoID      string
	invoiceDelimiter string
)

// auditCmd represents the audit command
var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Audit declared items against a commercial invoice feed",
	Long: `Audit processes a Data Stage archive, loads a commercial invoice CSV
feed, and reconciles the declared items of each pedimento against the
invoice lines. Discrepancies are reported with type and severity.

Examples:
  # Audit every declaration in the archive
  pedimento audit --archive export.zip --invoice-file invoices.csv

  # Audit a single pedimento, writing an XLSX report
  pedimento audit --archive export.zip --invoice-file invoices.csv \
    --pedimento 3842-4017883-001 --output-format xlsx --output-file report.xlsx`,

	PreRunE: validateAuditFlags,
	RunE:    runAudit,
}

func init() {
	rootCmd.AddCommand(auditCmd)

	auditCmd.Flags().StringVarP(&auditArchiveFile, "archive", "a", "", "path to the Data Stage ZIP archive (required)")
	auditCmd.Flags().StringVarP(&invoiceFile, "invoice-file", "i", "", "path to the commercial invoice CSV feed (required)")
	auditCmd.Flags().StringVar(&pedimentoID, "pedimento", "", "composite declaration identifier to audit (default: all)")
	auditCmd.Flags().StringVar(&invoiceDelimiter, "invoice-delimiter", ",", "invoice CSV field delimiter")
	auditCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv, xlsx")
	auditCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	auditCmd.Flags().IntVar(&chunkSize, "chunk-size", 5, "archive entries decoded concurrently per chunk")
	auditCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")

	auditCmd.MarkFlagRequired("archive")
	auditCmd.MarkFlagRequired("invoice-file")

	viper.BindPFlag("invoice-file", auditCmd.Flags().Lookup("invoice-file"))
	viper.BindPFlag("pedimento", auditCmd.Flags().Lookup("pedimento"))
	viper.BindPFlag("invoice-delimiter", auditCmd.Flags().Lookup("invoice-delimiter"))
}

func validateAuditFlags(cmd *cobra.Command, args []string) error {
	invoiceFile = viper.GetString("invoice-file")
	pedimentoID = viper.GetString("pedimento")
	invoiceDelimiter = viper.GetString("invoice-delimiter")

	if auditArchiveFile == "" {
		return fmt.Errorf("archive is required")
	}
	if err := validateFileExists(auditArchiveFile, "archive"); err != nil {
		return err
	}

	if invoiceFile == "" {
		return fmt.Errorf("invoice-file is required")
	}
	if err := validateFileExists(invoiceFile, "invoice file"); err != nil {
		return err
	}

	if len(invoiceDelimiter) != 1 {
		return fmt.Errorf("invoice delimiter must be a single character")
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true, "xlsx": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv, xlsx", outputFormat)
	}

	// A workbook holds exactly one report
	if outputFormat == "xlsx" && pedimentoID == "" {
		return fmt.Errorf("xlsx output requires --pedimento to select a single declaration")
	}

	if chunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}

	return nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	var progress datastage.ProgressFunc
	if showProgress {
		progress = func(processed, total int) {
			fmt.Fprintf(os.Stderr, "\r[%d/%d] entries processed", processed, total)
		}
	}

	processorConfig := config.CreateProcessorConfig(chunkSize, progress)
	processor, err := datastage.NewProcessor(processorConfig)
	if err != nil {
		return err
	}

	result, err := processor.ProcessFile(ctx, auditArchiveFile)
	if err != nil {
		return err
	}
	if showProgress {
		fmt.Fprintf(os.Stderr, "\n")
	}

	loaderConfig := config.CreateLoaderConfig(invoiceDelimiter)
	loader, err := invoices.NewLoader(loaderConfig)
	if err != nil {
		return err
	}

	invoiceItems, stats, err := loader.LoadFile(invoiceFile)
	if err != nil {
		return err
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Invoice feed: %s\n", stats)
	}

	targets := result.Declarations
	if pedimentoID != "" {
		declaration := result.Declaration(pedimentoID)
		if declaration == nil {
			return fmt.Errorf("pedimento not found in archive: %s", pedimentoID)
		}
		targets = []*models.DeclarationRecord{declaration}
	}

	reportConfig := config.CreateReportConfig(outputFormat, false)
	generator, err := reporter.NewGenerator(reportConfig)
	if err != nil {
		return err
	}

	output, closeOutput, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeOutput()

	engine := audit.NewEngine()
	totalDiscrepancies := 0
	for _, declaration := range targets {
		report := engine.RunAudit(declaration.ID(), declaration.Items, invoiceItems)
		totalDiscrepancies += report.TotalDiscrepancies

		if err := generator.WriteAuditReport(report, output); err != nil {
			return fmt.Errorf("failed to write audit report for %s: %w", declaration.ID(), err)
		}
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nAudited %d declarations, %d discrepancies, in %v.\n",
			len(targets), totalDiscrepancies, time.Since(start))
	}

	return nil
}
