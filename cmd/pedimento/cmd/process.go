package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"pedimento-audit-service/cmd/pedimento/config"
	"pedimento-audit-service/internal/datastage"
	"pedimento-audit-service/internal/reporter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the process command
var (
	archiveFile  string
	outputFormat string
	outputFile   string
	chunkSize    int
	includeRaw   bool
	showProgress bool
)

// processCmd represents the process command
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process a Data Stage archive into declaration records",
	Long: `Process decodes a customs Data Stage export (a ZIP of pipe-delimited
record-type files), links the parsed rows into declaration records, and
prints a declaration listing.

Examples:
  # Basic processing
  pedimento process --archive export.zip

  # JSON output to a file, with raw record file listing
  pedimento process --archive export.zip --output-format json \
    --output-file declarations.json --include-raw

  # With progress indicators
  pedimento process --archive export.zip --progress`,

	PreRunE: validateProcessFlags,
	RunE:    runProcess,
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVarP(&archiveFile, "archive", "a", "", "path to the Data Stage ZIP archive (required)")
	processCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv, xlsx")
	processCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	processCmd.Flags().IntVar(&chunkSize, "chunk-size", 5, "archive entries decoded concurrently per chunk")
	processCmd.Flags().BoolVar(&includeRaw, "include-raw", false, "include raw record file listing")
	processCmd.Flags().BoolVar(&showProgress, "progress", false, "show progress indicators")

	processCmd.MarkFlagRequired("archive")

	viper.BindPFlag("archive", processCmd.Flags().Lookup("archive"))
	viper.BindPFlag("output-format", processCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", processCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("chunk-size", processCmd.Flags().Lookup("chunk-size"))
	viper.BindPFlag("include-raw", processCmd.Flags().Lookup("include-raw"))
	viper.BindPFlag("progress", processCmd.Flags().Lookup("progress"))
}

func validateProcessFlags(cmd *cobra.Command, args []string) error {
	archiveFile = viper.GetString("archive")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	chunkSize = viper.GetInt("chunk-size")
	includeRaw = viper.GetBool("include-raw")
	showProgress = viper.GetBool("progress")

	if archiveFile == "" {
		return fmt.Errorf("archive is required")
	}

	if err := validateFileExists(archiveFile, "archive"); err != nil {
		return err
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true, "xlsx": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv, xlsx", outputFormat)
	}

	if chunkSize <= 0 {
		return fmt.Errorf("chunk size must be positive")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Processing archive: %s\n", archiveFile)
	}

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

	result, err := processor.ProcessFile(ctx, archiveFile)
	if err != nil {
		return err
	}
	if showProgress {
		fmt.Fprintf(os.Stderr, "\n")
	}

	if includeRaw {
		result.SortRawByCode()
	}

	reportConfig := config.CreateReportConfig(outputFormat, includeRaw)
	generator, err := reporter.NewGenerator(reportConfig)
	if err != nil {
		return err
	}

	output, closeOutput, err := openOutput(outputFile)
	if err != nil {
		return err
	}
	defer closeOutput()

	if err := generator.WriteDeclarations(result, output); err != nil {
		return fmt.Errorf("failed to write declaration listing: %w", err)
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "\nProcessed %d declarations from %d record files in %v.\n",
			len(result.Declarations), len(result.Raw), time.Since(start))
		if result.OrphanInvoices > 0 || result.OrphanItems > 0 {
			fmt.Fprintf(os.Stderr, "Dropped orphaned rows: %d invoices, %d items.\n",
				result.OrphanInvoices, result.OrphanItems)
		}
	}

	return nil
}

// openOutput resolves the output destination for report generation
func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	file, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return file, func() { file.Close() }, nil
}
