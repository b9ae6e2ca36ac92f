package config

import (
	"pedimento-audit-service/internal/datastage"
	"pedimento-audit-service/internal/invoices"
	"pedimento-audit-service/internal/reporter"
)

// CreateProcessorConfig creates an archive processor configuration
func CreateProcessorConfig(chunkSize int, progress datastage.ProgressFunc) *datastage.ProcessorConfig {
	config := datastage.DefaultProcessorConfig()

	if chunkSize > 0 {
		config.ChunkSize = chunkSize
	}
	config.Progress = progress

	return config
}

// CreateLoaderConfig creates an invoice feed loader configuration
func CreateLoaderConfig(delimiter string) *invoices.LoaderConfig {
	config := invoices.DefaultLoaderConfig()

	if delimiter != "" {
		config.Delimiter = rune(delimiter[0])
	}

	return config
}

// CreateReportConfig creates a report configuration for the specified output format
func CreateReportConfig(format string, includeRaw bool) *reporter.ReportConfig {
	config := reporter.DefaultReportConfig()

	switch format {
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
		config.CSVHeaders = true
		config.CSVDelimiter = ','
	case "xlsx":
		config.Format = reporter.FormatXLSX
	default:
		config.Format = reporter.FormatConsole
	}

	config.IncludeRawFiles = includeRaw

	return config
}
