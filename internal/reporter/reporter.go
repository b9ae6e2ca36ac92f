// Package reporter renders audit reports and declaration listings for the
// presentation boundary.
//
// Supported output formats:
//   - Console: human-readable tabular output for terminal display
//   - JSON: structured data for programmatic consumption
//   - CSV: discrepancy rows for spreadsheet applications
//   - XLSX: a workbook with summary and discrepancy sheets
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"pedimento-audit-service/internal/audit"
	"pedimento-audit-service/internal/datastage"
	"pedimento-audit-service/pkg/errors"
	"pedimento-audit-service/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
	FormatXLSX    OutputFormat = "xlsx"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV, FormatXLSX:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration for report generation
type ReportConfig struct {
	Format          OutputFormat
	CSVDelimiter    rune
	CSVHeaders      bool
	IncludeRawFiles bool
}

// DefaultReportConfig returns a configuration with sensible defaults
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:       FormatConsole,
		CSVDelimiter: ',',
		CSVHeaders:   true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	return nil
}

// Generator renders reports in the configured format
type Generator struct {
	config *ReportConfig
	logger logger.Logger
}

// NewGenerator creates a new report Generator
func NewGenerator(config *ReportConfig) (*Generator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report_format", config.Format, err)
	}

	return &Generator{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("reporter"),
	}, nil
}

// WriteAuditReport renders an audit report to the writer
func (g *Generator) WriteAuditReport(report *audit.Report, w io.Writer) error {
	switch g.config.Format {
	case FormatJSON:
		return g.writeJSON(report, w)
	case FormatCSV:
		return g.writeAuditCSV(report, w)
	case FormatXLSX:
		return g.writeAuditXLSX(report, w)
	default:
		return g.writeAuditConsole(report, w)
	}
}

// WriteDeclarations renders a declaration listing to the writer
func (g *Generator) WriteDeclarations(result *datastage.LinkResult, w io.Writer) error {
	switch g.config.Format {
	case FormatJSON:
		return g.writeJSON(result, w)
	case FormatCSV:
		return g.writeDeclarationsCSV(result, w)
	case FormatXLSX:
		return g.writeDeclarationsXLSX(result, w)
	default:
		return g.writeDeclarationsConsole(result, w)
	}
}

func (g *Generator) writeJSON(v interface{}, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (g *Generator) writeAuditConsole(report *audit.Report, w io.Writer) error {
	fmt.Fprintf(w, "AUDIT REPORT %s\n", report.ID)
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 60))
	fmt.Fprintf(w, "Pedimento:      %s\n", report.PedimentoID)
	fmt.Fprintf(w, "Date:           %s\n", report.Date.Format(time.RFC3339))
	fmt.Fprintf(w, "Declared USD:   %s\n", report.TotalValueStats.PedimentoTotal.StringFixed(2))
	fmt.Fprintf(w, "Invoiced USD:   %s\n", report.TotalValueStats.InvoiceTotal.StringFixed(2))
	fmt.Fprintf(w, "Difference:     %s\n", report.TotalValueStats.Difference.StringFixed(2))
	fmt.Fprintf(w, "Discrepancies:  %d\n", report.TotalDiscrepancies)

	if report.TotalDiscrepancies == 0 {
		fmt.Fprintf(w, "\nNo discrepancies found.\n")
		return nil
	}

	fmt.Fprintf(w, "\n%-20s %-10s %-10s %-15s %-15s %-15s\n",
		"TYPE", "SEVERITY", "SEQ", "INVOICE", "DECLARED", "INVOICED")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 90))

	for _, d := range report.Discrepancies {
		fmt.Fprintf(w, "%-20s %-10s %-10s %-15s %-15s %-15s\n",
			d.Type, d.Severity, d.ItemSecuencia, d.InvoiceNo,
			formatValue(d.PedimentoValue), formatValue(d.InvoiceValue))
	}

	return nil
}

func (g *Generator) writeAuditCSV(report *audit.Report, w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = g.config.CSVDelimiter
	defer writer.Flush()

	if g.config.CSVHeaders {
		header := []string{
			"id", "pedimento_id", "item_secuencia", "invoice_no",
			"part_number", "type", "severity", "pedimento_value",
			"invoice_value", "difference", "status", "description",
		}
		if err := writer.Write(header); err != nil {
			return err
		}
	}

	for _, d := range report.Discrepancies {
		record := []string{
			d.ID,
			d.PedimentoID,
			d.ItemSecuencia,
			d.InvoiceNo,
			d.PartNumber,
			string(d.Type),
			string(d.Severity),
			formatValue(d.PedimentoValue),
			formatValue(d.InvoiceValue),
			d.Difference.String(),
			string(d.Status),
			d.Description,
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func (g *Generator) writeAuditXLSX(report *audit.Report, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const summarySheet = "Summary"
	const detailSheet = "Discrepancies"

	f.SetSheetName(f.GetSheetName(0), summarySheet)

	summaryRows := [][]interface{}{
		{"Report ID", report.ID},
		{"Pedimento", report.PedimentoID},
		{"Date", report.Date.Format(time.RFC3339)},
		{"Declared USD", report.TotalValueStats.PedimentoTotal.InexactFloat64()},
		{"Invoiced USD", report.TotalValueStats.InvoiceTotal.InexactFloat64()},
		{"Difference", report.TotalValueStats.Difference.InexactFloat64()},
		{"Discrepancies", report.TotalDiscrepancies},
	}
	for i, row := range summaryRows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(detailSheet); err != nil {
		return err
	}

	header := []interface{}{
		"Type", "Severity", "Sequence", "Invoice", "Part Number",
		"Declared", "Invoiced", "Difference", "Status", "Description",
	}
	if err := f.SetSheetRow(detailSheet, "A1", &header); err != nil {
		return err
	}

	for i, d := range report.Discrepancies {
		row := []interface{}{
			string(d.Type),
			string(d.Severity),
			d.ItemSecuencia,
			d.InvoiceNo,
			d.PartNumber,
			formatValue(d.PedimentoValue),
			formatValue(d.InvoiceValue),
			d.Difference.InexactFloat64(),
			string(d.Status),
			d.Description,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(detailSheet, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func (g *Generator) writeDeclarationsConsole(result *datastage.LinkResult, w io.Writer) error {
	fmt.Fprintf(w, "DECLARATIONS\n")
	fmt.Fprintf(w, "%s\n\n", strings.Repeat("=", 60))
	fmt.Fprintf(w, "%-25s %-8s %-10s %-15s\n", "PEDIMENTO", "ITEMS", "INVOICES", "TOTAL USD")
	fmt.Fprintf(w, "%s\n", strings.Repeat("-", 60))

	for _, d := range result.Declarations {
		fmt.Fprintf(w, "%-25s %-8d %-10d %-15s\n",
			d.ID(), len(d.Items), len(d.Invoices), d.TotalValueUsd.StringFixed(2))
	}

	if result.OrphanInvoices > 0 || result.OrphanItems > 0 {
		fmt.Fprintf(w, "\nOrphaned rows dropped: %d invoices, %d items\n",
			result.OrphanInvoices, result.OrphanItems)
	}

	if g.config.IncludeRawFiles {
		fmt.Fprintf(w, "\n%-30s %-8s %-8s %s\n", "FILE", "CODE", "ROWS", "SCHEMA")
		fmt.Fprintf(w, "%s\n", strings.Repeat("-", 80))
		for _, rf := range result.Raw {
			schema := "-"
			if names := datastage.SchemaFor(rf.RecordCode); names != nil {
				if len(names) > 4 {
					schema = strings.Join(names[:4], ",") + ",..."
				} else {
					schema = strings.Join(names, ",")
				}
			}
			fmt.Fprintf(w, "%-30s %-8s %-8d %s\n", rf.FileName, rf.RecordCode, len(rf.Rows), schema)
		}
	}

	return nil
}

func (g *Generator) writeDeclarationsCSV(result *datastage.LinkResult, w io.Writer) error {
	writer := csv.NewWriter(w)
	writer.Comma = g.config.CSVDelimiter
	defer writer.Flush()

	if g.config.CSVHeaders {
		if err := writer.Write([]string{"pedimento_id", "items", "invoices", "total_value_usd"}); err != nil {
			return err
		}
	}

	for _, d := range result.Declarations {
		record := []string{
			d.ID(),
			fmt.Sprintf("%d", len(d.Items)),
			fmt.Sprintf("%d", len(d.Invoices)),
			d.TotalValueUsd.String(),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func (g *Generator) writeDeclarationsXLSX(result *datastage.LinkResult, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Declarations"
	f.SetSheetName(f.GetSheetName(0), sheet)

	header := []interface{}{"Pedimento", "Items", "Invoices", "Total USD"}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}

	for i, d := range result.Declarations {
		row := []interface{}{
			d.ID(),
			len(d.Items),
			len(d.Invoices),
			d.TotalValueUsd.InexactFloat64(),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return f.Write(w)
}

// formatValue renders a discrepancy value, which is either a decimal
// amount or a sentinel string
func formatValue(v interface{}) string {
	switch value := v.(type) {
	case decimal.Decimal:
		return value.String()
	case string:
		return value
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", value)
	}
}
