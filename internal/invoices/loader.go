// Package invoices loads the externally supplied commercial invoice feed.
//
// The invoicing subsystem exports flat CSV files; each line carries at
// minimum an invoice number, a part number, a quantity, and a total
// monetary amount. This loader maps configurable column names (with
// aliases for common vendor variations) onto CommercialInvoiceItem values.
package invoices

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"pedimento-audit-service/internal/models"
	"pedimento-audit-service/pkg/errors"
	"pedimento-audit-service/pkg/logger"

	"github.com/shopspring/decimal"
)

// LoaderConfig holds configuration for invoice feed loading
type LoaderConfig struct {
	InvoiceNoColumn   string
	PartNoColumn      string
	QtyColumn         string
	UnitPriceColumn   string
	TotalAmountColumn string
	DescriptionColumn string
	HasHeader         bool
	Delimiter         rune
	ColumnAliases     map[string]string
}

// DefaultLoaderConfig returns a configuration for the standard feed layout
func DefaultLoaderConfig() *LoaderConfig {
	return &LoaderConfig{
		InvoiceNoColumn:   "invoice_no",
		PartNoColumn:      "part_no",
		QtyColumn:         "qty",
		UnitPriceColumn:   "unit_price",
		TotalAmountColumn: "total_amount",
		DescriptionColumn: "description",
		HasHeader:         true,
		Delimiter:         ',',
		ColumnAliases: map[string]string{
			"invoice":        "invoice_no",
			"invoice_number": "invoice_no",
			"factura":        "invoice_no",
			"part":           "part_no",
			"part_number":    "part_no",
			"numero_parte":   "part_no",
			"quantity":       "qty",
			"cantidad":       "qty",
			"price":          "unit_price",
			"precio":         "unit_price",
			"amount":         "total_amount",
			"total":          "total_amount",
			"importe":        "total_amount",
			"desc":           "description",
			"descripcion":    "description",
		},
	}
}

// Validate validates the loader configuration
func (c *LoaderConfig) Validate() error {
	if strings.TrimSpace(c.InvoiceNoColumn) == "" {
		return fmt.Errorf("invoice number column cannot be empty")
	}
	if strings.TrimSpace(c.PartNoColumn) == "" {
		return fmt.Errorf("part number column cannot be empty")
	}
	if strings.TrimSpace(c.QtyColumn) == "" {
		return fmt.Errorf("quantity column cannot be empty")
	}
	if strings.TrimSpace(c.TotalAmountColumn) == "" {
		return fmt.Errorf("total amount column cannot be empty")
	}
	if c.Delimiter == 0 {
		return fmt.Errorf("delimiter cannot be empty")
	}
	return nil
}

// LoadStats holds statistics about a loading operation
type LoadStats struct {
	TotalLines   int
	ItemsLoaded  int
	LinesSkipped int
	Errors       []string
}

// String returns a human-readable summary of loading statistics
func (ls *LoadStats) String() string {
	return fmt.Sprintf("Loaded %d invoice items from %d lines (%d skipped)",
		ls.ItemsLoaded, ls.TotalLines, ls.LinesSkipped)
}

// Loader reads commercial invoice feed files
type Loader struct {
	config *LoaderConfig
	logger logger.Logger
}

// NewLoader creates a new invoice feed Loader
func NewLoader(config *LoaderConfig) (*Loader, error) {
	if config == nil {
		config = DefaultLoaderConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "invoice_loader", config, err)
	}

	return &Loader{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("invoice_loader"),
	}, nil
}

// LoadFile loads invoice items from a CSV file on disk
func (l *Loader) LoadFile(filePath string) ([]*models.CommercialInvoiceItem, *LoadStats, error) {
	file, err := os.Open(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, errors.ArchiveError(errors.CodeArchiveNotFound, filePath, err)
		}
		return nil, nil, errors.ArchiveError(errors.CodeEntryUnreadable, filePath, err)
	}
	defer file.Close()

	return l.Load(file, filePath)
}

// Load loads invoice items from a CSV stream. Rows with missing required
// fields are skipped and counted; they do not abort the load.
func (l *Loader) Load(r io.Reader, sourceName string) ([]*models.CommercialInvoiceItem, *LoadStats, error) {
	reader := csv.NewReader(r)
	reader.Comma = l.config.Delimiter
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	stats := &LoadStats{}
	columns := l.defaultColumnMap()

	if l.config.HasHeader {
		header, err := reader.Read()
		if err == io.EOF {
			return []*models.CommercialInvoiceItem{}, stats, nil
		}
		if err != nil {
			return nil, stats, errors.ParseError(errors.CodeInvalidFormat, sourceName, 1, "", err)
		}
		stats.TotalLines++

		columns, err = l.resolveColumns(header)
		if err != nil {
			return nil, stats, errors.ParseError(errors.CodeMissingColumn, sourceName, 1, strings.Join(header, ","), err)
		}
	}

	var items []*models.CommercialInvoiceItem
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, stats, errors.ParseError(errors.CodeInvalidFormat, sourceName, stats.TotalLines+1, "", err)
		}
		stats.TotalLines++

		item, rowErr := l.buildItem(record, columns)
		if rowErr != nil {
			stats.LinesSkipped++
			stats.Errors = append(stats.Errors, fmt.Sprintf("line %d: %v", stats.TotalLines, rowErr))
			continue
		}

		items = append(items, item)
		stats.ItemsLoaded++
	}

	l.logger.WithFields(logger.Fields{
		"source":  sourceName,
		"loaded":  stats.ItemsLoaded,
		"skipped": stats.LinesSkipped,
	}).Debug("Loaded commercial invoice feed")

	return items, stats, nil
}

// columnMap maps the logical fields to record indices
type columnMap struct {
	invoiceNo   int
	partNo      int
	qty         int
	unitPrice   int
	totalAmount int
	description int
}

// defaultColumnMap is the positional layout used for headerless feeds
func (l *Loader) defaultColumnMap() columnMap {
	return columnMap{
		invoiceNo:   0,
		partNo:      1,
		qty:         2,
		unitPrice:   3,
		totalAmount: 4,
		description: 5,
	}
}

// resolveColumns locates the configured columns in the header row,
// consulting aliases for vendor-specific names
func (l *Loader) resolveColumns(header []string) (columnMap, error) {
	indexOf := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(name))
		if canonical, ok := l.config.ColumnAliases[name]; ok {
			name = canonical
		}
		indexOf[name] = i
	}

	required := func(column string) (int, error) {
		if i, ok := indexOf[strings.ToLower(column)]; ok {
			return i, nil
		}
		return -1, fmt.Errorf("required column '%s' not found in header", column)
	}
	optional := func(column string) int {
		if i, ok := indexOf[strings.ToLower(column)]; ok {
			return i
		}
		return -1
	}

	var columns columnMap
	var err error

	if columns.invoiceNo, err = required(l.config.InvoiceNoColumn); err != nil {
		return columns, err
	}
	if columns.partNo, err = required(l.config.PartNoColumn); err != nil {
		return columns, err
	}
	if columns.qty, err = required(l.config.QtyColumn); err != nil {
		return columns, err
	}
	if columns.totalAmount, err = required(l.config.TotalAmountColumn); err != nil {
		return columns, err
	}
	columns.unitPrice = optional(l.config.UnitPriceColumn)
	columns.description = optional(l.config.DescriptionColumn)

	return columns, nil
}

func (l *Loader) buildItem(record []string, columns columnMap) (*models.CommercialInvoiceItem, error) {
	get := func(index int) string {
		if index < 0 || index >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[index])
	}

	item := &models.CommercialInvoiceItem{
		InvoiceNo:   get(columns.invoiceNo),
		PartNo:      get(columns.partNo),
		Description: get(columns.description),
		Qty:         parseAmount(get(columns.qty)),
		UnitPrice:   parseAmount(get(columns.unitPrice)),
		TotalAmount: parseAmount(get(columns.totalAmount)),
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// parseAmount parses a feed amount, tolerating currency symbols and
// thousand separators; invalid input maps to zero
func parseAmount(s string) decimal.Decimal {
	return models.ParseDecimalPermissive(s)
}
