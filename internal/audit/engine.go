// Package audit reconciles declared pedimento line items against an
// independently sourced commercial invoice feed and reports every mismatch
// as a typed, severity-ranked discrepancy.
//
// Business-data mismatches never raise errors; they only produce
// discrepancy records. The engine fails outright only for structurally
// invalid input, which the caller contract excludes.
package audit

import (
	"time"

	"pedimento-audit-service/internal/models"
	"pedimento-audit-service/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscrepancyType classifies an audit finding
type DiscrepancyType string

const (
	// DiscrepancyMissingInInvoice flags a declared item whose invoice
	// number has no bucket in the commercial feed
	DiscrepancyMissingInInvoice DiscrepancyType = "MISSING_IN_INVOICE"
	// DiscrepancyPartNumber flags a declared part number absent from its
	// invoice
	DiscrepancyPartNumber DiscrepancyType = "PART_NUMBER"
	// DiscrepancyQuantity flags a declared quantity that differs from the
	// invoiced quantity
	DiscrepancyQuantity DiscrepancyType = "QUANTITY"
	// DiscrepancyValueUsd flags a declared USD value outside the invoice
	// value tolerance
	DiscrepancyValueUsd DiscrepancyType = "VALUE_USD"
)

// Severity is a coarse risk ranking, not a regulatory classification
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
)

// Status tracks the review lifecycle of a discrepancy. This core only ever
// creates OPEN discrepancies; collaborators mutate the status afterwards.
type Status string

// StatusOpen is the initial status of every discrepancy
const StatusOpen Status = "OPEN"

// NotAvailable is the sentinel used when a side of a comparison has no
// meaningful value
const NotAvailable = "N/A"

// ValueTolerance is the absolute USD tolerance for the value check. A
// difference strictly greater than this triggers a VALUE_USD discrepancy;
// a difference of exactly 1.00 does not.
var ValueTolerance = decimal.NewFromInt(1)

// Discrepancy is one audit finding. PedimentoValue and InvoiceValue carry
// either a decimal amount or a sentinel string depending on the type;
// Difference is meaningful only when both sides are numeric.
type Discrepancy struct {
	ID             string          `json:"id"`
	PedimentoID    string          `json:"pedimentoId"`
	ItemSecuencia  string          `json:"itemSecuencia"`
	InvoiceNo      string          `json:"invoiceNo"`
	PartNumber     string          `json:"partNumber"`
	Description    string          `json:"description"`
	Type           DiscrepancyType `json:"type"`
	Severity       Severity        `json:"severity"`
	PedimentoValue interface{}     `json:"pedimentoValue"`
	InvoiceValue   interface{}     `json:"invoiceValue"`
	Difference     decimal.Decimal `json:"difference"`
	Status         Status          `json:"status"`
}

// TotalValueStats compares the global declared and invoiced totals
type TotalValueStats struct {
	PedimentoTotal decimal.Decimal `json:"pedimentoTotal"`
	InvoiceTotal   decimal.Decimal `json:"invoiceTotal"`
	Difference     decimal.Decimal `json:"difference"`
}

// Report is the result of one audit invocation. Immutable once returned.
type Report struct {
	ID                 string          `json:"id"`
	Date               time.Time       `json:"date"`
	PedimentoID        string          `json:"pedimentoId"`
	TotalDiscrepancies int             `json:"totalDiscrepancies"`
	TotalValueStats    TotalValueStats `json:"totalValueStats"`
	Discrepancies      []*Discrepancy  `json:"discrepancies"`
}

// Engine runs tolerance-aware reconciliation audits
type Engine struct {
	logger logger.Logger
}

// NewEngine creates a new audit Engine
func NewEngine() *Engine {
	return &Engine{
		logger: logger.GetGlobalLogger().WithComponent("audit_engine"),
	}
}

// invoiceIndex is a two-level lookup: invoice number -> normalized part
// number -> invoice lines. Supports one-to-many consolidation where a single
// declared item corresponds to multiple invoice lines.
type invoiceIndex map[string]map[string][]*models.CommercialInvoiceItem

// RunAudit reconciles the declaration items of one pedimento against the
// commercial invoice feed and returns a fresh report. Discrepancies appear
// in declaration-item iteration order.
func (e *Engine) RunAudit(
	declarationID string,
	items []*models.ItemData,
	invoices []*models.CommercialInvoiceItem,
) *Report {
	report := &Report{
		ID:            uuid.NewString(),
		Date:          time.Now(),
		PedimentoID:   declarationID,
		Discrepancies: []*Discrepancy{},
	}

	index := make(invoiceIndex)
	invoiceTotal := decimal.Zero
	for _, inv := range invoices {
		byPart, ok := index[inv.InvoiceNo]
		if !ok {
			byPart = make(map[string][]*models.CommercialInvoiceItem)
			index[inv.InvoiceNo] = byPart
		}
		normalized := NormalizePartNumber(inv.PartNo)
		byPart[normalized] = append(byPart[normalized], inv)
		invoiceTotal = invoiceTotal.Add(inv.TotalAmount)
	}

	pedimentoTotal := decimal.Zero
	for _, item := range items {
		pedimentoTotal = pedimentoTotal.Add(item.ValorDolares)
		e.auditItem(report, declarationID, item, index)
	}

	report.TotalDiscrepancies = len(report.Discrepancies)
	report.TotalValueStats = TotalValueStats{
		PedimentoTotal: pedimentoTotal,
		InvoiceTotal:   invoiceTotal,
		Difference:     pedimentoTotal.Sub(invoiceTotal),
	}

	e.logger.WithFields(logger.Fields{
		"pedimento_id":  declarationID,
		"items":         len(items),
		"invoice_lines": len(invoices),
		"discrepancies": report.TotalDiscrepancies,
	}).Info("Audit completed")

	return report
}

// auditItem runs the per-item checks in order: invoice presence, part
// number presence, then the independent quantity and value checks.
func (e *Engine) auditItem(
	report *Report,
	declarationID string,
	item *models.ItemData,
	index invoiceIndex,
) {
	byPart, ok := index[item.NumeroFactura]
	if !ok {
		report.Discrepancies = append(report.Discrepancies, &Discrepancy{
			ID:             uuid.NewString(),
			PedimentoID:    declarationID,
			ItemSecuencia:  item.Secuencia,
			InvoiceNo:      item.NumeroFactura,
			PartNumber:     item.NumeroParte,
			Description:    "Declared item has no matching commercial invoice",
			Type:           DiscrepancyMissingInInvoice,
			Severity:       SeverityCritical,
			PedimentoValue: item.ValorDolares,
			InvoiceValue:   decimal.Zero,
			Difference:     item.ValorDolares,
			Status:         StatusOpen,
		})
		return
	}

	matched := byPart[NormalizePartNumber(item.NumeroParte)]
	if len(matched) == 0 {
		declaredPart := item.NumeroParte
		if declaredPart == "" {
			declaredPart = NotAvailable
		}
		report.Discrepancies = append(report.Discrepancies, &Discrepancy{
			ID:             uuid.NewString(),
			PedimentoID:    declarationID,
			ItemSecuencia:  item.Secuencia,
			InvoiceNo:      item.NumeroFactura,
			PartNumber:     item.NumeroParte,
			Description:    "Declared part number not found on the invoice",
			Type:           DiscrepancyPartNumber,
			Severity:       SeverityHigh,
			PedimentoValue: declaredPart,
			InvoiceValue:   NotAvailable,
			Difference:     decimal.Zero,
			Status:         StatusOpen,
		})
		return
	}

	// Aggregate across every matched line: one declared item may
	// consolidate several invoice lines.
	invQty := decimal.Zero
	invTotal := decimal.Zero
	for _, line := range matched {
		invQty = invQty.Add(line.Qty)
		invTotal = invTotal.Add(line.TotalAmount)
	}

	// Quantity and value checks are independent compliance signals; an
	// item may emit both discrepancies.
	if !item.CantidadComercial.Equal(invQty) {
		report.Discrepancies = append(report.Discrepancies, &Discrepancy{
			ID:             uuid.NewString(),
			PedimentoID:    declarationID,
			ItemSecuencia:  item.Secuencia,
			InvoiceNo:      item.NumeroFactura,
			PartNumber:     item.NumeroParte,
			Description:    "Declared quantity differs from invoiced quantity",
			Type:           DiscrepancyQuantity,
			Severity:       SeverityCritical,
			PedimentoValue: item.CantidadComercial,
			InvoiceValue:   invQty,
			Difference:     item.CantidadComercial.Sub(invQty),
			Status:         StatusOpen,
		})
	}

	valueDiff := item.ValorDolares.Sub(invTotal)
	if valueDiff.Abs().GreaterThan(ValueTolerance) {
		report.Discrepancies = append(report.Discrepancies, &Discrepancy{
			ID:             uuid.NewString(),
			PedimentoID:    declarationID,
			ItemSecuencia:  item.Secuencia,
			InvoiceNo:      item.NumeroFactura,
			PartNumber:     item.NumeroParte,
			Description:    "Declared USD value outside invoice tolerance",
			Type:           DiscrepancyValueUsd,
			Severity:       SeverityHigh,
			PedimentoValue: item.ValorDolares,
			InvoiceValue:   invTotal,
			Difference:     valueDiff,
			Status:         StatusOpen,
		})
	}
}
