package datastage

import (
	"sort"

	"pedimento-audit-service/internal/models"
	"pedimento-audit-service/pkg/logger"
)

// LinkResult is the authoritative in-memory dataset produced from one
// archive processing run. Declarations preserve header order; Raw preserves
// archive enumeration order.
type LinkResult struct {
	Declarations []*models.DeclarationRecord `json:"declarations"`
	Raw          []*models.RawRecordFile     `json:"raw"`

	// Rows whose composite key had no matching header are dropped; the
	// counts are surfaced so under-reported declared value is visible.
	OrphanInvoices int `json:"orphanInvoices"`
	OrphanItems    int `json:"orphanItems"`
}

// Declaration returns the declaration with the given composite identifier,
// or nil when absent.
func (lr *LinkResult) Declaration(id string) *models.DeclarationRecord {
	for _, d := range lr.Declarations {
		if d.ID() == id {
			return d
		}
	}
	return nil
}

// SortRawByCode reorders raw record files by record code, then file name.
// Used for raw file listings.
func (lr *LinkResult) SortRawByCode() {
	sort.SliceStable(lr.Raw, func(i, j int) bool {
		if lr.Raw[i].RecordCode != lr.Raw[j].RecordCode {
			return lr.Raw[i].RecordCode < lr.Raw[j].RecordCode
		}
		return lr.Raw[i].FileName < lr.Raw[j].FileName
	})
}

// Link folds parsed rows into DeclarationRecord aggregates. It must run
// only after every entry has been decoded and parsed: headers from any file
// must be visible before items and invoices are attached, regardless of
// archive enumeration order.
//
// Pass order matters. Headers seed the map first; invoice and item rows
// whose key has no header are dropped without backfill.
func Link(
	generals []*models.GeneralData,
	invoices []*models.InvoiceData,
	items []*models.ItemData,
	raw []*models.RawRecordFile,
) *LinkResult {
	log := logger.GetGlobalLogger().WithComponent("linker")

	byKey := make(map[models.DeclarationKey]*models.DeclarationRecord, len(generals))
	order := make([]models.DeclarationKey, 0, len(generals))

	// Pass 1: every header seeds one declaration. A key collision
	// overwrites: the key space models exactly one header per section.
	for _, general := range generals {
		key := general.Key()
		if _, exists := byKey[key]; !exists {
			order = append(order, key)
		}
		byKey[key] = models.NewDeclarationRecord(general)
	}

	result := &LinkResult{Raw: raw}

	// Pass 2: invoices attach to their header, orphans are dropped
	for _, invoice := range invoices {
		record, ok := byKey[invoice.Key()]
		if !ok {
			result.OrphanInvoices++
			continue
		}
		record.AddInvoice(invoice)
	}

	// Pass 3: items attach likewise and accumulate declared USD value
	for _, item := range items {
		record, ok := byKey[item.Key()]
		if !ok {
			result.OrphanItems++
			continue
		}
		record.AddItem(item)
	}

	result.Declarations = make([]*models.DeclarationRecord, 0, len(order))
	for _, key := range order {
		result.Declarations = append(result.Declarations, byKey[key])
	}

	if result.OrphanInvoices > 0 || result.OrphanItems > 0 {
		log.WithFields(logger.Fields{
			"orphan_invoices": result.OrphanInvoices,
			"orphan_items":    result.OrphanItems,
		}).Warn("Dropped rows without a matching declaration header")
	}

	log.WithFields(logger.Fields{
		"declarations": len(result.Declarations),
		"raw_files":    len(result.Raw),
	}).Debug("Linked declaration records")

	return result
}
