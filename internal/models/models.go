// Package models defines the entities produced by decoding a customs
// Data Stage export and the external commercial invoice line items the
// audit engine reconciles them against.
package models

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DeclarationKey identifies one customs declaration section. It is the
// composite identity used to link header, invoice, and item rows, and it is
// used directly as a map key (structural equality, no string formatting).
type DeclarationKey struct {
	Patente   string
	Pedimento string
	Seccion   string
}

// String renders the key in the patente-pedimento-seccion form used for
// report identifiers.
func (k DeclarationKey) String() string {
	return fmt.Sprintf("%s-%s-%s", k.Patente, k.Pedimento, k.Seccion)
}

// IsZero reports whether all key components are empty
func (k DeclarationKey) IsZero() bool {
	return k.Patente == "" && k.Pedimento == "" && k.Seccion == ""
}

// GeneralData is the 501 header record of a declaration section
type GeneralData struct {
	Patente             string          `json:"patente"`
	Pedimento           string          `json:"pedimento"`
	Seccion             string          `json:"seccion"`
	TipoOperacion       string          `json:"tipoOperacion"`
	ClaveDocumento      string          `json:"claveDocumento"`
	RFC                 string          `json:"rfc"`
	TipoCambio          decimal.Decimal `json:"tipoCambio"`
	PesoBruto           decimal.Decimal `json:"pesoBruto"`
	FechaPago           string          `json:"fechaPago"`
	Fletes              decimal.Decimal `json:"fletes"`
	Seguros             decimal.Decimal `json:"seguros"`
	Embalajes           decimal.Decimal `json:"embalajes"`
	OtrosIncrementables decimal.Decimal `json:"otrosIncrementables"`
}

// Key returns the declaration composite key for this header
func (g *GeneralData) Key() DeclarationKey {
	return DeclarationKey{Patente: g.Patente, Pedimento: g.Pedimento, Seccion: g.Seccion}
}

// InvoiceData is a 505 commercial invoice reference declared on a pedimento
type InvoiceData struct {
	Patente               string          `json:"patente"`
	Pedimento             string          `json:"pedimento"`
	Seccion               string          `json:"seccion"`
	FechaFacturacion      string          `json:"fechaFacturacion"`
	NumeroFactura         string          `json:"numeroFactura"`
	TermFacturacion       string          `json:"termFacturacion"`
	Moneda                string          `json:"moneda"`
	ValorDolares          decimal.Decimal `json:"valorDolares"`
	ValorMonedaExtranjera decimal.Decimal `json:"valorMonedaExtranjera"`
	Proveedor             string          `json:"proveedor"`
	ProveedorCalle        string          `json:"proveedorCalle"`
}

// Key returns the declaration composite key for this invoice row
func (i *InvoiceData) Key() DeclarationKey {
	return DeclarationKey{Patente: i.Patente, Pedimento: i.Pedimento, Seccion: i.Seccion}
}

// ItemData is a 551 declared merchandise line of a pedimento
type ItemData struct {
	Patente                string          `json:"patente"`
	Pedimento              string          `json:"pedimento"`
	Seccion                string          `json:"seccion"`
	Fraccion               string          `json:"fraccion"`
	Secuencia              string          `json:"secuencia"`
	Descripcion            string          `json:"descripcion"`
	PrecioUnitario         decimal.Decimal `json:"precioUnitario"`
	ValorAduana            decimal.Decimal `json:"valorAduana"`
	ValorComercial         decimal.Decimal `json:"valorComercial"`
	ValorDolares           decimal.Decimal `json:"valorDolares"`
	CantidadComercial      decimal.Decimal `json:"cantidadComercial"`
	UnidadMedidaComercial  string          `json:"unidadMedidaComercial"`
	CantidadTarifa         decimal.Decimal `json:"cantidadTarifa"`
	UnidadMedidaTarifa     string          `json:"unidadMedidaTarifa"`

	// Populated by a richer extraction path; may be absent.
	NumeroFactura string `json:"numeroFactura,omitempty"`
	NumeroParte   string `json:"numeroParte,omitempty"`
}

// Key returns the declaration composite key for this item row
func (it *ItemData) Key() DeclarationKey {
	return DeclarationKey{Patente: it.Patente, Pedimento: it.Pedimento, Seccion: it.Seccion}
}

// RawRecordFile holds the tokenized rows of one archive entry. Every
// non-directory entry produces one, regardless of whether its record code
// dispatches to a typed parser.
type RawRecordFile struct {
	FileName   string     `json:"fileName"`
	RecordCode string     `json:"recordCode"`
	Rows       [][]string `json:"rows"`
}

// DeclarationRecord is the aggregate root for one declaration section.
// It is created when a 501 header is parsed and mutated only by the linker;
// after linking completes it is read-only.
type DeclarationRecord struct {
	Key           DeclarationKey   `json:"key"`
	General       *GeneralData     `json:"general"`
	Invoices      []*InvoiceData   `json:"invoices"`
	Items         []*ItemData      `json:"items"`
	TotalValueUsd decimal.Decimal  `json:"totalValueUsd"`
}

// NewDeclarationRecord seeds an aggregate from its 501 header
func NewDeclarationRecord(general *GeneralData) *DeclarationRecord {
	return &DeclarationRecord{
		Key:           general.Key(),
		General:       general,
		Invoices:      []*InvoiceData{},
		Items:         []*ItemData{},
		TotalValueUsd: decimal.Zero,
	}
}

// ID returns the patente-pedimento-seccion identifier string
func (d *DeclarationRecord) ID() string {
	return d.Key.String()
}

// AddInvoice appends an invoice row to the aggregate
func (d *DeclarationRecord) AddInvoice(invoice *InvoiceData) {
	d.Invoices = append(d.Invoices, invoice)
}

// AddItem appends an item row and accumulates its declared USD value
func (d *DeclarationRecord) AddItem(item *ItemData) {
	d.Items = append(d.Items, item)
	d.TotalValueUsd = d.TotalValueUsd.Add(item.ValorDolares)
}

// String returns a string representation of the DeclarationRecord
func (d *DeclarationRecord) String() string {
	return fmt.Sprintf("DeclarationRecord{ID: %s, Items: %d, Invoices: %d, TotalUSD: %s}",
		d.ID(), len(d.Items), len(d.Invoices), d.TotalValueUsd.String())
}

// CommercialInvoiceItem is one line of the externally supplied commercial
// invoice feed. The audit engine treats it as read-only input.
type CommercialInvoiceItem struct {
	InvoiceNo   string          `json:"invoiceNo"`
	PartNo      string          `json:"partNo"`
	Description string          `json:"description,omitempty"`
	Qty         decimal.Decimal `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
}

// Validate performs basic validation on the CommercialInvoiceItem
func (c *CommercialInvoiceItem) Validate() error {
	if strings.TrimSpace(c.InvoiceNo) == "" {
		return fmt.Errorf("invoice number cannot be empty")
	}

	if strings.TrimSpace(c.PartNo) == "" {
		return fmt.Errorf("part number cannot be empty")
	}

	return nil
}

// String returns a string representation of the CommercialInvoiceItem
func (c *CommercialInvoiceItem) String() string {
	return fmt.Sprintf("CommercialInvoiceItem{Invoice: %s, Part: %s, Qty: %s, Total: %s}",
		c.InvoiceNo, c.PartNo, c.Qty.String(), c.TotalAmount.String())
}

// ParseDecimalPermissive parses a decimal value from a Data Stage field.
// Declaration exports routinely carry blank or junk numeric columns; those
// map to zero rather than failing the line. Downstream tolerance properties
// rely on this exact fallback.
func ParseDecimalPermissive(s string) decimal.Decimal {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero
	}

	// Strip currency symbols and thousand separators
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}

	return d
}
