package models

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestDeclarationKey_String(t *testing.T) {
	tests := []struct {
		name     string
		key      DeclarationKey
		expected string
	}{
		{"full key", DeclarationKey{Patente: "3842", Pedimento: "4017883", Seccion: "001"}, "3842-4017883-001"},
		{"empty components", DeclarationKey{}, "--"},
		{"partial key", DeclarationKey{Patente: "3842"}, "3842--"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.String(); got != tt.expected {
				t.Errorf("DeclarationKey.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestDeclarationKey_IsZero(t *testing.T) {
	tests := []struct {
		name string
		key  DeclarationKey
		want bool
	}{
		{"zero", DeclarationKey{}, true},
		{"patente only", DeclarationKey{Patente: "3842"}, false},
		{"seccion only", DeclarationKey{Seccion: "001"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.IsZero(); got != tt.want {
				t.Errorf("DeclarationKey.IsZero() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDeclarationKey_MapEquality(t *testing.T) {
	a := DeclarationKey{Patente: "3842", Pedimento: "4017883", Seccion: "001"}
	b := DeclarationKey{Patente: "3842", Pedimento: "4017883", Seccion: "001"}
	c := DeclarationKey{Patente: "3842", Pedimento: "4017883", Seccion: "002"}

	m := map[DeclarationKey]int{a: 1}
	if m[b] != 1 {
		t.Error("keys with equal components should index the same map entry")
	}
	if _, ok := m[c]; ok {
		t.Error("keys differing in seccion must not collide")
	}
}

func TestGeneralData_Key(t *testing.T) {
	g := &GeneralData{Patente: "3842", Pedimento: "4017883", Seccion: "001", RFC: "ABC123456XYZ"}

	key := g.Key()
	if key.Patente != "3842" || key.Pedimento != "4017883" || key.Seccion != "001" {
		t.Errorf("GeneralData.Key() = %v, want 3842-4017883-001", key)
	}
}

func TestNewDeclarationRecord(t *testing.T) {
	g := &GeneralData{Patente: "3842", Pedimento: "4017883", Seccion: "001"}

	record := NewDeclarationRecord(g)

	if record.ID() != "3842-4017883-001" {
		t.Errorf("Expected ID '3842-4017883-001', got %s", record.ID())
	}
	if record.General != g {
		t.Error("Expected General to be the seeding header")
	}
	if len(record.Invoices) != 0 || len(record.Items) != 0 {
		t.Error("Expected empty invoice and item slices")
	}
	if !record.TotalValueUsd.Equal(decimal.Zero) {
		t.Errorf("Expected zero total, got %s", record.TotalValueUsd.String())
	}
}

func TestDeclarationRecord_AddItem(t *testing.T) {
	record := NewDeclarationRecord(&GeneralData{Patente: "3842", Pedimento: "4017883", Seccion: "001"})

	record.AddItem(&ItemData{Secuencia: "1", ValorDolares: decimal.NewFromFloat(100.50)})
	record.AddItem(&ItemData{Secuencia: "2", ValorDolares: decimal.NewFromFloat(49.50)})

	if len(record.Items) != 2 {
		t.Errorf("Expected 2 items, got %d", len(record.Items))
	}
	expected := decimal.NewFromInt(150)
	if !record.TotalValueUsd.Equal(expected) {
		t.Errorf("Expected total %s, got %s", expected.String(), record.TotalValueUsd.String())
	}
}

func TestDeclarationRecord_AddInvoice(t *testing.T) {
	record := NewDeclarationRecord(&GeneralData{Patente: "3842", Pedimento: "4017883", Seccion: "001"})

	record.AddInvoice(&InvoiceData{NumeroFactura: "INV-001"})
	record.AddInvoice(&InvoiceData{NumeroFactura: "INV-002"})

	if len(record.Invoices) != 2 {
		t.Errorf("Expected 2 invoices, got %d", len(record.Invoices))
	}
	if !record.TotalValueUsd.Equal(decimal.Zero) {
		t.Error("Invoices must not contribute to the declared total")
	}
}

func TestCommercialInvoiceItem_Validate(t *testing.T) {
	tests := []struct {
		name    string
		item    CommercialInvoiceItem
		wantErr bool
	}{
		{
			name: "valid item",
			item: CommercialInvoiceItem{InvoiceNo: "INV-001", PartNo: "ABC-123", Qty: decimal.NewFromInt(10)},
		},
		{
			name:    "missing invoice number",
			item:    CommercialInvoiceItem{PartNo: "ABC-123"},
			wantErr: true,
		},
		{
			name:    "whitespace invoice number",
			item:    CommercialInvoiceItem{InvoiceNo: "   ", PartNo: "ABC-123"},
			wantErr: true,
		},
		{
			name:    "missing part number",
			item:    CommercialInvoiceItem{InvoiceNo: "INV-001"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDecimalPermissive(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected decimal.Decimal
	}{
		{"plain integer", "100", decimal.NewFromInt(100)},
		{"decimal value", "100.99", decimal.NewFromFloat(100.99)},
		{"surrounding whitespace", "  42.5  ", decimal.NewFromFloat(42.5)},
		{"currency symbol", "$1,234.56", decimal.NewFromFloat(1234.56)},
		{"empty field", "", decimal.Zero},
		{"whitespace only", "   ", decimal.Zero},
		{"junk value", "N/A", decimal.Zero},
		{"mixed junk", "12abc", decimal.Zero},
		{"negative value", "-5.25", decimal.NewFromFloat(-5.25)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseDecimalPermissive(tt.input)
			if !got.Equal(tt.expected) {
				t.Errorf("ParseDecimalPermissive(%q) = %s, want %s", tt.input, got.String(), tt.expected.String())
			}
		})
	}
}
