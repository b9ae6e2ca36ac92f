package datastage

import (
	"testing"

	"pedimento-audit-service/internal/models"

	"github.com/shopspring/decimal"
)

func makeGeneral(patente, pedimento, seccion string) *models.GeneralData {
	return &models.GeneralData{Patente: patente, Pedimento: pedimento, Seccion: seccion}
}

func makeInvoice(patente, pedimento, seccion, factura string) *models.InvoiceData {
	return &models.InvoiceData{
		Patente:       patente,
		Pedimento:     pedimento,
		Seccion:       seccion,
		NumeroFactura: factura,
	}
}

func makeItem(patente, pedimento, seccion, secuencia string, usd float64) *models.ItemData {
	return &models.ItemData{
		Patente:      patente,
		Pedimento:    pedimento,
		Seccion:      seccion,
		Secuencia:    secuencia,
		ValorDolares: decimal.NewFromFloat(usd),
	}
}

func TestLink_AttachesRowsByCompositeKey(t *testing.T) {
	generals := []*models.GeneralData{
		makeGeneral("3842", "4017883", "001"),
		makeGeneral("3842", "4017884", "001"),
	}
	invoices := []*models.InvoiceData{
		makeInvoice("3842", "4017883", "001", "INV-001"),
		makeInvoice("3842", "4017884", "001", "INV-002"),
		makeInvoice("3842", "4017883", "001", "INV-003"),
	}
	items := []*models.ItemData{
		makeItem("3842", "4017883", "001", "1", 100.50),
		makeItem("3842", "4017884", "001", "1", 75.25),
		makeItem("3842", "4017883", "001", "2", 49.50),
	}

	result := Link(generals, invoices, items, nil)

	if len(result.Declarations) != 2 {
		t.Fatalf("Expected 2 declarations, got %d", len(result.Declarations))
	}

	first := result.Declaration("3842-4017883-001")
	if first == nil {
		t.Fatal("Expected declaration 3842-4017883-001")
	}
	if len(first.Invoices) != 2 {
		t.Errorf("Expected 2 invoices on first declaration, got %d", len(first.Invoices))
	}
	if len(first.Items) != 2 {
		t.Errorf("Expected 2 items on first declaration, got %d", len(first.Items))
	}
	if !first.TotalValueUsd.Equal(decimal.NewFromInt(150)) {
		t.Errorf("Expected total 150, got %s", first.TotalValueUsd.String())
	}

	second := result.Declaration("3842-4017884-001")
	if second == nil {
		t.Fatal("Expected declaration 3842-4017884-001")
	}
	if len(second.Items) != 1 {
		t.Errorf("Expected 1 item on second declaration, got %d", len(second.Items))
	}
}

func TestLink_SeccionDistinguishesDeclarations(t *testing.T) {
	generals := []*models.GeneralData{
		makeGeneral("3842", "4017883", "001"),
		makeGeneral("3842", "4017883", "002"),
	}
	items := []*models.ItemData{
		makeItem("3842", "4017883", "002", "1", 50),
	}

	result := Link(generals, nil, items, nil)

	if len(result.Declarations) != 2 {
		t.Fatalf("Expected 2 declarations, got %d", len(result.Declarations))
	}

	if d := result.Declaration("3842-4017883-001"); len(d.Items) != 0 {
		t.Errorf("Expected no items on seccion 001, got %d", len(d.Items))
	}
	if d := result.Declaration("3842-4017883-002"); len(d.Items) != 1 {
		t.Errorf("Expected 1 item on seccion 002, got %d", len(d.Items))
	}
}

func TestLink_OrphansAreCountedAndDropped(t *testing.T) {
	generals := []*models.GeneralData{
		makeGeneral("3842", "4017883", "001"),
	}
	invoices := []*models.InvoiceData{
		makeInvoice("9999", "0000001", "001", "INV-ORPHAN"),
	}
	items := []*models.ItemData{
		makeItem("3842", "4017883", "001", "1", 10),
		makeItem("9999", "0000001", "001", "1", 999),
		makeItem("9999", "0000002", "001", "1", 999),
	}

	result := Link(generals, invoices, items, nil)

	if result.OrphanInvoices != 1 {
		t.Errorf("Expected 1 orphan invoice, got %d", result.OrphanInvoices)
	}
	if result.OrphanItems != 2 {
		t.Errorf("Expected 2 orphan items, got %d", result.OrphanItems)
	}

	d := result.Declaration("3842-4017883-001")
	if len(d.Items) != 1 {
		t.Errorf("Expected 1 linked item, got %d", len(d.Items))
	}
	if !d.TotalValueUsd.Equal(decimal.NewFromInt(10)) {
		t.Errorf("Orphan values must not accumulate, got total %s", d.TotalValueUsd.String())
	}
}

func TestLink_PreservesHeaderOrder(t *testing.T) {
	generals := []*models.GeneralData{
		makeGeneral("3842", "4017885", "001"),
		makeGeneral("3842", "4017883", "001"),
		makeGeneral("3842", "4017884", "001"),
	}

	result := Link(generals, nil, nil, nil)

	expected := []string{"3842-4017885-001", "3842-4017883-001", "3842-4017884-001"}
	for i, id := range expected {
		if result.Declarations[i].ID() != id {
			t.Errorf("Declaration %d: expected %s, got %s", i, id, result.Declarations[i].ID())
		}
	}
}

func TestLink_DuplicateHeaderOverwrites(t *testing.T) {
	first := makeGeneral("3842", "4017883", "001")
	first.RFC = "FIRST"
	second := makeGeneral("3842", "4017883", "001")
	second.RFC = "SECOND"

	result := Link([]*models.GeneralData{first, second}, nil, nil, nil)

	if len(result.Declarations) != 1 {
		t.Fatalf("Expected 1 declaration, got %d", len(result.Declarations))
	}
	if result.Declarations[0].General.RFC != "SECOND" {
		t.Errorf("Expected later header to win, got RFC %s", result.Declarations[0].General.RFC)
	}
}

func TestLink_TotalEqualsSumOfLinkedItems(t *testing.T) {
	generals := []*models.GeneralData{makeGeneral("3842", "4017883", "001")}

	var items []*models.ItemData
	expected := decimal.Zero
	for i, usd := range []float64{10.01, 20.02, 30.03, 0, 99.99} {
		items = append(items, makeItem("3842", "4017883", "001", string(rune('1'+i)), usd))
		expected = expected.Add(decimal.NewFromFloat(usd))
	}

	result := Link(generals, nil, items, nil)

	d := result.Declarations[0]
	if !d.TotalValueUsd.Equal(expected) {
		t.Errorf("Expected total %s, got %s", expected.String(), d.TotalValueUsd.String())
	}
}

func TestLinkResult_SortRawByCode(t *testing.T) {
	raw := []*models.RawRecordFile{
		{FileName: "b_551.txt", RecordCode: "551"},
		{FileName: "a_501.txt", RecordCode: "501"},
		{FileName: "a_551.txt", RecordCode: "551"},
	}

	result := &LinkResult{Raw: raw}
	result.SortRawByCode()

	expected := []string{"a_501.txt", "a_551.txt", "b_551.txt"}
	for i, name := range expected {
		if result.Raw[i].FileName != name {
			t.Errorf("Raw %d: expected %s, got %s", i, name, result.Raw[i].FileName)
		}
	}
}

func TestLinkResult_Declaration_NotFound(t *testing.T) {
	result := Link(nil, nil, nil, nil)
	if d := result.Declaration("0000-0000000-000"); d != nil {
		t.Errorf("Expected nil for unknown declaration, got %v", d)
	}
}
