package datastage

import (
	"strings"

	"pedimento-audit-service/internal/archive"
	"pedimento-audit-service/internal/models"
	"pedimento-audit-service/pkg/errors"
)

// ParsedEntry holds the output of decoding and parsing one archive entry.
// Raw is always populated; the typed slices are populated only for the
// record codes this core dispatches on.
type ParsedEntry struct {
	Raw      *models.RawRecordFile
	Generals []*models.GeneralData
	Invoices []*models.InvoiceData
	Items    []*models.ItemData
}

// ParseEntry decodes one archive entry and maps its rows into typed
// entities according to the entry's record code.
func ParseEntry(fileName string, data []byte) (*ParsedEntry, error) {
	lines, err := DecodeLines(data)
	if err != nil {
		return nil, errors.DecodeError(fileName, err)
	}

	code := archive.ClassifyRecordCode(fileName)

	result := &ParsedEntry{
		Raw: &models.RawRecordFile{
			FileName:   fileName,
			RecordCode: code,
			Rows:       make([][]string, 0, len(lines)),
		},
	}

	for _, line := range lines {
		fields := TokenizeLine(line)
		result.Raw.Rows = append(result.Raw.Rows, fields)

		if !IsTypedCode(code) {
			continue
		}

		if isLabelRow(line) {
			continue
		}

		if len(fields) < MinFieldCount {
			// Malformed short row, silently discarded
			continue
		}

		switch code {
		case CodeGeneral:
			result.Generals = append(result.Generals, parseGeneral(fields))
		case CodeInvoice:
			result.Invoices = append(result.Invoices, parseInvoice(fields))
		case CodeItem:
			result.Items = append(result.Items, parseItem(fields))
		}
	}

	return result, nil
}

// isLabelRow reports whether a line is a header/label row accidentally
// included in the data stream
func isLabelRow(line string) bool {
	for _, prefix := range labelPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func parseGeneral(fields []string) *models.GeneralData {
	return &models.GeneralData{
		Patente:             fieldAt(fields, general501Patente),
		Pedimento:           fieldAt(fields, general501Pedimento),
		Seccion:             fieldAt(fields, general501Seccion),
		TipoOperacion:       fieldAt(fields, general501TipoOperacion),
		ClaveDocumento:      fieldAt(fields, general501ClaveDocumento),
		RFC:                 fieldAt(fields, general501RFC),
		TipoCambio:          models.ParseDecimalPermissive(fieldAt(fields, general501TipoCambio)),
		PesoBruto:           models.ParseDecimalPermissive(fieldAt(fields, general501PesoBruto)),
		FechaPago:           fieldAt(fields, general501FechaPago),
		Fletes:              models.ParseDecimalPermissive(fieldAt(fields, general501Fletes)),
		Seguros:             models.ParseDecimalPermissive(fieldAt(fields, general501Seguros)),
		Embalajes:           models.ParseDecimalPermissive(fieldAt(fields, general501Embalajes)),
		OtrosIncrementables: models.ParseDecimalPermissive(fieldAt(fields, general501OtrosIncrementables)),
	}
}

func parseInvoice(fields []string) *models.InvoiceData {
	return &models.InvoiceData{
		Patente:               fieldAt(fields, invoice505Patente),
		Pedimento:             fieldAt(fields, invoice505Pedimento),
		Seccion:               fieldAt(fields, invoice505Seccion),
		FechaFacturacion:      fieldAt(fields, invoice505FechaFacturacion),
		NumeroFactura:         fieldAt(fields, invoice505NumeroFactura),
		TermFacturacion:       fieldAt(fields, invoice505TermFacturacion),
		Moneda:                fieldAt(fields, invoice505Moneda),
		ValorDolares:          models.ParseDecimalPermissive(fieldAt(fields, invoice505ValorDolares)),
		ValorMonedaExtranjera: models.ParseDecimalPermissive(fieldAt(fields, invoice505ValorMonedaExtranjera)),
		Proveedor:             fieldAt(fields, invoice505Proveedor),
		ProveedorCalle:        fieldAt(fields, invoice505ProveedorCalle),
	}
}

func parseItem(fields []string) *models.ItemData {
	return &models.ItemData{
		Patente:               fieldAt(fields, item551Patente),
		Pedimento:             fieldAt(fields, item551Pedimento),
		Seccion:               fieldAt(fields, item551Seccion),
		Fraccion:              fieldAt(fields, item551Fraccion),
		Secuencia:             fieldAt(fields, item551Secuencia),
		Descripcion:           fieldAt(fields, item551Descripcion),
		PrecioUnitario:        models.ParseDecimalPermissive(fieldAt(fields, item551PrecioUnitario)),
		ValorAduana:           models.ParseDecimalPermissive(fieldAt(fields, item551ValorAduana)),
		ValorComercial:        models.ParseDecimalPermissive(fieldAt(fields, item551ValorComercial)),
		ValorDolares:          models.ParseDecimalPermissive(fieldAt(fields, item551ValorDolares)),
		CantidadComercial:     models.ParseDecimalPermissive(fieldAt(fields, item551CantidadComercial)),
		UnidadMedidaComercial: fieldAt(fields, item551UnidadMedidaComercial),
		CantidadTarifa:        models.ParseDecimalPermissive(fieldAt(fields, item551CantidadTarifa)),
		UnidadMedidaTarifa:    fieldAt(fields, item551UnidadMedidaTarifa),
	}
}
