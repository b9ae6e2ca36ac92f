package datastage

// Record codes of the Data Stage export. Only the three codes below carry
// typed parsers; every other known code is retained as raw rows for the
// presentation collaborator.
const (
	CodeGeneral = "501"
	CodeInvoice = "505"
	CodeItem    = "551"
)

// MinFieldCount is the minimum number of columns a data row must carry to be
// mapped into a typed entity. Shorter rows are malformed and silently
// discarded, a deliberate tolerance for noisy government exports.
const MinFieldCount = 10

// labelPrefixes mark header/label rows accidentally included in the data
// stream by the export system. Lines starting with one of these are skipped.
var labelPrefixes = []string{
	"Patente|",
	"NUM_PED|",
}

// Column indices for 501 general/header records
const (
	general501Patente = iota
	general501Pedimento
	general501Seccion
	general501TipoOperacion
	general501ClaveDocumento
	general501RFC
	general501TipoCambio
	general501PesoBruto
	general501FechaPago
	general501Fletes
	general501Seguros
	general501Embalajes
	general501OtrosIncrementables
)

// Column indices for 505 invoice records
const (
	invoice505Patente = iota
	invoice505Pedimento
	invoice505Seccion
	invoice505FechaFacturacion
	invoice505NumeroFactura
	invoice505TermFacturacion
	invoice505Moneda
	invoice505ValorDolares
	invoice505ValorMonedaExtranjera
	invoice505Proveedor
	invoice505ProveedorCalle
)

// Column indices for 551 item records
const (
	item551Patente = iota
	item551Pedimento
	item551Seccion
	item551Fraccion
	item551Secuencia
	item551Descripcion
	item551PrecioUnitario
	item551ValorAduana
	item551ValorComercial
	item551ValorDolares
	item551CantidadComercial
	item551UnidadMedidaComercial
	item551CantidadTarifa
	item551UnidadMedidaTarifa
)

// RecordSchemas maps every record code of the Data Stage export to the
// ordered semantic column names of its sub-schema. The table is a data
// contract for presentation of raw record files; the typed parsers use the
// positional constants above.
var RecordSchemas = map[string][]string{
	"501": {
		"patente", "pedimento", "seccion", "tipoOperacion", "claveDocumento",
		"rfc", "tipoCambio", "pesoBruto", "fechaPago", "fletes", "seguros",
		"embalajes", "otrosIncrementables",
	},
	"502": {
		"patente", "pedimento", "seccion", "medioTransporteArribo",
		"medioTransporteSalida", "medioTransporteEntreAduanas",
	},
	"503": {
		"patente", "pedimento", "seccion", "numeroGuia", "tipoGuia",
	},
	"504": {
		"patente", "pedimento", "seccion", "numeroContenedor", "tipoContenedor",
	},
	"505": {
		"patente", "pedimento", "seccion", "fechaFacturacion", "numeroFactura",
		"termFacturacion", "moneda", "valorDolares", "valorMonedaExtranjera",
		"proveedor", "proveedorCalle",
	},
	"506": {
		"patente", "pedimento", "seccion", "tipoFecha", "fecha",
	},
	"507": {
		"patente", "pedimento", "seccion", "claveCaso", "identificadorCaso",
		"complementoCaso",
	},
	"509": {
		"patente", "pedimento", "seccion", "claveContribucion", "tasa",
		"tipoTasa",
	},
	"510": {
		"patente", "pedimento", "seccion", "claveContribucion", "formaPago",
		"importe",
	},
	"511": {
		"patente", "pedimento", "seccion", "secuenciaObservacion", "observacion",
	},
	"551": {
		"patente", "pedimento", "seccion", "fraccion", "secuencia",
		"descripcion", "precioUnitario", "valorAduana", "valorComercial",
		"valorDolares", "cantidadComercial", "unidadMedidaComercial",
		"cantidadTarifa", "unidadMedidaTarifa",
	},
	"553": {
		"patente", "pedimento", "seccion", "secuencia", "clavePermiso",
		"numeroPermiso", "firmaDescargo",
	},
	"554": {
		"patente", "pedimento", "seccion", "secuencia", "claveIdentificador",
		"complemento1", "complemento2", "complemento3",
	},
	"556": {
		"patente", "pedimento", "seccion", "secuencia", "claveContribucion",
		"tasa", "formaPago", "importe",
	},
	"557": {
		"patente", "pedimento", "seccion", "secuencia",
		"secuenciaObservacion", "observacion",
	},
	"701": {
		"patente", "pedimento", "seccion", "patenteOriginal",
		"pedimentoOriginal", "seccionOriginal", "fechaOriginal",
	},
}

// SchemaFor returns the semantic column names of a record code, or nil for
// unknown codes.
func SchemaFor(code string) []string {
	return RecordSchemas[code]
}

// IsTypedCode reports whether rows of this record code are parsed into
// typed entities by this core.
func IsTypedCode(code string) bool {
	switch code {
	case CodeGeneral, CodeInvoice, CodeItem:
		return true
	default:
		return false
	}
}
