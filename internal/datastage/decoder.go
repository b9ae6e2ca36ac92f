// Package datastage decodes the pipe-delimited record files of a customs
// Data Stage export into typed entities and links them into declaration
// aggregates.
//
// The pipeline is: decode bytes (Windows-1252), split and tokenize lines,
// dispatch on record code to a per-type parser (501 header, 505 invoice,
// 551 item; everything else stays raw), then link the parsed rows into
// DeclarationRecords keyed by patente-pedimento-seccion.
package datastage

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// FieldDelimiter separates the columns of a Data Stage line. The format has
// no quoting or escaping; a literal pipe inside a field is not representable.
const FieldDelimiter = "|"

// DecodeLines converts raw entry bytes into trimmed, non-empty text lines.
// Declaration exports are historically encoded in the Windows-1252 single
// byte code page; accented supplier names corrupt under a UTF-8 read.
func DecodeLines(data []byte) ([]string, error) {
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return nil, err
	}

	text := strings.ReplaceAll(string(decoded), "\r\n", "\n")

	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}

	return lines, nil
}

// TokenizeLine splits one logical record into its ordered field list
func TokenizeLine(line string) []string {
	return strings.Split(line, FieldDelimiter)
}

// fieldAt reads a field by index, tolerating short rows. Rows shorter than
// the schema minimum are skipped before this is ever called, but trailing
// optional columns may still be absent.
func fieldAt(fields []string, index int) string {
	if index < 0 || index >= len(fields) {
		return ""
	}
	return strings.TrimSpace(fields[index])
}
