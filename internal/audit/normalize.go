package audit

import "strings"

var partNumberCleaner = strings.NewReplacer(
	" ", "",
	"-", "",
	"/", "",
)

// NormalizePartNumber reduces a part number to the canonical form used for
// matching across the reconciliation boundary: spaces, hyphens, and slashes
// stripped, uppercased. The transform is idempotent; it is the only equality
// notion applied to part numbers.
func NormalizePartNumber(partNo string) string {
	return strings.ToUpper(partNumberCleaner.Replace(strings.TrimSpace(partNo)))
}
