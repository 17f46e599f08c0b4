package upload

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Spreadsheet serial dates count days from 1899-12-30, so serial 25569 is the
// Unix epoch. The 1899 epoch already bakes in the classic leap-year-1900
// off-by-one convention.
const serialDateUnixOffset = 25569

var isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// NormalizeDate converts a spreadsheet cell into a canonical YYYY-MM-DD
// string. Already-canonical strings pass through unchanged; numeric values are
// treated as day-count serials; everything else, including blank cells, yields
// the empty string. A blank date is not a validation failure.
func NormalizeDate(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	if isoDatePattern.MatchString(value) {
		return value
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		seconds := int64((serial - serialDateUnixOffset) * 86400)
		return time.Unix(seconds, 0).UTC().Format("2006-01-02")
	}
	return ""
}
