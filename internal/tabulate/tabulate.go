// Package tabulate turns the raw category column of a signup sheet into
// a tally, and locates that column in the first place.
package tabulate

import (
	"strings"

	"github.com/pascomapp/tally-sync/internal/tally"
)

// Count tallies the values of the category column identified by header.
// Blank values are dropped, as are values that still carry the column's
// own header text (exports sometimes re-embed the header as a data row).
// Surviving values are counted verbatim, case and accents included.
func Count(header string, values []string) tally.CountMap {
	counts := make(tally.CountMap)
	headerFold := fold(header)
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if headerFold != "" && strings.Contains(fold(value), headerFold) {
			continue
		}
		counts[value]++
	}
	return counts
}
