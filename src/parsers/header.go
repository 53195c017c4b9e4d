package parsers

import "strings"

// headerIndicators are substrings that mark a row as the holdings table
// header. Matching is deliberately permissive: header wording varies across
// brokers, and exports routinely prepend titles, account summaries and blank
// rows before the real table. A data cell that happens to contain one of
// these substrings still wins; that false positive is accepted.
var headerIndicators = []string{
	"stock name",
	"scrip name",
	"isin",
	"quantity",
	"average buy price",
}

// LocateHeaderRow scans rows top-down and returns the index of the first row
// with any cell containing a header indicator (case-insensitive, trimmed).
// Returns ErrHeaderNotFound if the whole file has no recognizable header.
func LocateHeaderRow(rows [][]string) (int, error) {
	for i, row := range rows {
		for _, cell := range row {
			cell = strings.ToLower(strings.TrimSpace(cell))
			for _, indicator := range headerIndicators {
				if strings.Contains(cell, indicator) {
					return i, nil
				}
			}
		}
	}
	return -1, ErrHeaderNotFound
}
