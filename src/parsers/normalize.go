package parsers

import (
	"strconv"
	"strings"

	"github.com/username/finvision/backend/src/models"
)

// UnknownSymbol is the sentinel used when no symbol-like column resolves.
const UnknownSymbol = "Unknown"

// ParseAmount parses the leading numeric prefix of a cell value, after
// stripping thousands separators. "1,234.50" parses to 1234.5 and
// "3500 INR" to 3500. Returns 0 for anything without a numeric prefix.
//
// Grouping commas must be stripped before the prefix scan; parsing "1,234"
// as 1 would silently truncate quantities.
func ParseAmount(raw string) float64 {
	s := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")

	end := 0
	seenDigit, seenDot := false, false
scan:
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.' && !seenDot:
			seenDot = true
		case (r == '-' || r == '+') && i == 0:
		default:
			break scan
		}
		end = i + 1
	}
	if !seenDigit {
		return 0
	}
	value, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return value
}

// NormalizeHolding maps one header-keyed record onto a CanonicalHolding.
// It never fails: unresolvable or unparsable fields take their documented
// defaults, so every row yields some holding. Dropping garbage rows is the
// ingestion orchestrator's job, not this routine's.
func NormalizeHolding(rawRow map[string]string) models.CanonicalHolding {
	row := normalizeRowKeys(rawRow)

	text := func(field, fallback string) string {
		if value, ok := resolveField(row, fieldSynonyms[field]); ok {
			return value
		}
		return fallback
	}
	number := func(field string) float64 {
		value, ok := resolveField(row, fieldSynonyms[field])
		if !ok {
			return 0
		}
		return ParseAmount(value)
	}

	return models.CanonicalHolding{
		Symbol:             text("symbol", UnknownSymbol),
		ISIN:               text("isin", ""),
		Quantity:           number("quantity"),
		AvgPrice:           number("avgPrice"),
		CurrentPrice:       number("currentPrice"),
		InvestmentValue:    number("investmentValue"),
		CurrentValue:       number("currentValue"),
		UnrealizedGainLoss: number("unrealizedGainLoss"),
		Source:             models.SourceUpload,
	}
}
