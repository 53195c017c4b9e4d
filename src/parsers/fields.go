package parsers

import "strings"

// fieldSynonyms maps each canonical holding field to the column-name
// spellings seen across broker exports, most specific first. Resolution is
// first-match-wins over this order, so adding support for a new broker
// format means appending spellings here, not touching resolution logic.
var fieldSynonyms = map[string][]string{
	"symbol":             {"stock name", "scrip name", "symbol", "stock", "name"},
	"isin":               {"isin", "isin code"},
	"quantity":           {"quantity", "qty", "quantity held", "holdings"},
	"avgPrice":           {"average price", "avg price", "avg. cost", "avg cost", "average buy price"},
	"currentPrice":       {"current market price", "market price", "cmp", "current rate", "closing price"},
	"investmentValue":    {"investment value", "invested amount", "buy value"},
	"currentValue":       {"current value", "market value", "closing value"},
	"unrealizedGainLoss": {"unrealized gain/loss", "p&l", "gain/loss", "unrealized p/l", "unrealised p&l"},
}

// normalizeKey lowercases, trims, and collapses internal whitespace runs to a
// single space. Applied to both row keys and synonym candidates before
// comparison.
func normalizeKey(key string) string {
	return strings.Join(strings.Fields(strings.ToLower(key)), " ")
}

// normalizeRowKeys rewrites a raw record's keys through normalizeKey. On key
// collisions after normalization the last value wins, matching map iteration
// being irrelevant for well-formed exports (distinct headers).
func normalizeRowKeys(row map[string]string) map[string]string {
	cleaned := make(map[string]string, len(row))
	for key, value := range row {
		cleaned[normalizeKey(key)] = value
	}
	return cleaned
}

// resolveField walks the ordered candidate list and returns the first value
// present and non-empty in the normalized row. The bool reports whether any
// candidate resolved.
func resolveField(row map[string]string, candidates []string) (string, bool) {
	for _, candidate := range candidates {
		if value, ok := row[normalizeKey(candidate)]; ok && value != "" {
			return value, true
		}
	}
	return "", false
}
