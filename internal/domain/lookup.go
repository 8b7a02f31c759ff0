package domain

import (
	"maps"
	"slices"
)

// MaxDescriptionLen is the longest description the rate table can store.
const MaxDescriptionLen = 30

// Lookup is the allow-list of displayable currencies with their descriptions.
type Lookup map[CurrencyCode]string

func (l Lookup) Description(code CurrencyCode) (string, bool) {
	d, ok := l[code]
	return d, ok
}

func (l Lookup) Contains(code CurrencyCode) bool {
	_, ok := l[code]
	return ok
}

func (l Lookup) Codes() []CurrencyCode {
	codes := slices.Collect(maps.Keys(l))
	slices.Sort(codes)
	return codes
}

func DefaultLookup() Lookup {
	return Lookup{
		"USD": "US Dollar",
		"GBP": "British Pound",
		"NZD": "New Zealand Dollar",
		"INR": "Indian Rupee",
		"EUR": "Euro",
		"JPY": "Japanese Yen",
		"CAD": "Canadian Dollar",
		"CNY": "Chinese Yuan",
		"HKD": "Hong Kong Dollar",
		"IDR": "Indonesian Rupiah",
		"MYR": "Malaysian Ringgit",
		"SGD": "Singapore Dollar",
		"AUD": "Australian Dollar",
	}
}
