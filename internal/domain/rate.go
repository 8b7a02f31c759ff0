package domain

import (
	"maps"
	"slices"

	"github.com/shopspring/decimal"
)

// CurrencyCode is a 3-letter uppercase currency identifier, e.g. "AUD".
type CurrencyCode string

func (c CurrencyCode) String() string { return string(c) }

// BaseRate is the rate the base currency is always stored with.
var BaseRate = decimal.NewFromInt(1)

// RateRecord is one row of the persisted rate table.
// Rate is expressed in target currency units per 1 base currency unit.
type RateRecord struct {
	Code        CurrencyCode
	Description string
	Rate        decimal.Decimal
}

// IsBase reports whether the record carries the base rate.
func (r RateRecord) IsBase() bool {
	return r.Rate.Equal(BaseRate)
}

// Snapshot holds the rates returned by one remote fetch. An empty snapshot
// means nothing could be fetched; callers treat it the same as "no rates".
type Snapshot struct {
	Base  CurrencyCode
	Date  string
	Rates map[CurrencyCode]decimal.Decimal
}

func NewSnapshot(base CurrencyCode, date string, rates map[CurrencyCode]decimal.Decimal) Snapshot {
	if rates == nil {
		rates = map[CurrencyCode]decimal.Decimal{}
	}
	return Snapshot{Base: base, Date: date, Rates: rates}
}

func EmptySnapshot(base CurrencyCode) Snapshot {
	return NewSnapshot(base, "", nil)
}

func (s Snapshot) IsEmpty() bool {
	return len(s.Rates) == 0
}

// Codes returns snapshot codes in ascending order.
func (s Snapshot) Codes() []CurrencyCode {
	codes := slices.Collect(maps.Keys(s.Rates))
	slices.Sort(codes)
	return codes
}
