package rate

import (
	"fmt"
	"fxcache/internal/domain"

	"github.com/shopspring/decimal"
)

// View is what presenters render: the non-base rates of the table, ordered by code.
type View struct {
	Base        domain.CurrencyCode
	Description string
	Mode        domain.SyncMode
	Lines       []Line
}

type Line struct {
	Base        domain.CurrencyCode
	Code        domain.CurrencyCode
	Description string
	Rate        decimal.Decimal
}

// String renders "1 AUD is = 0.7384 US Dollar(USD)".
func (l Line) String() string {
	return fmt.Sprintf("1 %s is = %s %s(%s)", l.Base, l.Rate.String(), l.Description, l.Code)
}
