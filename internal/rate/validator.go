package rate

import (
	"errors"
	"fxcache/internal/domain"
	"maps"
	"strings"

	"github.com/go-playground/validator/v10"
)

var (
	ErrBaseRequired    = errors.New("base currency is required")
	ErrBaseInvalid     = errors.New("base currency must be a 3-letter code")
	ErrBaseUnsupported = domain.ErrBaseUnsupported
)

// codeRule is the format of every currency code, user input and config alike.
const codeRule = "len=3,alpha"

var codeValidate = validator.New(validator.WithRequiredStructEnabled())

// IsCurrencyCode reports whether code is made of exactly three letters.
func IsCurrencyCode(code string) bool {
	return codeValidate.Var(code, codeRule) == nil
}

type CurrencyValidator struct {
	lookup   domain.Lookup // read only copy
	validate *validator.Validate
}

// ParseBase normalizes raw user input and checks it against the allow-list.
func (v *CurrencyValidator) ParseBase(raw string) (domain.CurrencyCode, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return "", ErrBaseRequired
	}
	if err := v.validate.Var(code, codeRule); err != nil {
		return "", ErrBaseInvalid
	}
	if !v.lookup.Contains(domain.CurrencyCode(code)) {
		return "", ErrBaseUnsupported
	}
	return domain.CurrencyCode(code), nil
}

func (v *CurrencyValidator) SupportedCodes() []string {
	codes := v.lookup.Codes()
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, c.String())
	}
	return out
}

func NewValidator(lookup domain.Lookup) *CurrencyValidator {
	return &CurrencyValidator{
		lookup:   maps.Clone(lookup),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}
