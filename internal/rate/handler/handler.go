package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fxcache/internal/domain"
	"fxcache/internal/rate"
	"net/http"
)

type currencyValidator interface {
	ParseBase(raw string) (domain.CurrencyCode, error)
	SupportedCodes() []string
}

type rateService interface {
	Rates(ctx context.Context, base domain.CurrencyCode) (rate.View, error)
	Current(ctx context.Context) (rate.View, bool, error)
	Synchronize(ctx context.Context, base domain.CurrencyCode) (domain.SyncResult, error)
}

type Handler struct {
	validator currencyValidator
	service   rateService
}

func NewRateHandler(currencyValidator currencyValidator, rateService rateService) *Handler {
	return &Handler{validator: currencyValidator, service: rateService}
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, statusCode int, errorMsg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error: errorMsg,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(body)
}

// isBadBase reports whether err comes from base validation and belongs to the client.
func isBadBase(err error) bool {
	return errors.Is(err, rate.ErrBaseRequired) ||
		errors.Is(err, rate.ErrBaseInvalid) ||
		errors.Is(err, domain.ErrBaseUnsupported)
}

type RateLine struct {
	Code        string `json:"code" example:"USD"`
	Description string `json:"description" example:"US Dollar"`
	Rate        string `json:"rate" example:"0.7384"`
	Line        string `json:"line" example:"1 AUD is = 0.7384 US Dollar(USD)"`
}

type RatesResponse struct {
	Base        string     `json:"base" example:"AUD"`
	Description string     `json:"description" example:"Australian Dollar"`
	Mode        string     `json:"mode,omitempty" example:"refresh"`
	Rates       []RateLine `json:"rates"`
}

func toRatesResponse(view rate.View) RatesResponse {
	res := RatesResponse{
		Base:        view.Base.String(),
		Description: view.Description,
		Mode:        string(view.Mode),
		Rates:       make([]RateLine, 0, len(view.Lines)),
	}
	for _, l := range view.Lines {
		res.Rates = append(res.Rates, RateLine{
			Code:        l.Code.String(),
			Description: l.Description,
			Rate:        l.Rate.String(),
			Line:        l.String(),
		})
	}
	return res
}
