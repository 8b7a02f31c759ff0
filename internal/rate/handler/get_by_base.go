package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// GetByBase godoc
// @Summary Get rates for a base currency
// @Description Synchronizes the local rate table for the base currency (bootstrap, rebuild or refresh) and returns its rates ordered by code
// @Tags Rates
// @Produce json
// @Param base path string true "Base currency code" example(AUD)
// @Success 200 {object} RatesResponse
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /rates/{base} [get]
func (h *Handler) GetByBase(w http.ResponseWriter, r *http.Request) {
	base, err := h.validator.ParseBase(chi.URLParam(r, "base"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, err := h.service.Rates(r.Context(), base)
	if err != nil {
		if isBadBase(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		msg := "ups, couldn't get rates this time"
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "GetByBase", "base": base}).Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}

	writeJSON(w, http.StatusOK, toRatesResponse(view))
}
