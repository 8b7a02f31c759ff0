package handler

import (
	"net/http"

	"github.com/sirupsen/logrus"
)

// GetCurrent godoc
// @Summary Get stored rates
// @Description Returns the rates currently stored for the active base currency without contacting the rate provider
// @Tags Rates
// @Produce json
// @Success 200 {object} RatesResponse
// @Failure 404 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /rates [get]
func (h *Handler) GetCurrent(w http.ResponseWriter, r *http.Request) {
	view, ok, err := h.service.Current(r.Context())
	if err != nil {
		msg := "ups, couldn't read stored rates this time"
		logrus.WithError(err).WithField("handler", "GetCurrent").Error(msg)
		writeError(w, http.StatusInternalServerError, msg)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no base currency selected yet")
		return
	}

	writeJSON(w, http.StatusOK, toRatesResponse(view))
}
