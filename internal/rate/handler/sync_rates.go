package handler

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
)

type SyncRequest struct {
	Base string `json:"base" example:"AUD"`
}

type SyncResponse struct {
	Base      string `json:"base" example:"AUD"`
	Mode      string `json:"mode" example:"rebuild"`
	Fetched   int    `json:"fetched" example:"32"`
	Written   int    `json:"written" example:"12"`
	Discarded int    `json:"discarded" example:"20"`
}

// Sync godoc
// @Summary Synchronize rates
// @Description Switches the local rate table to the requested base currency, or refreshes it when the base is unchanged
// @Tags Rates
// @Accept json
// @Produce json
// @Param request body SyncRequest true "Base currency"
// @Success 200 {object} SyncResponse
// @Failure 400 {object} errorResponse
// @Failure 500 {object} errorResponse
// @Router /rates/sync [post]
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 256)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req SyncRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	base, err := h.validator.ParseBase(req.Base)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.Synchronize(r.Context(), base)
	if err != nil {
		if isBadBase(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		logrus.WithError(err).WithFields(logrus.Fields{"handler": "Sync", "base": base}).Error("rates weren't synchronized")
		writeError(w, http.StatusInternalServerError, "failed to synchronize rates")
		return
	}

	writeJSON(w, http.StatusOK, SyncResponse{
		Base:      result.Base.String(),
		Mode:      string(result.Mode),
		Fetched:   result.Fetched,
		Written:   result.Written,
		Discarded: result.Discarded,
	})
}
