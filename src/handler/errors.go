package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	logger "github.com/sirupsen/logrus"

	"cryptofolio/src/model"
)

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// writeLedgerError maps the ledger error taxonomy onto HTTP statuses.
// Business-rule rejections are client errors; an internal inconsistency is
// the only one treated as a server fault.
func writeLedgerError(w http.ResponseWriter, err error) {
	var status int

	switch {
	case errors.Is(err, model.ErrInvalidAmount):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, model.ErrInsufficientFunds),
		errors.Is(err, model.ErrInsufficientHoldings):
		status = http.StatusConflict
	case errors.Is(err, model.ErrNoSuchAccount),
		errors.Is(err, model.ErrNoSuchPosition):
		status = http.StatusNotFound
	case errors.Is(err, model.ErrAccountDisabled):
		status = http.StatusForbidden
	case errors.Is(err, model.ErrPriceUnavailable):
		status = http.StatusBadGateway
	case errors.Is(err, model.ErrInternalInconsistency):
		logger.WithError(err).Error("ledger inconsistency surfaced to API")
		status = http.StatusInternalServerError
	default:
		logger.WithError(err).Error("unexpected ledger error")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, status, statusResponse{Status: "Failure", Message: err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Error("failed to encode response")
	}
}
