package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"cryptofolio/src/model"
)

// ledgerEngine is the slice of the portfolio engine the HTTP layer needs.
type ledgerEngine interface {
	Deposit(ctx context.Context, uid string, amount decimal.Decimal) (*model.LedgerTransaction, error)
	Withdraw(ctx context.Context, uid string, amount decimal.Decimal) (*model.LedgerTransaction, error)
	Buy(ctx context.Context, uid string, tokenID string, quantity decimal.Decimal) (*model.LedgerTransaction, error)
	Sell(ctx context.Context, uid string, tokenID string, quantity decimal.Decimal) (*model.LedgerTransaction, error)
}

type fiatPayload struct {
	Amount decimal.Decimal `json:"amount"`
}

type tradePayload struct {
	TokenID  string          `json:"token_id"`
	Quantity decimal.Decimal `json:"quantity"`
}

// DepositHandler credits fiat cash to the account.
func DepositHandler(engine ledgerEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")

		var payload fiatPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid deposit payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		txn, err := engine.Deposit(r.Context(), uid, payload.Amount)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "Success",
			"transaction": txn,
		})
	}
}

// WithdrawHandler debits fiat cash from the account.
func WithdrawHandler(engine ledgerEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")

		var payload fiatPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid withdraw payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		txn, err := engine.Withdraw(r.Context(), uid, payload.Amount)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "Success",
			"transaction": txn,
		})
	}
}

// BuyHandler purchases an asset at the oracle's current price.
func BuyHandler(engine ledgerEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")

		var payload tradePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid buy payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		if payload.TokenID == "" {
			http.Error(w, "token_id is required", http.StatusBadRequest)
			return
		}

		txn, err := engine.Buy(r.Context(), uid, payload.TokenID, payload.Quantity)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "Success",
			"transaction": txn,
		})
	}
}

// SellHandler disposes of a held asset at the oracle's current price.
func SellHandler(engine ledgerEngine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")

		var payload tradePayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid sell payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}
		if payload.TokenID == "" {
			http.Error(w, "token_id is required", http.StatusBadRequest)
			return
		}

		txn, err := engine.Sell(r.Context(), uid, payload.TokenID, payload.Quantity)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status":      "Success",
			"transaction": txn,
		})
	}
}
