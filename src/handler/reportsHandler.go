package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"cryptofolio/src/costbasis"
	"cryptofolio/src/model"
	"cryptofolio/src/repository"
)

type ledgerReader interface {
	FindAccount(ctx context.Context, uid string) (*model.User, error)
	FindHolding(ctx context.Context, uid string, tokenID string) (*model.Holding, error)
	ListHoldings(ctx context.Context, uid string) ([]model.Holding, error)
	ListTransactions(ctx context.Context, uid string, tokenID string) ([]model.LedgerTransaction, error)
}

// ListHoldingsHandler returns the account's current non-zero holdings.
func ListHoldingsHandler(store ledgerReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")

		holdings, err := store.ListHoldings(r.Context(), uid)
		if err != nil {
			logger.WithError(err).Error("failed to list holdings")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, holdings)
	}
}

// GetHoldingHandler returns one holding by token id.
func GetHoldingHandler(store ledgerReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")
		tokenID := chi.URLParam(r, "tokenID")

		holding, err := store.FindHolding(r.Context(), uid, tokenID)
		if err != nil {
			logger.WithError(err).Error("failed to fetch holding")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if holding == nil || holding.Quantity.IsZero() {
			writeLedgerError(w, model.ErrNoSuchPosition)
			return
		}

		writeJSON(w, http.StatusOK, holding)
	}
}

// ListTransactionsHandler returns the raw transaction history, optionally
// filtered by tokenId, in (time, id) order.
func ListTransactionsHandler(store ledgerReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")
		tokenID := r.URL.Query().Get("tokenId")

		txns, err := store.ListTransactions(r.Context(), uid, tokenID)
		if err != nil {
			logger.WithError(err).Error("failed to list transactions")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, txns)
	}
}

// TransactionReportHandler returns the history enriched with moving-average
// buy prices and realized P/L for sells.
func TransactionReportHandler(store ledgerReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")
		tokenID := r.URL.Query().Get("tokenId")

		account, err := store.FindAccount(r.Context(), uid)
		if err != nil {
			logger.WithError(err).Error("failed to fetch account for report")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if account == nil {
			writeLedgerError(w, model.ErrNoSuchAccount)
			return
		}

		txns, err := store.ListTransactions(r.Context(), uid, tokenID)
		if err != nil {
			logger.WithError(err).Error("failed to list transactions for report")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, costbasis.Enrich(txns))
	}
}

// PortfolioValueHandler returns the net fiat the account has put into crypto:
// the summed cost of its buys minus the proceeds of its sells.
func PortfolioValueHandler(store ledgerReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")

		account, err := store.FindAccount(r.Context(), uid)
		if err != nil {
			logger.WithError(err).Error("failed to fetch account for portfolio value")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if account == nil {
			writeLedgerError(w, model.ErrNoSuchAccount)
			return
		}

		txns, err := store.ListTransactions(r.Context(), uid, "")
		if err != nil {
			logger.WithError(err).Error("failed to list transactions for portfolio value")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user_id":        uid,
			"original_value": costbasis.NetInvested(txns),
		})
	}
}

// DefaultReportHandlers wires the report handlers to the production repository.
func DefaultReportHandlers() (holdings, holding, txns, report, value http.HandlerFunc) {
	repo := repository.NewLedgerRepository()
	return ListHoldingsHandler(repo), GetHoldingHandler(repo),
		ListTransactionsHandler(repo), TransactionReportHandler(repo),
		PortfolioValueHandler(repo)
}
