package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"cryptofolio/src/model"
	"cryptofolio/src/repository"
)

type accountStore interface {
	CreateAccount(ctx context.Context, account *model.User) error
	FindAccount(ctx context.Context, uid string) (*model.User, error)
	ListAccounts(ctx context.Context) ([]model.User, error)
}

type createUserPayload struct {
	UID       string `json:"uid,omitempty"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone,omitempty"`
}

// CreateUserHandler onboards a new account with a zero balance and active
// status. A missing uid is generated.
func CreateUserHandler(store accountStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload createUserPayload
		decoder := json.NewDecoder(r.Body)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&payload); err != nil {
			logger.WithError(err).Warn("invalid create user payload")
			http.Error(w, "Invalid payload", http.StatusBadRequest)
			return
		}

		if strings.TrimSpace(payload.FirstName) == "" ||
			strings.TrimSpace(payload.LastName) == "" ||
			strings.TrimSpace(payload.Email) == "" {
			http.Error(w, "first_name, last_name and email are required", http.StatusBadRequest)
			return
		}

		uid := strings.TrimSpace(payload.UID)
		if uid == "" {
			uid = uuid.NewString()
		}

		account := &model.User{
			UID:            uid,
			FirstName:      strings.TrimSpace(payload.FirstName),
			LastName:       strings.TrimSpace(payload.LastName),
			Email:          strings.TrimSpace(payload.Email),
			Phone:          strings.TrimSpace(payload.Phone),
			CurrentBalance: decimal.Zero,
			AccountStatus:  model.AccountStatusActive,
		}

		if err := store.CreateAccount(r.Context(), account); err != nil {
			logger.WithError(err).Error("failed to create account")
			http.Error(w, "Error creating user", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, account)
	}
}

// GetUserHandler fetches one account by uid.
func GetUserHandler(store accountStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")

		account, err := store.FindAccount(r.Context(), uid)
		if err != nil {
			logger.WithError(err).Error("failed to fetch account")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if account == nil {
			writeLedgerError(w, model.ErrNoSuchAccount)
			return
		}

		writeJSON(w, http.StatusOK, account)
	}
}

// ListUsersHandler returns every account.
func ListUsersHandler(store accountStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		accounts, err := store.ListAccounts(r.Context())
		if err != nil {
			logger.WithError(err).Error("failed to list accounts")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, accounts)
	}
}

// GetBalanceHandler reports the account's current cash balance.
func GetBalanceHandler(store accountStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		uid := chi.URLParam(r, "uid")

		account, err := store.FindAccount(r.Context(), uid)
		if err != nil {
			logger.WithError(err).Error("failed to fetch account for balance")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		if account == nil {
			writeLedgerError(w, model.ErrNoSuchAccount)
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"user_id": account.UID,
			"balance": account.CurrentBalance,
		})
	}
}

// DefaultUserHandlers wires the handlers to the production repository.
func DefaultUserHandlers() (create, get, list, balance http.HandlerFunc) {
	repo := repository.NewLedgerRepository()
	return CreateUserHandler(repo), GetUserHandler(repo), ListUsersHandler(repo), GetBalanceHandler(repo)
}
