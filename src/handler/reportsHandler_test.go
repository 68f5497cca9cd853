package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"cryptofolio/src/costbasis"
	"cryptofolio/src/model"
)

type mockLedgerReader struct {
	account  *model.User
	holding  *model.Holding
	holdings []model.Holding
	txns     []model.LedgerTransaction
	err      error

	txnTokenID string
}

func (m *mockLedgerReader) FindAccount(ctx context.Context, uid string) (*model.User, error) {
	return m.account, m.err
}

func (m *mockLedgerReader) FindHolding(ctx context.Context, uid string, tokenID string) (*model.Holding, error) {
	return m.holding, m.err
}

func (m *mockLedgerReader) ListHoldings(ctx context.Context, uid string) ([]model.Holding, error) {
	return m.holdings, m.err
}

func (m *mockLedgerReader) ListTransactions(ctx context.Context, uid string, tokenID string) ([]model.LedgerTransaction, error) {
	m.txnTokenID = tokenID
	return m.txns, m.err
}

func newReportRouter(store ledgerReader) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/users/{uid}/holdings", ListHoldingsHandler(store))
	r.Get("/users/{uid}/holdings/{tokenID}", GetHoldingHandler(store))
	r.Get("/users/{uid}/transactions", ListTransactionsHandler(store))
	r.Get("/users/{uid}/report", TransactionReportHandler(store))
	r.Get("/users/{uid}/portfolio/initial-value", PortfolioValueHandler(store))
	return r
}

func TestGetHoldingHandler_ZeroQuantityIsNotFound(t *testing.T) {
	store := &mockLedgerReader{holding: &model.Holding{
		UserID:   "alice",
		TokenID:  "btc",
		Quantity: decimal.Zero,
	}}
	router := newReportRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/users/alice/holdings/btc", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGetHoldingHandler_Success(t *testing.T) {
	store := &mockLedgerReader{holding: &model.Holding{
		UserID:      "alice",
		TokenID:     "btc",
		TokenSymbol: "BTC",
		Quantity:    decimal.RequireFromString("2"),
	}}
	router := newReportRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/users/alice/holdings/btc", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var holding model.Holding
	if err := json.Unmarshal(rr.Body.Bytes(), &holding); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	assert.Equal(t, "BTC", holding.TokenSymbol)
}

func TestListTransactionsHandler_PassesTokenFilter(t *testing.T) {
	store := &mockLedgerReader{txns: []model.LedgerTransaction{}}
	router := newReportRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/users/alice/transactions?tokenId=btc", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "btc", store.txnTokenID)
}

func TestTransactionReportHandler_UnknownAccount(t *testing.T) {
	store := &mockLedgerReader{}
	router := newReportRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/users/ghost/report", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestTransactionReportHandler_EnrichesSells(t *testing.T) {
	at := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	store := &mockLedgerReader{
		account: &model.User{UID: "alice", AccountStatus: 1},
		txns: []model.LedgerTransaction{
			{
				ID: 1, UserID: "alice", Kind: model.TransactionKindBuy, TokenID: "btc",
				UnitPrice: decimal.RequireFromString("50"), Quantity: decimal.RequireFromString("10"),
				TransactionTime: at,
			},
			{
				ID: 2, UserID: "alice", Kind: model.TransactionKindSell, TokenID: "btc",
				UnitPrice: decimal.RequireFromString("80"), Quantity: decimal.RequireFromString("5"),
				TransactionTime: at.Add(time.Hour),
			},
		},
	}
	router := newReportRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/users/alice/report", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var report []costbasis.EnrichedTransaction
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(report) != 2 {
		t.Fatalf("expected 2 report rows, got %d", len(report))
	}

	sell := report[1]
	if sell.RealizedPNL == nil || sell.AverageBuyPrice == nil {
		t.Fatal("expected sell row to carry basis and realized P/L")
	}
	assert.True(t, sell.AverageBuyPrice.Equal(decimal.RequireFromString("50")))
	assert.True(t, sell.RealizedPNL.Equal(decimal.RequireFromString("150")))
}

func TestPortfolioValueHandler_UnknownAccount(t *testing.T) {
	store := &mockLedgerReader{}
	router := newReportRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/users/ghost/portfolio/initial-value", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPortfolioValueHandler_SumsBuysMinusSells(t *testing.T) {
	at := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	store := &mockLedgerReader{
		account: &model.User{UID: "alice", AccountStatus: 1},
		txns: []model.LedgerTransaction{
			{
				ID: 1, UserID: "alice", Kind: model.TransactionKindDeposit,
				Quantity: decimal.RequireFromString("5000"), TransactionTime: at,
			},
			{
				ID: 2, UserID: "alice", Kind: model.TransactionKindBuy, TokenID: "btc",
				UnitPrice: decimal.RequireFromString("50"), Quantity: decimal.RequireFromString("10"),
				TransactionTime: at.Add(time.Hour),
			},
			{
				ID: 3, UserID: "alice", Kind: model.TransactionKindSell, TokenID: "btc",
				UnitPrice: decimal.RequireFromString("80"), Quantity: decimal.RequireFromString("2"),
				TransactionTime: at.Add(2 * time.Hour),
			},
		},
	}
	router := newReportRouter(store)

	req := httptest.NewRequest(http.MethodGet, "/users/alice/portfolio/initial-value", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var body map[string]json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}

	// 10*50 - 2*80; the deposit does not contribute
	value, err := decimal.NewFromString(strings.Trim(string(body["original_value"]), `"`))
	if err != nil {
		t.Fatalf("original_value is not a decimal: %v", err)
	}
	assert.True(t, value.Equal(decimal.RequireFromString("340")))
}
