package ledger

import (
	"context"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"cryptofolio/src/model"
)

// Replay folds a transaction history into the balance and per-asset
// quantities it implies, starting from an empty account. The log is the sole
// source of truth; stored balances and holdings are caches of this fold.
func Replay(txns []model.LedgerTransaction) (balance decimal.Decimal, quantities map[string]decimal.Decimal) {

	quantities = make(map[string]decimal.Decimal)

	for i := range txns {
		t := &txns[i]
		switch t.Kind {
		case model.TransactionKindDeposit:
			balance = balance.Add(t.Quantity)
		case model.TransactionKindWithdrawal:
			balance = balance.Sub(t.Quantity)
		case model.TransactionKindBuy:
			balance = balance.Sub(t.UnitPrice.Mul(t.Quantity))
			quantities[t.TokenID] = quantities[t.TokenID].Add(t.Quantity)
		case model.TransactionKindSell:
			balance = balance.Add(t.UnitPrice.Mul(t.Quantity))
			quantities[t.TokenID] = quantities[t.TokenID].Sub(t.Quantity)
		}
	}

	return balance, quantities
}

// VerifyAccount replays the account's full transaction log and compares the
// derived state against the stored balance and holdings. A mismatch reports
// ErrInternalInconsistency. Used by the verify CLI command and by tests; safe
// to run concurrently with live traffic, tolerating transactions that commit
// while it reads.
func (e *Engine) VerifyAccount(ctx context.Context, uid string) error {

	account, err := e.store.FindAccount(ctx, uid)
	if err != nil {
		return err
	}
	if account == nil {
		return model.ErrNoSuchAccount
	}

	txns, err := e.store.ListTransactions(ctx, uid, "")
	if err != nil {
		return err
	}

	balance, quantities := Replay(txns)

	if !balance.Equal(account.CurrentBalance) {
		logger.WithFields(map[string]interface{}{
			"component": "Engine",
			"op":        "VerifyAccount",
			"uid":       uid,
			"derived":   balance,
			"stored":    account.CurrentBalance,
		}).Error("Replay mismatch: cash balance")

		return model.ErrInternalInconsistency
	}

	for tokenID, derived := range quantities {
		holding, err := e.store.FindHolding(ctx, uid, tokenID)
		if err != nil {
			return err
		}

		stored := decimal.Decimal{}
		if holding != nil {
			stored = holding.Quantity
		}

		if !derived.Equal(stored) {
			logger.WithFields(map[string]interface{}{
				"component": "Engine",
				"op":        "VerifyAccount",
				"uid":       uid,
				"token_id":  tokenID,
				"derived":   derived,
				"stored":    stored,
			}).Error("Replay mismatch: holding quantity")

			return model.ErrInternalInconsistency
		}
	}

	// The reverse direction: every stored non-zero holding must be backed by
	// transactions. A holding row for a token the log never mentions is a
	// state change without a transaction record.
	holdings, err := e.store.ListHoldings(ctx, uid)
	if err != nil {
		return err
	}
	for i := range holdings {
		h := &holdings[i]
		if _, ok := quantities[h.TokenID]; ok || h.Quantity.IsZero() {
			continue
		}

		logger.WithFields(map[string]interface{}{
			"component": "Engine",
			"op":        "VerifyAccount",
			"uid":       uid,
			"token_id":  h.TokenID,
			"stored":    h.Quantity,
		}).Error("Replay mismatch: holding without transactions")

		return model.ErrInternalInconsistency
	}

	logger.WithFields(map[string]interface{}{
		"component": "Engine",
		"op":        "VerifyAccount",
		"uid":       uid,
		"txns":      len(txns),
	}).Info("Account verified against transaction log")

	return nil
}
