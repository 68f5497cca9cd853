// Package ledger implements the portfolio engine: the only component that
// mutates account balances, holdings and the transaction log. Every operation
// is atomic with respect to those three and serialized per account.
package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"cryptofolio/src/model"
	"cryptofolio/src/pricing"
)

// Store is the durable ledger storage the engine commits through.
// Implemented by repository.LedgerRepository.
type Store interface {
	FindAccount(ctx context.Context, uid string) (*model.User, error)
	FindHolding(ctx context.Context, uid string, tokenID string) (*model.Holding, error)
	ListHoldings(ctx context.Context, uid string) ([]model.Holding, error)
	ListTransactions(ctx context.Context, uid string, tokenID string) ([]model.LedgerTransaction, error)
	CommitOperation(ctx context.Context, account *model.User, holding *model.Holding, txn *model.LedgerTransaction) error
}

// Engine orchestrates deposit, withdraw, buy and sell.
type Engine struct {
	store  Store
	oracle pricing.Oracle
	locks  *accountLocks
	now    func() time.Time
}

func NewEngine(store Store, oracle pricing.Oracle) *Engine {
	logger.WithField("component", "Engine").
		Info("Creating new ledger engine")

	return &Engine{
		store:  store,
		oracle: oracle,
		locks:  newAccountLocks(),
		now:    time.Now,
	}
}

// Deposit credits the account with a positive fiat amount and appends a
// DEPOSIT transaction.
func (e *Engine) Deposit(
	ctx context.Context,
	uid string,
	amount decimal.Decimal,
) (*model.LedgerTransaction, error) {

	if !amount.IsPositive() {
		return nil, model.ErrInvalidAmount
	}

	lock := e.locks.forAccount(uid)
	lock.Lock()
	defer lock.Unlock()

	account, err := e.store.FindAccount(ctx, uid)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, model.ErrNoSuchAccount
	}
	if !account.Active() {
		return nil, model.ErrAccountDisabled
	}

	account.CurrentBalance = account.CurrentBalance.Add(amount)

	txn := &model.LedgerTransaction{
		UserID:          uid,
		Kind:            model.TransactionKindDeposit,
		Quantity:        amount,
		TransactionTime: e.now(),
	}

	if err := e.checkInvariants(account, nil); err != nil {
		return nil, err
	}

	if err := e.store.CommitOperation(ctx, account, nil, txn); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"component": "Engine",
		"op":        "Deposit",
		"uid":       uid,
		"amount":    amount,
		"balance":   account.CurrentBalance,
	}).Info("Deposit committed")

	return txn, nil
}

// Withdraw debits a positive fiat amount. No partial withdrawals: if the
// balance cannot cover the full amount the operation fails and nothing is
// recorded.
func (e *Engine) Withdraw(
	ctx context.Context,
	uid string,
	amount decimal.Decimal,
) (*model.LedgerTransaction, error) {

	if !amount.IsPositive() {
		return nil, model.ErrInvalidAmount
	}

	lock := e.locks.forAccount(uid)
	lock.Lock()
	defer lock.Unlock()

	account, err := e.store.FindAccount(ctx, uid)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, model.ErrNoSuchAccount
	}
	if !account.Active() {
		return nil, model.ErrAccountDisabled
	}

	if account.CurrentBalance.LessThan(amount) {
		logger.WithFields(map[string]interface{}{
			"component": "Engine",
			"op":        "Withdraw",
			"uid":       uid,
			"amount":    amount,
			"balance":   account.CurrentBalance,
		}).Info("Withdrawal rejected, insufficient funds")

		return nil, model.ErrInsufficientFunds
	}

	account.CurrentBalance = account.CurrentBalance.Sub(amount)

	txn := &model.LedgerTransaction{
		UserID:          uid,
		Kind:            model.TransactionKindWithdrawal,
		Quantity:        amount,
		TransactionTime: e.now(),
	}

	if err := e.checkInvariants(account, nil); err != nil {
		return nil, err
	}

	if err := e.store.CommitOperation(ctx, account, nil, txn); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"component": "Engine",
		"op":        "Withdraw",
		"uid":       uid,
		"amount":    amount,
		"balance":   account.CurrentBalance,
	}).Info("Withdrawal committed")

	return txn, nil
}

// Buy purchases quantity units of an asset at the oracle's current price.
// The quote is fetched before the account lock is taken, and that single
// quote is used both for the balance debit and the recorded transaction, so
// the two can never diverge.
func (e *Engine) Buy(
	ctx context.Context,
	uid string,
	tokenID string,
	quantity decimal.Decimal,
) (*model.LedgerTransaction, error) {

	if !quantity.IsPositive() {
		return nil, model.ErrInvalidAmount
	}

	quote, err := e.oracle.GetQuote(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	cost := quote.UnitPrice.Mul(quantity)

	lock := e.locks.forAccount(uid)
	lock.Lock()
	defer lock.Unlock()

	account, err := e.store.FindAccount(ctx, uid)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, model.ErrNoSuchAccount
	}
	if !account.Active() {
		return nil, model.ErrAccountDisabled
	}

	if account.CurrentBalance.LessThan(cost) {
		logger.WithFields(map[string]interface{}{
			"component": "Engine",
			"op":        "Buy",
			"uid":       uid,
			"token_id":  tokenID,
			"cost":      cost,
			"balance":   account.CurrentBalance,
		}).Info("Buy rejected, insufficient funds")

		return nil, model.ErrInsufficientFunds
	}

	holding, err := e.store.FindHolding(ctx, uid, tokenID)
	if err != nil {
		return nil, err
	}
	if holding == nil {
		holding = &model.Holding{
			UserID:      uid,
			TokenID:     quote.TokenID,
			TokenName:   quote.TokenName,
			TokenSymbol: quote.TokenSymbol,
		}
	}
	// An existing holding keeps its display metadata.
	holding.Quantity = holding.Quantity.Add(quantity)

	account.CurrentBalance = account.CurrentBalance.Sub(cost)

	txn := &model.LedgerTransaction{
		UserID:          uid,
		Kind:            model.TransactionKindBuy,
		TokenID:         quote.TokenID,
		TokenName:       holding.TokenName,
		TokenSymbol:     holding.TokenSymbol,
		UnitPrice:       quote.UnitPrice,
		Quantity:        quantity,
		TransactionTime: e.now(),
	}

	if err := e.checkInvariants(account, holding); err != nil {
		return nil, err
	}

	if err := e.store.CommitOperation(ctx, account, holding, txn); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"component":   "Engine",
		"op":          "Buy",
		"uid":         uid,
		"token_id":    tokenID,
		"qty":         quantity,
		"price":       quote.UnitPrice,
		"price_stale": quote.Stale,
		"balance":     account.CurrentBalance,
	}).Info("Buy committed")

	return txn, nil
}

// Sell disposes of quantity units of a held asset at the oracle's current
// price. No partial fills: the whole quantity must be held.
func (e *Engine) Sell(
	ctx context.Context,
	uid string,
	tokenID string,
	quantity decimal.Decimal,
) (*model.LedgerTransaction, error) {

	if !quantity.IsPositive() {
		return nil, model.ErrInvalidAmount
	}

	// Existence probe before the price fetch. The authoritative check
	// re-runs under the account lock below.
	probe, err := e.store.FindHolding(ctx, uid, tokenID)
	if err != nil {
		return nil, err
	}
	if probe == nil || probe.Quantity.IsZero() {
		return nil, model.ErrNoSuchPosition
	}

	quote, err := e.oracle.GetQuote(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	proceeds := quote.UnitPrice.Mul(quantity)

	lock := e.locks.forAccount(uid)
	lock.Lock()
	defer lock.Unlock()

	account, err := e.store.FindAccount(ctx, uid)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, model.ErrNoSuchAccount
	}
	if !account.Active() {
		return nil, model.ErrAccountDisabled
	}

	holding, err := e.store.FindHolding(ctx, uid, tokenID)
	if err != nil {
		return nil, err
	}
	if holding == nil || holding.Quantity.IsZero() {
		return nil, model.ErrNoSuchPosition
	}

	if holding.Quantity.LessThan(quantity) {
		logger.WithFields(map[string]interface{}{
			"component": "Engine",
			"op":        "Sell",
			"uid":       uid,
			"token_id":  tokenID,
			"qty":       quantity,
			"held":      holding.Quantity,
		}).Info("Sell rejected, insufficient holdings")

		return nil, model.ErrInsufficientHoldings
	}

	holding.Quantity = holding.Quantity.Sub(quantity)
	account.CurrentBalance = account.CurrentBalance.Add(proceeds)

	txn := &model.LedgerTransaction{
		UserID:          uid,
		Kind:            model.TransactionKindSell,
		TokenID:         holding.TokenID,
		TokenName:       holding.TokenName,
		TokenSymbol:     holding.TokenSymbol,
		UnitPrice:       quote.UnitPrice,
		Quantity:        quantity,
		TransactionTime: e.now(),
	}

	if err := e.checkInvariants(account, holding); err != nil {
		return nil, err
	}

	if err := e.store.CommitOperation(ctx, account, holding, txn); err != nil {
		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"component":   "Engine",
		"op":          "Sell",
		"uid":         uid,
		"token_id":    tokenID,
		"qty":         quantity,
		"price":       quote.UnitPrice,
		"price_stale": quote.Stale,
		"balance":     account.CurrentBalance,
	}).Info("Sell committed")

	return txn, nil
}
