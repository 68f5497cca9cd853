package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"cryptofolio/src/database"
	"cryptofolio/src/model"
)

// LedgerRepository handles read/write operations for accounts, holdings and
// the append-only transaction log. It is the only component that writes
// ledger state, and every mutation goes through CommitOperation so that the
// account row, the holding row and the transaction record land atomically.
type LedgerRepository struct {
	db *gorm.DB
}

// NewLedgerRepository creates a new repository instance using the main read/write database.
func NewLedgerRepository() *LedgerRepository {
	logger.WithField("component", "LedgerRepository").
		Info("Creating new LedgerRepository with MainDB")

	return &LedgerRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *LedgerRepository) WithDB(db *gorm.DB) *LedgerRepository {
	logger.WithField("component", "LedgerRepository").
		Debug("Creating LedgerRepository with custom DB instance")

	return &LedgerRepository{db: db}
}

// ---------------------------------------------------
// Account methods
// ---------------------------------------------------

// CreateAccount inserts a new account row.
func (r *LedgerRepository) CreateAccount(
	ctx context.Context,
	account *model.User,
) error {

	logger.WithFields(map[string]interface{}{
		"repo": "LedgerRepository",
		"op":   "CreateAccount",
		"uid":  account.UID,
	}).Debug("Creating new account")

	err := r.db.WithContext(ctx).Create(account).Error
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "LedgerRepository",
			"op":   "CreateAccount",
			"uid":  account.UID,
		}).WithError(err).Error("Failed to create account")

		return err
	}

	logger.WithFields(map[string]interface{}{
		"repo": "LedgerRepository",
		"op":   "CreateAccount",
		"uid":  account.UID,
	}).Info("Account created successfully")

	return nil
}

// FindAccount fetches a single account by its UID.
// Returns (nil, nil) if the account is not found.
func (r *LedgerRepository) FindAccount(
	ctx context.Context,
	uid string,
) (*model.User, error) {

	logger.WithFields(map[string]interface{}{
		"repo": "LedgerRepository",
		"op":   "FindAccount",
		"uid":  uid,
	}).Debug("Fetching account by UID")

	var account model.User

	err := r.db.WithContext(ctx).
		Where("uid = ?", uid).
		First(&account).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo": "LedgerRepository",
				"op":   "FindAccount",
				"uid":  uid,
			}).Info("Account not found")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo": "LedgerRepository",
			"op":   "FindAccount",
			"uid":  uid,
		}).WithError(err).Error("Failed to fetch account by UID")

		return nil, err
	}

	return &account, nil
}

// ListAccounts returns every account, newest first.
func (r *LedgerRepository) ListAccounts(
	ctx context.Context,
) ([]model.User, error) {

	logger.WithFields(map[string]interface{}{
		"repo": "LedgerRepository",
		"op":   "ListAccounts",
	}).Debug("Fetching all accounts")

	var accounts []model.User

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&accounts).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "LedgerRepository",
			"op":   "ListAccounts",
		}).WithError(err).Error("Failed to fetch accounts")

		return nil, err
	}

	return accounts, nil
}

// ---------------------------------------------------
// Holding methods
// ---------------------------------------------------

// FindHolding fetches the holding of one account in one asset.
// Returns (nil, nil) if no holding exists for the pair.
func (r *LedgerRepository) FindHolding(
	ctx context.Context,
	uid string,
	tokenID string,
) (*model.Holding, error) {

	logger.WithFields(map[string]interface{}{
		"repo":     "LedgerRepository",
		"op":       "FindHolding",
		"uid":      uid,
		"token_id": tokenID,
	}).Debug("Fetching holding by UID and token")

	var holding model.Holding

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND token_id = ?", uid, tokenID).
		First(&holding).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.WithFields(map[string]interface{}{
				"repo":     "LedgerRepository",
				"op":       "FindHolding",
				"uid":      uid,
				"token_id": tokenID,
			}).Info("Holding not found")

			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":     "LedgerRepository",
			"op":       "FindHolding",
			"uid":      uid,
			"token_id": tokenID,
		}).WithError(err).Error("Failed to fetch holding")

		return nil, err
	}

	return &holding, nil
}

// ListHoldings returns the current (non-zero) holdings of an account,
// most recently touched first. Zero-quantity rows are retained in the table
// but never reported as current holdings.
func (r *LedgerRepository) ListHoldings(
	ctx context.Context,
	uid string,
) ([]model.Holding, error) {

	logger.WithFields(map[string]interface{}{
		"repo": "LedgerRepository",
		"op":   "ListHoldings",
		"uid":  uid,
	}).Debug("Fetching current holdings")

	var holdings []model.Holding

	err := r.db.WithContext(ctx).
		Where("user_id = ? AND quantity <> 0", uid).
		Order("updated_at DESC").
		Find(&holdings).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo": "LedgerRepository",
			"op":   "ListHoldings",
			"uid":  uid,
		}).WithError(err).Error("Failed to fetch holdings")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "LedgerRepository",
		"op":          "ListHoldings",
		"uid":         uid,
		"rows_return": len(holdings),
	}).Info("Holdings fetched")

	return holdings, nil
}

// ---------------------------------------------------
// Transaction log methods
// ---------------------------------------------------

// ListTransactions returns the account's transaction history in the
// deterministic total order used for all historical accounting:
// transaction_time first, then id to break same-timestamp ties.
// Pass an empty tokenID to list every kind including fiat movements.
func (r *LedgerRepository) ListTransactions(
	ctx context.Context,
	uid string,
	tokenID string,
) ([]model.LedgerTransaction, error) {

	logger.WithFields(map[string]interface{}{
		"repo":     "LedgerRepository",
		"op":       "ListTransactions",
		"uid":      uid,
		"token_id": tokenID,
	}).Debug("Fetching transaction history")

	query := r.db.WithContext(ctx).
		Where("user_id = ?", uid)

	if tokenID != "" {
		query = query.Where("token_id = ?", tokenID)
	}

	var txns []model.LedgerTransaction

	err := query.
		Order("transaction_time ASC, id ASC").
		Find(&txns).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "LedgerRepository",
			"op":       "ListTransactions",
			"uid":      uid,
			"token_id": tokenID,
		}).WithError(err).Error("Failed to fetch transaction history")

		return nil, err
	}

	logger.WithFields(map[string]interface{}{
		"repo":        "LedgerRepository",
		"op":          "ListTransactions",
		"uid":         uid,
		"rows_return": len(txns),
	}).Info("Transaction history fetched")

	return txns, nil
}

// ---------------------------------------------------
// Atomic commit
// ---------------------------------------------------

// CommitOperation persists the outcome of one ledger operation as a single
// database transaction: the updated account row, the upserted holding row
// (nil for fiat-only operations) and the new immutable transaction record.
// Either all three land or none do.
func (r *LedgerRepository) CommitOperation(
	ctx context.Context,
	account *model.User,
	holding *model.Holding,
	txn *model.LedgerTransaction,
) error {

	logger.WithFields(map[string]interface{}{
		"repo": "LedgerRepository",
		"op":   "CommitOperation",
		"uid":  account.UID,
		"kind": txn.Kind,
		"qty":  txn.Quantity,
	}).Info("Committing ledger operation")

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&model.User{}).
			Where("uid = ?", account.UID).
			Update("current_balance", account.CurrentBalance).Error; err != nil {
			logger.WithError(err).Error("Failed to update account balance inside transaction")
			return err
		}

		if holding != nil {
			if err := tx.Save(holding).Error; err != nil {
				logger.WithError(err).Error("Failed to upsert holding inside transaction")
				return err
			}
		}

		if err := tx.Create(txn).Error; err != nil {
			logger.WithError(err).Error("Failed to append ledger transaction")
			return err
		}

		return nil
	})
}
