package repository

import (
	"context"
	"errors"

	logger "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cryptofolio/src/database"
	"cryptofolio/src/model"
)

// PriceRepository stores the cached price snapshots backing the price oracle.
type PriceRepository struct {
	db *gorm.DB
}

// NewPriceRepository creates a new repository instance using the main read/write database.
func NewPriceRepository() *PriceRepository {
	logger.WithField("component", "PriceRepository").
		Info("Creating new PriceRepository with MainDB")

	return &PriceRepository{
		db: database.MainDB,
	}
}

// WithDB allows overriding the underlying *gorm.DB instance.
// Useful for tests or when using a specific session/transaction.
func (r *PriceRepository) WithDB(db *gorm.DB) *PriceRepository {
	return &PriceRepository{db: db}
}

// UpsertQuote inserts or refreshes the cached quote for one asset.
func (r *PriceRepository) UpsertQuote(
	ctx context.Context,
	quote *model.AssetPrice,
) error {

	logger.WithFields(map[string]interface{}{
		"repo":     "PriceRepository",
		"op":       "UpsertQuote",
		"token_id": quote.TokenID,
		"price":    quote.UnitPrice,
	}).Debug("Upserting cached quote")

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "token_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"token_name", "token_symbol", "unit_price", "fetched_at"}),
		}).
		Create(quote).Error

	if err != nil {
		logger.WithFields(map[string]interface{}{
			"repo":     "PriceRepository",
			"op":       "UpsertQuote",
			"token_id": quote.TokenID,
		}).WithError(err).Error("Failed to upsert cached quote")

		return err
	}

	return nil
}

// FindQuote fetches the cached quote for one asset.
// Returns (nil, nil) if no snapshot has been stored yet.
func (r *PriceRepository) FindQuote(
	ctx context.Context,
	tokenID string,
) (*model.AssetPrice, error) {

	logger.WithFields(map[string]interface{}{
		"repo":     "PriceRepository",
		"op":       "FindQuote",
		"token_id": tokenID,
	}).Debug("Fetching cached quote")

	var quote model.AssetPrice

	err := r.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		First(&quote).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		logger.WithFields(map[string]interface{}{
			"repo":     "PriceRepository",
			"op":       "FindQuote",
			"token_id": tokenID,
		}).WithError(err).Error("Failed to fetch cached quote")

		return nil, err
	}

	return &quote, nil
}
