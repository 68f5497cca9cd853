package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetPrice is a cached quote for one asset, keyed by the upstream token id.
// FetchedAt bounds how stale a cached quote may be when the live price source
// is unreachable.
type AssetPrice struct {
	TokenID     string `gorm:"size:50;primaryKey" json:"token_id"`
	TokenName   string `gorm:"size:50;not null" json:"token_name"`
	TokenSymbol string `gorm:"size:50;not null" json:"token_symbol"`

	UnitPrice decimal.Decimal `gorm:"type:numeric(32,12);not null" json:"unit_price"`

	FetchedAt time.Time `gorm:"not null" json:"fetched_at"`
}

// TableName allows you to control the exact table name for cached prices.
func (AssetPrice) TableName() string {
	return "asset_prices"
}
