package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Holding is the current position of one user in one asset. There is at most
// one row per (user, token) pair; buys and sells merge into it rather than
// creating new rows. Quantity is a derived cache of the transaction history
// and must always equal the signed sum of BUY/SELL quantities for the pair.
type Holding struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"size:100;not null;index:idx_user_token,unique" json:"user_id"`

	TokenID     string `gorm:"size:50;not null;index:idx_user_token,unique" json:"token_id"`
	TokenName   string `gorm:"size:50;not null" json:"token_name"`
	TokenSymbol string `gorm:"size:50;not null" json:"token_symbol"`

	Quantity decimal.Decimal `gorm:"type:numeric(32,12);not null" json:"quantity"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName allows you to control the exact table name for holdings.
func (Holding) TableName() string {
	return "crypto_holdings"
}
