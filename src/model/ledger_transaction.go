package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction kinds. DEPOSIT and WITHDRAWAL move fiat cash only; BUY and SELL
// additionally carry the asset fields and the unit price captured at execution.
const (
	TransactionKindDeposit    = "DEPOSIT"
	TransactionKindWithdrawal = "WITHDRAWAL"
	TransactionKindBuy        = "BUY"
	TransactionKindSell       = "SELL"
)

// LedgerTransaction is one immutable entry in an account's append-only
// transaction log. Rows are only ever inserted; the log is the sole source of
// truth for historical accounting, and account balance and holding quantities
// are derivable from it by replay.
type LedgerTransaction struct {
	ID     uint   `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"size:100;not null;index" json:"user_id"`

	Kind string `gorm:"size:50;not null" json:"kind"`

	// Asset fields, empty for DEPOSIT/WITHDRAWAL.
	TokenID     string `gorm:"size:50" json:"token_id,omitempty"`
	TokenName   string `gorm:"size:50" json:"token_name,omitempty"`
	TokenSymbol string `gorm:"size:50" json:"token_symbol,omitempty"`

	// UnitPrice is the executed price for BUY/SELL, zero for fiat kinds.
	UnitPrice decimal.Decimal `gorm:"type:numeric(32,12)" json:"unit_price"`

	// Quantity is the fiat amount for DEPOSIT/WITHDRAWAL and the asset
	// quantity for BUY/SELL. Always positive; Kind carries the sign.
	Quantity decimal.Decimal `gorm:"type:numeric(32,12);not null" json:"quantity"`

	// TransactionTime is set once at creation and never updated.
	TransactionTime time.Time `gorm:"not null;index" json:"transaction_time"`
}

// TableName allows you to control the exact table name for ledger transactions.
func (LedgerTransaction) TableName() string {
	return "ledger_transactions"
}

// CryptoKind reports whether the transaction moves an asset position.
func (t *LedgerTransaction) CryptoKind() bool {
	return t.Kind == TransactionKindBuy || t.Kind == TransactionKindSell
}

// Amount is the fiat value of the transaction: quantity for fiat kinds,
// price times quantity for crypto kinds.
func (t *LedgerTransaction) Amount() decimal.Decimal {
	if t.CryptoKind() {
		return t.UnitPrice.Mul(t.Quantity)
	}
	return t.Quantity
}
