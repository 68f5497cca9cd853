package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account status values. Accounts are never deleted; a disabled account
// keeps its full ledger history.
const (
	AccountStatusActive   = 1
	AccountStatusDisabled = 0
)

// User represents an account holder. CurrentBalance is the fiat cash balance
// and is mutated only by the ledger engine; it must never go negative.
type User struct {
	UID       string `gorm:"size:100;primaryKey" json:"uid"`
	FirstName string `gorm:"size:100;not null" json:"first_name"`
	LastName  string `gorm:"size:100;not null" json:"last_name"`
	Email     string `gorm:"size:200;not null" json:"email"`
	Phone     string `gorm:"size:20" json:"phone,omitempty"`

	CurrentBalance decimal.Decimal `gorm:"type:numeric(32,12);not null" json:"current_balance"`

	AccountStatus int `gorm:"not null;default:1" json:"account_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Holdings     []Holding           `gorm:"foreignKey:UserID;references:UID" json:"holdings,omitempty"`
	Transactions []LedgerTransaction `gorm:"foreignKey:UserID;references:UID" json:"transactions,omitempty"`
}

// TableName allows you to control the exact table name for users.
func (User) TableName() string {
	return "users"
}

// Active reports whether the account may execute ledger operations.
func (u *User) Active() bool {
	return u.AccountStatus == AccountStatusActive
}
