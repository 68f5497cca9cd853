package model

import "time"

// Exception represents a system-level error that must be persisted
// for auditing, debugging, and monitoring purposes. Ledger consistency
// failures found by the verifier land here.
type Exception struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Where the error happened
	Service string `gorm:"size:100;index" json:"service"` // e.g. "cryptofolio"
	Module  string `gorm:"size:100;index" json:"module"`  // e.g. "ledger"
	Method  string `gorm:"size:100" json:"method"`        // e.g. "VerifyAccount"

	// AccountUID is set when the error concerns a single account, so drift
	// reports can be queried per account.
	AccountUID string `gorm:"size:100;index" json:"account_uid,omitempty"`

	// Error information
	Message string `gorm:"type:text" json:"message"` // err.Error()
	Stack   string `gorm:"type:text" json:"stack"`   // stack trace (optional)

	// Severity level
	Level string `gorm:"size:20;index" json:"level"` // debug | info | warn | error | fatal

	// Extra context stored as JSON (optional)
	Context string `gorm:"type:jsonb" json:"context,omitempty"`

	// Audit info
	CreatedAt time.Time `json:"created_at"`
}
