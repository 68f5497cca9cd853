package ledger

import (
	logger "github.com/sirupsen/logrus"

	"cryptofolio/src/model"
)

// checkInvariants runs immediately before commit. A violation here means a
// bug upstream (typically a write that bypassed per-account serialization),
// not a business-rule failure, so it aborts the operation with
// ErrInternalInconsistency instead of an ordinary rejection.
func (e *Engine) checkInvariants(account *model.User, holding *model.Holding) error {

	if account.CurrentBalance.IsNegative() {
		logger.WithFields(map[string]interface{}{
			"component": "Engine",
			"op":        "checkInvariants",
			"uid":       account.UID,
			"balance":   account.CurrentBalance,
		}).Error("Invariant violated: negative cash balance")

		return model.ErrInternalInconsistency
	}

	if holding != nil && holding.Quantity.IsNegative() {
		logger.WithFields(map[string]interface{}{
			"component": "Engine",
			"op":        "checkInvariants",
			"uid":       account.UID,
			"token_id":  holding.TokenID,
			"qty":       holding.Quantity,
		}).Error("Invariant violated: negative holding quantity")

		return model.ErrInternalInconsistency
	}

	return nil
}
