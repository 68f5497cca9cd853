package model

import "errors"

// Ledger error taxonomy. Business-rule failures (insufficient funds or
// holdings, missing position) leave state untouched and are reported to the
// caller as values; ErrInternalInconsistency signals that an invariant check
// failed after computation and must surface for operator attention instead of
// being partially committed.
var (
	// ErrInvalidAmount rejects non-positive amounts/quantities before any
	// state is read or written.
	ErrInvalidAmount = errors.New("amount must be greater than zero")

	// ErrInsufficientFunds means the cash balance cannot cover the
	// withdrawal or purchase. No partial fills.
	ErrInsufficientFunds = errors.New("not enough funds in the account")

	// ErrInsufficientHoldings means the position exists but holds fewer
	// units than the sell requests.
	ErrInsufficientHoldings = errors.New("not enough holdings to sell")

	// ErrNoSuchPosition means the account holds no position for the asset.
	ErrNoSuchPosition = errors.New("no position for this asset")

	// ErrNoSuchAccount means the account id is unknown.
	ErrNoSuchAccount = errors.New("account not found")

	// ErrAccountDisabled means the account exists but its status flag is
	// disabled, so ledger operations are rejected.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrPriceUnavailable means the price oracle could not produce a quote
	// within the staleness bound. Safe to retry; never replaced by a stale
	// or zero price silently.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrInternalInconsistency means a post-computation invariant check
	// failed. The operation is aborted and nothing is committed.
	ErrInternalInconsistency = errors.New("internal ledger inconsistency")
)
