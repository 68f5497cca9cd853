// Package costbasis derives moving-average cost basis and realized P/L from
// an account's transaction history. It never touches storage and never
// mutates its input, so it is safe to run concurrently and repeatedly.
package costbasis

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"cryptofolio/src/model"
)

// pctPrecision matches the rounding applied to the reported P/L percentage.
const pctPrecision = 6

var hundred = decimal.NewFromInt(100)

// AverageBuyPrice returns the quantity-weighted average unit price of every
// BUY of tokenID with transaction_time at or before the reference time.
// The second return is false when no qualifying BUY exists; callers must
// treat that as "no basis", not as zero.
func AverageBuyPrice(
	txns []model.LedgerTransaction,
	tokenID string,
	at time.Time,
) (decimal.Decimal, bool) {

	var totalCost, totalQty decimal.Decimal

	for i := range txns {
		t := &txns[i]
		if t.Kind != model.TransactionKindBuy || t.TokenID != tokenID {
			continue
		}
		if t.TransactionTime.After(at) {
			continue
		}
		totalCost = totalCost.Add(t.UnitPrice.Mul(t.Quantity))
		totalQty = totalQty.Add(t.Quantity)
	}

	if totalQty.IsZero() {
		return decimal.Decimal{}, false
	}

	return totalCost.Div(totalQty), true
}

// NetInvested returns the signed sum of fiat moved into crypto over the
// transaction history: BUY cost added, SELL proceeds subtracted. Fiat-only
// transactions (deposits, withdrawals) do not contribute. This is the
// "original value" of the portfolio, the cost of what is still held net of
// what selling already returned.
func NetInvested(txns []model.LedgerTransaction) decimal.Decimal {

	var invested decimal.Decimal

	for i := range txns {
		t := &txns[i]
		switch t.Kind {
		case model.TransactionKindBuy:
			invested = invested.Add(t.UnitPrice.Mul(t.Quantity))
		case model.TransactionKindSell:
			invested = invested.Sub(t.UnitPrice.Mul(t.Quantity))
		}
	}

	return invested
}

// RealizedPNL matches a SELL transaction against an average buy price and
// returns the realized profit/loss and, when a meaningful basis exists, the
// percentage gain. With no basis the cost side is zero: the whole proceeds
// count as P/L and the percentage is nil rather than a division by zero.
func RealizedPNL(
	sell model.LedgerTransaction,
	avgBuyPrice decimal.Decimal,
	hasBasis bool,
) (pnl decimal.Decimal, pct *decimal.Decimal) {

	proceeds := sell.UnitPrice.Mul(sell.Quantity)

	var cost decimal.Decimal
	if hasBasis {
		cost = avgBuyPrice.Mul(sell.Quantity)
	}

	pnl = proceeds.Sub(cost)

	if !cost.IsZero() {
		p := pnl.Div(cost).Mul(hundred).Round(pctPrecision)
		pct = &p
	}

	return pnl, pct
}

// EnrichedTransaction is a transaction annotated with the cost-basis figures
// valid at its point in the history. Nil pointer fields mean "unavailable",
// which is distinct from zero.
type EnrichedTransaction struct {
	model.LedgerTransaction

	// FiatAmount is the fiat value moved: quantity for fiat kinds,
	// price times quantity for crypto kinds.
	FiatAmount decimal.Decimal `json:"fiat_amount"`

	// AverageBuyPrice is the moving-average buy price of the asset at this
	// transaction, including the transaction itself when it is a BUY.
	AverageBuyPrice *decimal.Decimal `json:"average_buy_price,omitempty"`

	// RealizedPNL and RealizedPNLPct are set for SELL transactions only.
	RealizedPNL    *decimal.Decimal `json:"realized_pnl,omitempty"`
	RealizedPNLPct *decimal.Decimal `json:"realized_pnl_pct,omitempty"`
}

// Enrich annotates the full history with per-transaction average buy prices
// and per-SELL realized P/L.
//
// Wall clocks are too coarse to order transactions alone, so all historical
// computation runs over the total order (transaction_time, id). A BUY that
// shares a SELL's timestamp but has a higher id is ordered after the SELL and
// does not contribute to its basis.
func Enrich(txns []model.LedgerTransaction) []EnrichedTransaction {

	ordered := make([]model.LedgerTransaction, len(txns))
	copy(ordered, txns)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].TransactionTime.Equal(ordered[j].TransactionTime) {
			return ordered[i].ID < ordered[j].ID
		}
		return ordered[i].TransactionTime.Before(ordered[j].TransactionTime)
	})

	type runningBasis struct {
		totalCost decimal.Decimal
		totalQty  decimal.Decimal
	}
	basis := make(map[string]*runningBasis)

	out := make([]EnrichedTransaction, 0, len(ordered))

	for i := range ordered {
		t := ordered[i]

		enriched := EnrichedTransaction{
			LedgerTransaction: t,
			FiatAmount:        t.Amount(),
		}

		switch t.Kind {
		case model.TransactionKindBuy:
			b := basis[t.TokenID]
			if b == nil {
				b = &runningBasis{}
				basis[t.TokenID] = b
			}
			b.totalCost = b.totalCost.Add(t.UnitPrice.Mul(t.Quantity))
			b.totalQty = b.totalQty.Add(t.Quantity)

			avg := b.totalCost.Div(b.totalQty)
			enriched.AverageBuyPrice = &avg

		case model.TransactionKindSell:
			b := basis[t.TokenID]
			if b != nil && !b.totalQty.IsZero() {
				avg := b.totalCost.Div(b.totalQty)
				enriched.AverageBuyPrice = &avg

				pnl, pct := RealizedPNL(t, avg, true)
				enriched.RealizedPNL = &pnl
				enriched.RealizedPNLPct = pct
			} else {
				pnl, _ := RealizedPNL(t, decimal.Decimal{}, false)
				enriched.RealizedPNL = &pnl
			}
		}

		out = append(out, enriched)
	}

	return out
}
