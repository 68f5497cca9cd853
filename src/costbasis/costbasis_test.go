package costbasis

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"cryptofolio/src/model"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func buy(id uint, tokenID string, price, qty string, at time.Time) model.LedgerTransaction {
	return model.LedgerTransaction{
		ID:              id,
		UserID:          "u1",
		Kind:            model.TransactionKindBuy,
		TokenID:         tokenID,
		UnitPrice:       d(price),
		Quantity:        d(qty),
		TransactionTime: at,
	}
}

func sell(id uint, tokenID string, price, qty string, at time.Time) model.LedgerTransaction {
	t := buy(id, tokenID, price, qty, at)
	t.Kind = model.TransactionKindSell
	return t
}

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestAverageBuyPriceWeighted(t *testing.T) {
	history := []model.LedgerTransaction{
		buy(1, "btc", "50", "10", t0),
		buy(2, "btc", "60", "5", t0.Add(time.Hour)),
		buy(3, "eth", "1000", "2", t0.Add(time.Hour)), // other asset, ignored
	}

	avg, ok := AverageBuyPrice(history, "btc", t0.Add(2*time.Hour))
	if !ok {
		t.Fatal("expected a basis for btc")
	}

	// (10*50 + 5*60) / 15
	if !avg.Round(2).Equal(d("53.33")) {
		t.Fatalf("unexpected average buy price: %s", avg)
	}
}

func TestAverageBuyPriceRespectsReferenceTime(t *testing.T) {
	history := []model.LedgerTransaction{
		buy(1, "btc", "50", "10", t0),
		buy(2, "btc", "60", "5", t0.Add(time.Hour)),
	}

	avg, ok := AverageBuyPrice(history, "btc", t0)
	if !ok {
		t.Fatal("expected a basis at t0")
	}
	if !avg.Equal(d("50")) {
		t.Fatalf("second buy should not count yet, got %s", avg)
	}
}

func TestAverageBuyPriceNoQualifyingBuys(t *testing.T) {
	history := []model.LedgerTransaction{
		sell(1, "btc", "80", "1", t0),
	}

	if _, ok := AverageBuyPrice(history, "btc", t0.Add(time.Hour)); ok {
		t.Fatal("no BUY in history must report unavailable, not zero")
	}

	if _, ok := AverageBuyPrice(nil, "btc", t0); ok {
		t.Fatal("empty history must report unavailable")
	}
}

func TestRealizedPNL(t *testing.T) {
	s := sell(4, "btc", "80", "5", t0.Add(3*time.Hour))

	pnl, pct := RealizedPNL(s, d("53.3333333333333333"), true)

	if !pnl.Round(2).Equal(d("133.33")) {
		t.Fatalf("unexpected pnl: %s", pnl)
	}
	if pct == nil {
		t.Fatal("expected a percentage with a meaningful basis")
	}
	if !pct.Equal(d("50")) {
		t.Fatalf("unexpected pnl pct: %s", pct)
	}
}

func TestRealizedPNLWithoutBasis(t *testing.T) {
	s := sell(1, "btc", "80", "5", t0)

	pnl, pct := RealizedPNL(s, decimal.Decimal{}, false)

	// Cost side is zero: the whole proceeds count as P/L.
	if !pnl.Equal(d("400")) {
		t.Fatalf("unexpected pnl: %s", pnl)
	}
	if pct != nil {
		t.Fatalf("percentage must be unavailable with zero cost, got %s", pct)
	}
}

func TestEnrichScenario(t *testing.T) {
	history := []model.LedgerTransaction{
		buy(1, "btc", "50", "10", t0),
		buy(2, "btc", "60", "5", t0.Add(time.Hour)),
		sell(3, "btc", "80", "5", t0.Add(2*time.Hour)),
	}

	enriched := Enrich(history)
	if len(enriched) != 3 {
		t.Fatalf("expected 3 enriched records, got %d", len(enriched))
	}

	first := enriched[0]
	if first.AverageBuyPrice == nil || !first.AverageBuyPrice.Equal(d("50")) {
		t.Fatalf("first buy should carry its own price as average: %+v", first.AverageBuyPrice)
	}

	second := enriched[1]
	if second.AverageBuyPrice == nil || !second.AverageBuyPrice.Round(2).Equal(d("53.33")) {
		t.Fatalf("unexpected average on second buy: %+v", second.AverageBuyPrice)
	}

	last := enriched[2]
	if last.RealizedPNL == nil || !last.RealizedPNL.Round(2).Equal(d("133.33")) {
		t.Fatalf("unexpected realized pnl: %+v", last.RealizedPNL)
	}
	if last.RealizedPNLPct == nil || !last.RealizedPNLPct.Equal(d("50")) {
		t.Fatalf("unexpected realized pnl pct: %+v", last.RealizedPNLPct)
	}
	if !last.FiatAmount.Equal(d("400")) {
		t.Fatalf("unexpected fiat amount on sell: %s", last.FiatAmount)
	}
}

func TestEnrichSellWithoutBasis(t *testing.T) {
	history := []model.LedgerTransaction{
		sell(1, "btc", "80", "2", t0),
	}

	enriched := Enrich(history)

	if enriched[0].AverageBuyPrice != nil {
		t.Fatal("average must be unavailable without any BUY")
	}
	if enriched[0].RealizedPNL == nil || !enriched[0].RealizedPNL.Equal(d("160")) {
		t.Fatalf("unexpected pnl without basis: %+v", enriched[0].RealizedPNL)
	}
	if enriched[0].RealizedPNLPct != nil {
		t.Fatal("percentage must be unavailable without basis")
	}
}

// Two transactions sharing a timestamp must be ordered by id, so the result
// cannot depend on slice order or wall-clock precision.
func TestEnrichSameTimestampTieBreak(t *testing.T) {
	b1 := buy(1, "btc", "50", "10", t0)
	s2 := sell(2, "btc", "80", "5", t0.Add(time.Hour))
	b3 := buy(3, "btc", "100", "10", t0.Add(time.Hour)) // same instant as the sell, higher id

	for name, order := range map[string][]model.LedgerTransaction{
		"log order":      {b1, s2, b3},
		"shuffled order": {b3, b1, s2},
	} {
		enriched := Enrich(order)

		// The sell's basis must exclude the equal-timestamp buy with the
		// higher id: basis is the first buy alone.
		var sellRec *EnrichedTransaction
		for i := range enriched {
			if enriched[i].ID == 2 {
				sellRec = &enriched[i]
			}
		}
		if sellRec == nil {
			t.Fatalf("%s: sell not found", name)
		}

		if sellRec.AverageBuyPrice == nil || !sellRec.AverageBuyPrice.Equal(d("50")) {
			t.Fatalf("%s: sell basis must be 50, got %+v", name, sellRec.AverageBuyPrice)
		}
		// proceeds 400, cost 250 -> pnl 150
		if sellRec.RealizedPNL == nil || !sellRec.RealizedPNL.Equal(d("150")) {
			t.Fatalf("%s: unexpected pnl %+v", name, sellRec.RealizedPNL)
		}

		// The later buy folds into the running basis for anything after it:
		// (10*50 + 10*100) / 20 = 75.
		var lastBuy *EnrichedTransaction
		for i := range enriched {
			if enriched[i].ID == 3 {
				lastBuy = &enriched[i]
			}
		}
		if lastBuy == nil || lastBuy.AverageBuyPrice == nil || !lastBuy.AverageBuyPrice.Equal(d("75")) {
			t.Fatalf("%s: unexpected average on late buy: %+v", name, lastBuy)
		}
	}
}

func TestEnrichDoesNotMutateInput(t *testing.T) {
	history := []model.LedgerTransaction{
		sell(2, "btc", "80", "1", t0.Add(time.Hour)),
		buy(1, "btc", "50", "1", t0),
	}

	_ = Enrich(history)

	if history[0].ID != 2 || history[1].ID != 1 {
		t.Fatal("Enrich must not reorder the caller's slice")
	}
}

func TestNetInvested(t *testing.T) {
	history := []model.LedgerTransaction{
		{ID: 1, UserID: "u1", Kind: model.TransactionKindDeposit, Quantity: d("10000"), TransactionTime: t0},
		buy(2, "btc", "50", "10", t0.Add(time.Hour)),    // +500
		buy(3, "eth", "1000", "2", t0.Add(2*time.Hour)), // +2000
		sell(4, "btc", "80", "5", t0.Add(3*time.Hour)),  // -400
		{ID: 5, UserID: "u1", Kind: model.TransactionKindWithdrawal, Quantity: d("300"), TransactionTime: t0.Add(4 * time.Hour)},
	}

	invested := NetInvested(history)

	// 500 + 2000 - 400; deposits and withdrawals do not move it
	if !invested.Equal(d("2100")) {
		t.Fatalf("unexpected net invested value: %s", invested)
	}
}

func TestNetInvestedEmptyHistory(t *testing.T) {
	if v := NetInvested(nil); !v.IsZero() {
		t.Fatalf("expected zero for an empty history, got %s", v)
	}
}

func TestNetInvestedCanGoNegative(t *testing.T) {
	history := []model.LedgerTransaction{
		buy(1, "btc", "50", "10", t0),
		sell(2, "btc", "80", "10", t0.Add(time.Hour)),
	}

	// Selling above basis returns more fiat than went in.
	if v := NetInvested(history); !v.Equal(d("-300")) {
		t.Fatalf("unexpected net invested value: %s", v)
	}
}
