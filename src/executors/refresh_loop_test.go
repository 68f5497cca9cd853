package executors

import (
	"context"
	"errors"
	"testing"

	"cryptofolio/src/connectors"
	"cryptofolio/src/model"
)

type stubLister struct {
	coins []connectors.Coin
	err   error
	limit int
}

func (s *stubLister) ListCoins(ctx context.Context, limit int) ([]connectors.Coin, error) {
	s.limit = limit
	return s.coins, s.err
}

type recordingWriter struct {
	quotes []*model.AssetPrice
	err    error
}

func (r *recordingWriter) UpsertQuote(ctx context.Context, quote *model.AssetPrice) error {
	if r.err != nil {
		return r.err
	}
	r.quotes = append(r.quotes, quote)
	return nil
}

func TestRefreshOnceStoresParseableQuotes(t *testing.T) {
	lister := &stubLister{coins: []connectors.Coin{
		{UUID: "btc", Name: "Bitcoin", Symbol: "BTC", Price: "50000"},
		{UUID: "bad", Name: "Broken", Symbol: "BRK", Price: "not-a-number"},
		{UUID: "eth", Name: "Ethereum", Symbol: "ETH", Price: "3000"},
	}}
	writer := &recordingWriter{}

	if err := refreshOnce(context.Background(), lister, writer, 25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if lister.limit != 25 {
		t.Fatalf("expected limit 25 to be passed through, got %d", lister.limit)
	}
	if len(writer.quotes) != 2 {
		t.Fatalf("expected 2 stored quotes, got %d", len(writer.quotes))
	}
	if writer.quotes[0].TokenID != "btc" || writer.quotes[1].TokenID != "eth" {
		t.Fatalf("unexpected stored quotes: %+v", writer.quotes)
	}
}

func TestRefreshOncePropagatesListError(t *testing.T) {
	lister := &stubLister{err: errors.New("upstream down")}
	writer := &recordingWriter{}

	if err := refreshOnce(context.Background(), lister, writer, 10); err == nil {
		t.Fatalf("expected error, got nil")
	}
	if len(writer.quotes) != 0 {
		t.Fatalf("expected no quotes stored, got %d", len(writer.quotes))
	}
}

func TestRefreshOncePropagatesStoreError(t *testing.T) {
	lister := &stubLister{coins: []connectors.Coin{
		{UUID: "btc", Name: "Bitcoin", Symbol: "BTC", Price: "50000"},
	}}
	writer := &recordingWriter{err: errors.New("db down")}

	if err := refreshOnce(context.Background(), lister, writer, 10); err == nil {
		t.Fatalf("expected error, got nil")
	}
}
