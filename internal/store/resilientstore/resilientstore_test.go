package resilientstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
	"jax-trading-assistant/internal/simerr"
	"jax-trading-assistant/internal/store/membars"
)

func dec(s string) money.Decimal {
	d, err := money.Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

type failingBarStore struct{ calls int }

func (f *failingBarStore) GetBar(ctx context.Context, symbol string, asOf time.Time, res domain.Resolution) (domain.Bar, bool, error) {
	f.calls++
	return domain.Bar{}, false, errors.New("boom")
}

func (f *failingBarStore) GetBars(ctx context.Context, symbol string, start, end time.Time, res domain.Resolution, limit int) ([]domain.Bar, error) {
	return nil, errors.New("boom")
}

func (f *failingBarStore) GetLatestBars(ctx context.Context, symbols []string, asOf time.Time) (map[string]domain.Bar, error) {
	return nil, errors.New("boom")
}

func TestBarStorePassesThroughOnSuccess(t *testing.T) {
	inner := membars.New()
	now := time.Date(2024, 1, 2, 9, 30, 0, 0, time.UTC)
	inner.Put(domain.Bar{
		Symbol: "AAPL", T: now,
		Open: dec("100"), High: dec("101"), Low: dec("99"), Close: dec("100.5"),
		Volume: dec("10000"),
	}, domain.ResolutionMinute)

	wrapped := NewBarStore(inner, "test-barstore-ok")
	bar, ok, err := wrapped.GetBar(context.Background(), "AAPL", now, domain.ResolutionMinute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected a bar to be found")
	}
	if !bar.Close.Equal(dec("100.5")) {
		t.Fatalf("close = %s, want 100.5", bar.Close)
	}
}

func TestBarStoreWrapsErrorAsUnavailable(t *testing.T) {
	wrapped := NewBarStore(&failingBarStore{}, "test-barstore-fail")
	_, _, err := wrapped.GetBar(context.Background(), "AAPL", time.Now(), domain.ResolutionMinute)
	if err == nil {
		t.Fatal("expected an error")
	}
	if simerr.KindOf(err) != simerr.KindUnavailable {
		t.Fatalf("kind = %v, want KindUnavailable", simerr.KindOf(err))
	}
}

func TestBarStoreBreakerTripsAfterRepeatedFailures(t *testing.T) {
	inner := &failingBarStore{}
	wrapped := NewBarStore(inner, "test-barstore-trip")
	for i := 0; i < 10; i++ {
		_, _, _ = wrapped.GetBar(context.Background(), "AAPL", time.Now(), domain.ResolutionMinute)
	}
	// Once open, the breaker short-circuits without invoking inner again for
	// a request or two; either way every call still surfaces Unavailable.
	_, _, err := wrapped.GetBar(context.Background(), "AAPL", time.Now(), domain.ResolutionMinute)
	if simerr.KindOf(err) != simerr.KindUnavailable {
		t.Fatalf("kind = %v, want KindUnavailable", simerr.KindOf(err))
	}
}
