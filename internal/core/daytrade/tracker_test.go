package daytrade

import (
	"testing"
	"time"

	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
)

func day(offset int) time.Time {
	base := time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)
	return base.AddDate(0, 0, offset)
}

func record(accountID, symbol string, side domain.OrderSide, at time.Time) domain.TradeRecord {
	return domain.TradeRecord{AccountID: accountID, Symbol: symbol, Side: side, Qty: money.New("10"), T: at}
}

func TestWouldBeDayTradeDetectsSameDayRoundTrip(t *testing.T) {
	tr := New()
	tr.Record(record("a1", "AAPL", domain.OrderSideBuy, day(0)))

	if !tr.WouldBeDayTrade("a1", "AAPL", domain.OrderSideSell, day(0)) {
		t.Errorf("a same-day opposite-side fill should be detected as a day trade")
	}
}

func TestWouldBeDayTradeIgnoresDifferentDay(t *testing.T) {
	tr := New()
	tr.Record(record("a1", "AAPL", domain.OrderSideBuy, day(0)))

	if tr.WouldBeDayTrade("a1", "AAPL", domain.OrderSideSell, day(1)) {
		t.Errorf("a next-day opposite-side fill must not count as a day trade")
	}
}

func TestWouldBeDayTradeIgnoresOtherAccount(t *testing.T) {
	tr := New()
	tr.Record(record("a1", "AAPL", domain.OrderSideBuy, day(0)))

	if tr.WouldBeDayTrade("a2", "AAPL", domain.OrderSideSell, day(0)) {
		t.Errorf("a different account's buy must not trigger a day trade for this account")
	}
}

func TestCountCountsCompleteBucketsOnly(t *testing.T) {
	tr := New()
	tr.Record(record("a1", "AAPL", domain.OrderSideBuy, day(0)))
	tr.Record(record("a1", "AAPL", domain.OrderSideSell, day(0))) // complete round trip, day 0
	tr.Record(record("a1", "MSFT", domain.OrderSideBuy, day(1)))  // buy only, no sell

	if got := tr.Count("a1", day(1)); got != 1 {
		t.Errorf("Count = %d, want 1 (only the completed AAPL round trip)", got)
	}
}

func TestCountRespectsRollingWindow(t *testing.T) {
	tr := New()
	tr.Record(record("a1", "AAPL", domain.OrderSideBuy, day(0)))
	tr.Record(record("a1", "AAPL", domain.OrderSideSell, day(0)))

	if got := tr.Count("a1", day(10)); got != 0 {
		t.Errorf("Count = %d, want 0 once the round trip falls outside the rolling window", got)
	}
}

func TestPatternDayTraderThreshold(t *testing.T) {
	tr := New()
	symbols := []string{"AAPL", "MSFT", "GOOG", "TSLA"}
	for i, sym := range symbols {
		tr.Record(record("a1", sym, domain.OrderSideBuy, day(i)))
		tr.Record(record("a1", sym, domain.OrderSideSell, day(i)))
	}

	if !tr.PatternDayTrader("a1", day(4)) {
		t.Errorf("4 round trips within the rolling window should flag as a pattern day trader")
	}
}

func TestValidateTradeAllowedWhenNotADayTrade(t *testing.T) {
	tr := New()
	acct := domain.Account{ID: "a1", Equity: money.New("1000")}

	verdict := tr.ValidateTrade(acct, "AAPL", domain.OrderSideBuy, day(0), money.New("25000"))
	if verdict != VerdictAllowed {
		t.Errorf("verdict = %v, want allowed for a non-day-trade fill", verdict)
	}
}

func TestValidateTradeAllowedAboveMinEquity(t *testing.T) {
	tr := New()
	tr.Record(record("a1", "AAPL", domain.OrderSideBuy, day(0)))
	acct := domain.Account{ID: "a1", Equity: money.New("30000")}

	verdict := tr.ValidateTrade(acct, "AAPL", domain.OrderSideSell, day(0), money.New("25000"))
	if verdict != VerdictAllowed {
		t.Errorf("verdict = %v, want allowed when equity clears the PDT minimum", verdict)
	}
}

func TestValidateTradeWarningAtTwoPriorDayTrades(t *testing.T) {
	tr := New()
	for i, sym := range []string{"AAPL", "MSFT"} {
		tr.Record(record("a1", sym, domain.OrderSideBuy, day(i)))
		tr.Record(record("a1", sym, domain.OrderSideSell, day(i)))
	}
	tr.Record(record("a1", "TSLA", domain.OrderSideBuy, day(2)))
	acct := domain.Account{ID: "a1", Equity: money.New("1000")}

	verdict := tr.ValidateTrade(acct, "TSLA", domain.OrderSideSell, day(2), money.New("25000"))
	if verdict != VerdictWarning {
		t.Errorf("verdict = %v, want warning at exactly 2 prior day trades", verdict)
	}
}

func TestValidateTradeRejectedAtThreeOrMorePriorDayTrades(t *testing.T) {
	tr := New()
	for i, sym := range []string{"AAPL", "MSFT", "GOOG"} {
		tr.Record(record("a1", sym, domain.OrderSideBuy, day(i)))
		tr.Record(record("a1", sym, domain.OrderSideSell, day(i)))
	}
	tr.Record(record("a1", "TSLA", domain.OrderSideBuy, day(3)))
	acct := domain.Account{ID: "a1", Equity: money.New("1000")}

	verdict := tr.ValidateTrade(acct, "TSLA", domain.OrderSideSell, day(3), money.New("25000"))
	if verdict != VerdictRejected {
		t.Errorf("verdict = %v, want rejected at 3 or more prior day trades", verdict)
	}
}

func TestPurgeDropsRecordsOlderThanWindow(t *testing.T) {
	tr := New()
	tr.Record(record("a1", "AAPL", domain.OrderSideBuy, day(0)))
	tr.Record(record("a1", "AAPL", domain.OrderSideSell, day(10)))

	tr.Purge(day(10))

	kept := tr.Records()
	if len(kept) != 1 || !kept[0].T.Equal(day(10)) {
		t.Errorf("Purge should drop the day(0) record and keep day(10), got %+v", kept)
	}
}

func TestRestoreRoundTripsRecords(t *testing.T) {
	records := []domain.TradeRecord{record("a1", "AAPL", domain.OrderSideBuy, day(0))}
	tr := Restore(records)

	if len(tr.Records()) != 1 {
		t.Fatalf("Restore should preserve the given records")
	}
	if !tr.WouldBeDayTrade("a1", "AAPL", domain.OrderSideSell, day(0)) {
		t.Errorf("a restored tracker should detect day trades from its restored records")
	}
}
