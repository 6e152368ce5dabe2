// Command bars-ingest is the non-core CLI surface spec §6 describes:
// init-db, load-symbols, load-bars, and stats subcommands that populate
// the Postgres bars table the simulator's BarStore reads from. It is
// grounded on the teacher's libs/marketdata.AlpacaProvider for historical
// candles and libs/resilience.CircuitBreaker for the same fail-fast
// protection the teacher wraps every upstream provider call in.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
	"jax-trading-assistant/internal/store/barstore"
	"jax-trading-assistant/internal/store/postgres"
	"jax-trading-assistant/libs/marketdata"
	"jax-trading-assistant/libs/observability"
	"jax-trading-assistant/libs/resilience"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "init-db":
		err = cmdInitDB(ctx)
	case "load-symbols":
		err = cmdLoadSymbols(ctx, os.Args[2:])
	case "load-bars":
		err = cmdLoadBars(ctx, os.Args[2:])
	case "stats":
		err = cmdStats(ctx)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		observability.LogEvent(ctx, "error", "bars_ingest_failed", map[string]any{"command": os.Args[1], "error": err})
		log.Printf("bars-ingest: %v", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: bars-ingest <command> [flags]

commands:
  init-db                                             run pending schema migrations
  load-symbols -source <url>                          fetch and print the tradable symbol list
  load-bars -s SYM --from YYYY-MM-DD --to YYYY-MM-DD -r minute|daily
  stats                                                print row counts per symbol`)
}

func connectPostgres(ctx context.Context) (*postgres.Store, error) {
	dsn := os.Getenv("POSTGRES_CONNECTION_STRING")
	if dsn == "" {
		return nil, fmt.Errorf("POSTGRES_CONNECTION_STRING is required")
	}
	cfg := postgres.DefaultConfig()
	cfg.DSN = dsn
	return postgres.Connect(ctx, cfg)
}

func cmdInitDB(ctx context.Context) error {
	store, err := connectPostgres(ctx)
	if err != nil {
		return err
	}
	defer store.Close()
	if err := postgres.RunMigrations(store.DB()); err != nil {
		return err
	}
	log.Println("bars-ingest: migrations applied")
	return nil
}

// cmdLoadSymbols fetches the tradable-asset list from a REST endpoint
// (e.g. a broker's /v2/assets) and prints the active equity symbols. It
// does not persist anything: the simulator has no symbol-metadata table,
// only the bars time series load-bars populates.
func cmdLoadSymbols(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("load-symbols", flag.ExitOnError)
	source := fs.String("source", "https://paper-api.alpaca.markets/v2/assets?status=active&asset_class=us_equity", "assets endpoint URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client := resty.New().
		SetTimeout(30 * time.Second).
		SetHeader("APCA-API-KEY-ID", os.Getenv("ALPACA_API_KEY")).
		SetHeader("APCA-API-SECRET-KEY", os.Getenv("ALPACA_API_SECRET"))

	var assets []struct {
		Symbol   string `json:"symbol"`
		Tradable bool   `json:"tradable"`
	}
	resp, err := client.R().SetContext(ctx).SetResult(&assets).Get(*source)
	if err != nil {
		return fmt.Errorf("fetch symbols: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("fetch symbols: %s", resp.Status())
	}

	count := 0
	for _, a := range assets {
		if !a.Tradable {
			continue
		}
		fmt.Println(a.Symbol)
		count++
	}
	log.Printf("bars-ingest: %d tradable symbols", count)
	return nil
}

func cmdLoadBars(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("load-bars", flag.ExitOnError)
	symbol := fs.String("s", "", "symbol to load")
	from := fs.String("from", "", "start date YYYY-MM-DD")
	to := fs.String("to", "", "end date YYYY-MM-DD")
	resolution := fs.String("r", "minute", "minute|daily")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *symbol == "" || *from == "" || *to == "" {
		return fmt.Errorf("-s, --from, and --to are all required")
	}
	start, err := time.Parse("2006-01-02", *from)
	if err != nil {
		return fmt.Errorf("--from: %w", err)
	}
	end, err := time.Parse("2006-01-02", *to)
	if err != nil {
		return fmt.Errorf("--to: %w", err)
	}

	var timeframe marketdata.Timeframe
	var res domain.Resolution
	switch *resolution {
	case "daily":
		timeframe, res = marketdata.Timeframe1Day, domain.ResolutionDay
	default:
		timeframe, res = marketdata.Timeframe1Min, domain.ResolutionMinute
	}

	provider, err := marketdata.NewAlpacaProvider(marketdata.ProviderConfig{
		Name:      marketdata.ProviderAlpaca,
		APIKey:    os.Getenv("ALPACA_API_KEY"),
		APISecret: os.Getenv("ALPACA_API_SECRET"),
		Tier:      "free",
	})
	if err != nil {
		return fmt.Errorf("provider: %w", err)
	}

	pgStore, err := connectPostgres(ctx)
	if err != nil {
		return err
	}
	defer pgStore.Close()
	bars := barstore.New(pgStore.DB())

	breaker := resilience.NewCircuitBreaker(resilience.DefaultConfig("alpaca-ingest"))
	days := int(end.Sub(start).Hours()/24) + 1
	limit := days
	if *resolution != "daily" {
		limit = days * 390 // ~regular-session minutes per trading day
	}

	observability.LogEvent(ctx, "info", "candle_fetch_start", map[string]any{"symbol": *symbol, "resolution": *resolution, "from": *from, "to": *to})
	result, err := breaker.ExecuteWithContext(ctx, func() (any, error) {
		return provider.GetCandles(ctx, *symbol, timeframe, limit)
	})
	if err != nil {
		return fmt.Errorf("fetch candles: %w", err)
	}
	candles := result.([]marketdata.Candle)

	stored := 0
	for _, c := range candles {
		if c.Timestamp.Before(start) || c.Timestamp.After(end) {
			continue
		}
		bar := domain.Bar{
			Symbol: *symbol,
			T:      c.Timestamp,
			Open:   money.New(money.FromFloatString(c.Open)),
			High:   money.New(money.FromFloatString(c.High)),
			Low:    money.New(money.FromFloatString(c.Low)),
			Close:  money.New(money.FromFloatString(c.Close)),
			Volume: money.FromInt(c.Volume),
		}
		if c.VWAP != 0 {
			vwap := money.New(money.FromFloatString(c.VWAP))
			bar.VWAP = &vwap
		}
		if err := bars.PutBar(ctx, bar, res); err != nil {
			return fmt.Errorf("store bar %s@%s: %w", bar.Symbol, bar.T, err)
		}
		stored++
	}
	log.Printf("bars-ingest: stored %d bars for %s (%s..%s, %s)", stored, *symbol, *from, *to, *resolution)
	return nil
}

func cmdStats(ctx context.Context) error {
	pgStore, err := connectPostgres(ctx)
	if err != nil {
		return err
	}
	defer pgStore.Close()

	rows, err := pgStore.DB().QueryContext(ctx, `
		SELECT symbol, resolution, COUNT(*), MIN(t), MAX(t)
		FROM bars
		GROUP BY symbol, resolution
		ORDER BY symbol, resolution`)
	if err != nil {
		return fmt.Errorf("stats query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var symbol, res string
		var n int64
		var minT, maxT time.Time
		if err := rows.Scan(&symbol, &res, &n, &minT, &maxT); err != nil {
			return fmt.Errorf("scan stats row: %w", err)
		}
		fmt.Printf("%-8s %-8s %8d bars  %s .. %s\n", symbol, res, n,
			minT.Format("2006-01-02"), maxT.Format("2006-01-02"))
	}
	return rows.Err()
}
