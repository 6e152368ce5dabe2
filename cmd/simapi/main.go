// Command simapi serves the simulator's wire API (spec §6), wiring the
// SessionController to either an in-memory or Postgres-backed store, in
// the style of the teacher's services/jax-api/cmd/jax-api/main.go: flags
// for local overrides, environment variables for the values spec §6
// recognizes, manual construction with no DI framework.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"time"

	"jax-trading-assistant/internal/core/policy"
	"jax-trading-assistant/internal/core/session"
	"jax-trading-assistant/internal/store"
	"jax-trading-assistant/internal/store/barstore"
	"jax-trading-assistant/internal/store/membars"
	"jax-trading-assistant/internal/store/memstore"
	"jax-trading-assistant/internal/store/postgres"
	"jax-trading-assistant/internal/store/rediscache"
	"jax-trading-assistant/internal/store/resilientstore"
	httpapi "jax-trading-assistant/internal/transport/http"
	"jax-trading-assistant/libs/observability"
)

func main() {
	var policyPath string
	var httpAddr string
	flag.StringVar(&policyPath, "policy", "", "Path to a policy JSON file (defaults to spec constants)")
	flag.StringVar(&httpAddr, "addr", ":8080", "HTTP listen address")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p := policy.Default()
	if policyPath != "" {
		loaded, err := policy.Load(policyPath)
		if err != nil {
			observability.LogEvent(ctx, "error", "policy_load_failed", map[string]any{"path": policyPath, "error": err})
			log.Fatalf("simapi: load policy: %v", err)
		}
		p = loaded
	}

	sessionStore, barStore, closeFn := buildStores(ctx)
	defer closeFn()

	controller := session.New(barStore, sessionStore, p)
	auth, enabled := httpapi.NewAuthenticatorFromEnv()
	if !enabled {
		observability.LogEvent(ctx, "warn", "auth_disabled", map[string]any{"reason": "no ApiKeys__* configured"})
		auth = nil
	}

	server := httpapi.NewServer(controller, barStore, auth)

	observability.LogEvent(ctx, "info", "simapi_listening", map[string]any{"addr": httpAddr, "policy_version": p.Version})
	log.Fatal(http.ListenAndServe(httpAddr, server.Handler()))
}

// buildStores wires the SessionStore and BarStore spec §6's environment
// variables select between: Postgres for both when
// POSTGRES_CONNECTION_STRING is set and USE_INMEMORY_COSMOS is not "true";
// in-memory sessions with Postgres bars when USE_INMEMORY_COSMOS=true and a
// DSN is set; in-memory for both when no DSN is set.
// REDIS_ADDR optionally layers a read-through bar cache.
func buildStores(ctx context.Context) (store.SessionStore, store.BarStore, func()) {
	dsn := os.Getenv("POSTGRES_CONNECTION_STRING")
	useInMemory := os.Getenv("USE_INMEMORY_COSMOS") == "true" || dsn == ""

	if useInMemory {
		observability.LogEvent(ctx, "info", "session_store_selected", map[string]any{"backend": "memory"})
		var sessions store.SessionStore = memstore.New()
		var bars store.BarStore = membars.New()
		if dsn != "" {
			bars = resilientstore.NewBarStore(connectBarStore(ctx, dsn), "barstore-postgres")
		}
		bars = maybeWrapCache(ctx, bars)
		return sessions, bars, func() {}
	}

	observability.LogEvent(ctx, "info", "session_store_selected", map[string]any{"backend": "postgres"})
	cfg := postgres.DefaultConfig()
	cfg.DSN = dsn
	pgStore, err := postgres.ConnectWithMigrations(ctx, cfg)
	if err != nil {
		log.Fatalf("simapi: connect postgres: %v", err)
	}
	sessions := resilientstore.NewSessionStore(pgStore, "sessionstore-postgres")
	bars := maybeWrapCache(ctx, resilientstore.NewBarStore(barstore.New(pgStore.DB()), "barstore-postgres"))
	return sessions, bars, func() { pgStore.Close() }
}

func connectBarStore(ctx context.Context, dsn string) store.BarStore {
	cfg := postgres.DefaultConfig()
	cfg.DSN = dsn
	pgStore, err := postgres.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("simapi: connect bar store: %v", err)
	}
	return barstore.New(pgStore.DB())
}

func maybeWrapCache(ctx context.Context, bars store.BarStore) store.BarStore {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		return bars
	}
	cache, err := rediscache.New(bars, rediscache.DefaultConfig(addr))
	if err != nil {
		observability.LogEvent(ctx, "warn", "redis_cache_unavailable", map[string]any{"addr": addr, "error": err})
		return bars
	}
	observability.LogEvent(ctx, "info", "redis_cache_enabled", map[string]any{"addr": addr})
	return cache
}
