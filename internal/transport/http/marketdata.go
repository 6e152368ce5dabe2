package httpapi

import (
	"net/http"
	"strings"
	"time"

	"jax-trading-assistant/internal/domain"
)

// assetDTO is a minimal tradeable-asset descriptor; the simulator has no
// asset-metadata store of its own, so every requested symbol is reported
// tradable and the client is expected to rely on bar/quote lookups to
// discover whether historical data actually exists for it.
type assetDTO struct {
	Symbol   string `json:"symbol"`
	Tradable bool   `json:"tradable"`
	Class    string `json:"class"`
}

func (s *Server) handleAssets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		writeJSON(w, http.StatusOK, map[string]any{"assets": []assetDTO{}})
		return
	}
	symbols := strings.Split(raw, ",")
	assets := make([]assetDTO, 0, len(symbols))
	for _, sym := range symbols {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			continue
		}
		assets = append(assets, assetDTO{Symbol: sym, Tradable: true, Class: "us_equity"})
	}
	writeJSON(w, http.StatusOK, map[string]any{"assets": assets})
}

// timeframeToResolution maps the wire timeframe enum (spec §6) to a
// domain.Resolution: 1Hour maps to hour bars, 1Day to day bars, and
// 1Min/5Min/15Min (or an unset timeframe) to minute bars.
func timeframeToResolution(tf string) domain.Resolution {
	switch tf {
	case "1Hour":
		return domain.ResolutionHour
	case "1Day":
		return domain.ResolutionDay
	default: // "1Min", "5Min", "15Min", or unset
		return domain.ResolutionMinute
	}
}

// handleAssetItem dispatches /v1/assets/{symbol}/bars and
// /v1/assets/{symbol}/quotes/latest.
func (s *Server) handleAssetItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/assets/")
	rest = strings.Trim(rest, "/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 {
		http.NotFound(w, r)
		return
	}
	symbol := strings.ToUpper(parts[0])

	switch {
	case len(parts) == 2 && parts[1] == "bars":
		s.assetBars(w, r, symbol)
	case len(parts) == 3 && parts[1] == "quotes" && parts[2] == "latest":
		s.assetLatestQuote(w, r, symbol)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) assetBars(w http.ResponseWriter, r *http.Request, symbol string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.bars == nil {
		writeError(w, http.StatusServiceUnavailable, 50300000, "bar store not configured", "")
		return
	}

	q := r.URL.Query()
	res := timeframeToResolution(q.Get("timeframe"))
	limit := parseIntQuery(r, "limit", 0)

	end := time.Now().UTC()
	if raw := q.Get("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, 40010000, "end must be an ISO-8601 timestamp", "end")
			return
		}
		end = parsed
	}
	start := end.AddDate(0, 0, -1)
	if raw := q.Get("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, 40010000, "start must be an ISO-8601 timestamp", "start")
			return
		}
		start = parsed
	}

	bars, err := s.bars.GetBars(r.Context(), symbol, start, end, res, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]barDTO, 0, len(bars))
	for _, b := range bars {
		dtos = append(dtos, toBarDTO(b))
	}
	writeJSON(w, http.StatusOK, map[string]any{"symbol": symbol, "bars": dtos})
}

func (s *Server) assetLatestQuote(w http.ResponseWriter, r *http.Request, symbol string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	sessionID, ok := requireSessionID(w, r)
	if !ok {
		return
	}
	quote, err := s.controller.Quote(r.Context(), sessionID, symbol)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toQuoteDTO(quote))
}
