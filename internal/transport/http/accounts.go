package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"

	"jax-trading-assistant/internal/money"
	"jax-trading-assistant/internal/simerr"
)

type createAccountBody struct {
	InitialCash string `json:"initial_cash" validate:"required"`
}

func (s *Server) handleAccountsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		sessionID, ok := requireSessionID(w, r)
		if !ok {
			return
		}
		var body createAccountBody
		if !decodeBody(w, r, &body) {
			return
		}
		cash, err := money.Parse(body.InitialCash)
		if err != nil {
			writeError(w, http.StatusBadRequest, 40010000, "initial_cash must be a decimal string", "initial_cash")
			return
		}
		acct, err := s.controller.CreateAccount(r.Context(), sessionID, cash)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, toAccountDTO(acct))
	case http.MethodGet:
		sessionID, ok := requireSessionID(w, r)
		if !ok {
			return
		}
		accounts, err := s.controller.ListAccounts(r.Context(), sessionID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		dtos := make([]accountDTO, 0, len(accounts))
		for _, a := range accounts {
			dtos = append(dtos, toAccountDTO(a))
		}
		writeJSON(w, http.StatusOK, map[string]any{"accounts": dtos})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type patchAccountBody struct {
	TradingBlocked *bool `json:"trading_blocked"`
	AccountBlocked *bool `json:"account_blocked"`
}

func (s *Server) handleAccountItem(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/v1/accounts/")
	id = strings.Trim(id, "/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		acct, err := s.controller.GetAccount(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAccountDTO(acct))
	case http.MethodPatch:
		var body patchAccountBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, 40010000, "malformed request body", "")
			return
		}
		acct, err := s.controller.SetAccountBlocked(r.Context(), id, body.TradingBlocked, body.AccountBlocked)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toAccountDTO(acct))
	case http.MethodDelete:
		// Accounts live for the lifetime of their session (spec §3); an
		// individual account is removed only by deleting its session.
		writeDomainError(w, simerr.New(simerr.KindNotImplemented, "delete the owning session to remove an account"))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
