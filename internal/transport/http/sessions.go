package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"jax-trading-assistant/internal/core/session"
	"jax-trading-assistant/internal/money"
)

type createSessionBody struct {
	OwnerKey    string `json:"owner_key" validate:"required"`
	SimStart    string `json:"sim_start" validate:"required"`
	SimEnd      string `json:"sim_end" validate:"required"`
	InitialCash string `json:"initial_cash" validate:"required"`
}

func (s *Server) handleSessionsCollection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createSession(w, r)
	case http.MethodGet:
		s.listSessions(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var body createSessionBody
	if !decodeBody(w, r, &body) {
		return
	}

	simStart, err := time.Parse(time.RFC3339, body.SimStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, 40010000, "sim_start must be an ISO-8601 timestamp", "sim_start")
		return
	}
	simEnd, err := time.Parse(time.RFC3339, body.SimEnd)
	if err != nil {
		writeError(w, http.StatusBadRequest, 40010000, "sim_end must be an ISO-8601 timestamp", "sim_end")
		return
	}
	cash, err := money.Parse(body.InitialCash)
	if err != nil {
		writeError(w, http.StatusBadRequest, 40010000, "initial_cash must be a decimal string", "initial_cash")
		return
	}

	sess, acct, err := s.controller.CreateSession(r.Context(), session.CreateSessionRequest{
		OwnerKey:    body.OwnerKey,
		SimStart:    simStart,
		SimEnd:      simEnd,
		InitialCash: cash,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"session": toSessionDTO(sess),
		"account": toAccountDTO(acct),
	})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	ownerKey := r.URL.Query().Get("owner_key")
	sessions, err := s.controller.ListSessions(r.Context(), ownerKey)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]sessionDTO, 0, len(sessions))
	for _, sess := range sessions {
		dtos = append(dtos, toSessionDTO(sess))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": dtos})
}

// handleSessionItem dispatches every /v1/sessions/{id}[/time/...] route.
func (s *Server) handleSessionItem(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/sessions/")
	rest = strings.Trim(rest, "/")
	parts := strings.Split(rest, "/")
	if parts[0] == "" {
		http.NotFound(w, r)
		return
	}
	id := parts[0]

	switch {
	case len(parts) == 1:
		s.sessionByID(w, r, id)
	case len(parts) == 3 && parts[1] == "time" && parts[2] == "advance" && r.Method == http.MethodPost:
		s.advanceTime(w, r, id)
	case len(parts) == 3 && parts[1] == "time" && parts[2] == "play" && r.Method == http.MethodPost:
		s.playSession(w, r, id)
	case len(parts) == 3 && parts[1] == "time" && parts[2] == "pause" && r.Method == http.MethodPost:
		s.pauseSession(w, r, id)
	case len(parts) == 3 && parts[1] == "time" && parts[2] == "speed" && r.Method == http.MethodPut:
		s.setSpeed(w, r, id)
	default:
		http.NotFound(w, r)
	}
}

func (s *Server) sessionByID(w http.ResponseWriter, r *http.Request, id string) {
	switch r.Method {
	case http.MethodGet:
		sess, err := s.controller.GetSession(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toSessionDTO(sess))
	case http.MethodDelete:
		if err := s.controller.DeleteSession(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type advanceTimeBody struct {
	Duration   *float64 `json:"duration"` // minutes
	TargetTime *string  `json:"targetTime"`
}

func (s *Server) advanceTime(w http.ResponseWriter, r *http.Request, id string) {
	var body advanceTimeBody
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, 40010000, "malformed request body", "")
			return
		}
	}

	var req session.AdvanceRequest
	if body.TargetTime != nil {
		t, err := time.Parse(time.RFC3339, *body.TargetTime)
		if err != nil {
			writeError(w, http.StatusBadRequest, 40010000, "targetTime must be an ISO-8601 timestamp", "targetTime")
			return
		}
		req.TargetTime = &t
	} else if body.Duration != nil {
		d := time.Duration(*body.Duration * float64(time.Minute))
		req.Duration = &d
	}

	sess, err := s.controller.AdvanceTime(r.Context(), id, req)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(sess))
}

func (s *Server) playSession(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.controller.Play(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	sess, err := s.controller.GetSession(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(sess))
}

func (s *Server) pauseSession(w http.ResponseWriter, r *http.Request, id string) {
	if err := s.controller.Pause(r.Context(), id); err != nil {
		writeDomainError(w, err)
		return
	}
	sess, err := s.controller.GetSession(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(sess))
}

type setSpeedBody struct {
	Speed float64 `json:"speed" validate:"gt=0"`
}

func (s *Server) setSpeed(w http.ResponseWriter, r *http.Request, id string) {
	var body setSpeedBody
	if !decodeBody(w, r, &body) {
		return
	}
	if err := s.controller.SetSpeed(r.Context(), id, body.Speed); err != nil {
		writeDomainError(w, err)
		return
	}
	sess, err := s.controller.GetSession(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionDTO(sess))
}
