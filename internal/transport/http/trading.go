package httpapi

import (
	"net/http"
	"strings"

	"jax-trading-assistant/internal/core/session"
	"jax-trading-assistant/internal/domain"
	"jax-trading-assistant/internal/money"
	"jax-trading-assistant/internal/simerr"
)

// handleTrading dispatches every /v1/trading/accounts/{accountID}/... route.
func (s *Server) handleTrading(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/trading/accounts/")
	rest = strings.Trim(rest, "/")
	parts := strings.Split(rest, "/")
	if len(parts) < 2 {
		http.NotFound(w, r)
		return
	}
	accountID, resource := parts[0], parts[1]

	switch resource {
	case "orders":
		switch {
		case len(parts) == 2:
			s.ordersCollection(w, r, accountID)
		case len(parts) == 3:
			s.orderItem(w, r, accountID, parts[2])
		default:
			http.NotFound(w, r)
		}
	case "positions":
		switch {
		case len(parts) == 2:
			s.positionsCollection(w, r, accountID)
		case len(parts) == 3:
			s.positionItem(w, r, accountID, parts[2])
		default:
			http.NotFound(w, r)
		}
	default:
		http.NotFound(w, r)
	}
}

type orderRequestBody struct {
	ClientOrderID string  `json:"client_order_id"`
	Symbol        string  `json:"symbol" validate:"required"`
	Qty           *string `json:"qty"`
	Notional      *string `json:"notional"`
	Type          string  `json:"type" validate:"required,oneof=market limit stop stopLimit trailingStop"`
	Side          string  `json:"side" validate:"required,oneof=buy sell"`
	TimeInForce   string  `json:"time_in_force" validate:"required,oneof=day gtc opg cls ioc fok"`
	LimitPrice    *string `json:"limit_price"`
	StopPrice     *string `json:"stop_price"`
	TrailPrice    *string `json:"trail_price"`
	TrailPercent  *string `json:"trail_percent"`
	ExtendedHours bool    `json:"extended_hours"`
}

func parseOptionalDecimal(s *string, field string) (*money.Decimal, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	d, err := money.Parse(*s)
	if err != nil {
		return nil, simerr.Field(simerr.KindInvalidArgument, field, "%s must be a decimal string", field)
	}
	return &d, nil
}

func (s *Server) ordersCollection(w http.ResponseWriter, r *http.Request, accountID string) {
	switch r.Method {
	case http.MethodPost:
		var body orderRequestBody
		if !decodeBody(w, r, &body) {
			return
		}

		qty, err := parseOptionalDecimal(body.Qty, "qty")
		if err != nil {
			writeDomainError(w, err)
			return
		}
		notional, err := parseOptionalDecimal(body.Notional, "notional")
		if err != nil {
			writeDomainError(w, err)
			return
		}
		limitPrice, err := parseOptionalDecimal(body.LimitPrice, "limit_price")
		if err != nil {
			writeDomainError(w, err)
			return
		}
		stopPrice, err := parseOptionalDecimal(body.StopPrice, "stop_price")
		if err != nil {
			writeDomainError(w, err)
			return
		}
		trailPrice, err := parseOptionalDecimal(body.TrailPrice, "trail_price")
		if err != nil {
			writeDomainError(w, err)
			return
		}
		trailPercent, err := parseOptionalDecimal(body.TrailPercent, "trail_percent")
		if err != nil {
			writeDomainError(w, err)
			return
		}

		order, err := s.controller.SubmitOrder(r.Context(), accountID, session.OrderRequest{
			ClientOrderID: body.ClientOrderID,
			Symbol:        strings.ToUpper(body.Symbol),
			Qty:           qty,
			Notional:      notional,
			Type:          domain.OrderType(body.Type),
			Side:          domain.OrderSide(body.Side),
			TIF:           domain.TimeInForce(body.TimeInForce),
			LimitPrice:    limitPrice,
			StopPrice:     stopPrice,
			TrailPrice:    trailPrice,
			TrailPercent:  trailPercent,
			ExtendedHours: body.ExtendedHours,
		})
		if err != nil {
			// A rejected order is still a persisted, lookup-able order
			// (SubmitOrder returns it alongside the validator's
			// simerr.Errors); only a genuine lookup/storage failure has no
			// order to report.
			if _, ok := err.(simerr.Errors); !ok {
				writeDomainError(w, err)
				return
			}
		}
		writeJSON(w, http.StatusCreated, toOrderDTO(order))
	case http.MethodGet:
		orders, err := s.controller.ListOrders(r.Context(), accountID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		dtos := make([]orderDTO, 0, len(orders))
		for _, o := range orders {
			dtos = append(dtos, toOrderDTO(o))
		}
		writeJSON(w, http.StatusOK, map[string]any{"orders": dtos})
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) orderItem(w http.ResponseWriter, r *http.Request, accountID, orderID string) {
	switch r.Method {
	case http.MethodGet:
		order, err := s.controller.GetOrder(r.Context(), orderID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderDTO(order))
	case http.MethodDelete:
		order, err := s.controller.CancelOrder(r.Context(), orderID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toOrderDTO(order))
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) positionsCollection(w http.ResponseWriter, r *http.Request, accountID string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	positions, err := s.controller.ListPositions(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	dtos := make([]positionDTO, 0, len(positions))
	for _, p := range positions {
		dtos = append(dtos, toPositionDTO(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{"positions": dtos})
}

func (s *Server) positionItem(w http.ResponseWriter, r *http.Request, accountID, symbol string) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	pos, ok, err := s.controller.GetPosition(r.Context(), accountID, strings.ToUpper(symbol))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, 40410000, "no position in "+symbol, "")
		return
	}
	writeJSON(w, http.StatusOK, toPositionDTO(pos))
}
