package obligation

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

	"github.com/jvaldiviezo/contasys/internal"
	"github.com/jvaldiviezo/contasys/internal/transport"
	"github.com/jvaldiviezo/contasys/pkg/logger"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor internal.Actor, dto CreateObligationDTO) (*Obligation, error)
	GetByID(id int64) (*Obligation, error)
	List(filter ListFilter) ([]*Obligation, error)
	SweepDueDates(ctx context.Context, asOf time.Time) (int, error)
}

type Handler struct {
	*transport.BaseHandler
	Service ServiceAPI
}

func NewHandler(service ServiceAPI) *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

func (h *Handler) CreateObligation(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.Logger.Error("CreateObligation: actor not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateObligationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateObligation: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	obl, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Error("CreateObligation: service error", "error", err, "client_id", dto.ClientID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateObligation: obligation created",
		"obligation_id", obl.ID,
		"client_id", obl.ClientID,
		"period", obl.Period,
		"status", obl.Status)

	h.WriteJSON(w, http.StatusCreated, obl)
}

func (h *Handler) GetObligation(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.Logger.Error("GetObligation: invalid obligation ID", "id", idStr)
		h.WriteError(w, http.StatusBadRequest, "invalid obligation ID")
		return
	}

	obl, err := h.Service.GetByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, obl)
}

func (h *Handler) ListObligations(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	filter := ListFilter{
		Period:   r.URL.Query().Get("period"),
		SortDesc: r.URL.Query().Get("sort") == "desc",
	}

	if clientIDStr := r.URL.Query().Get("client_id"); clientIDStr != "" {
		if id, err := strconv.ParseInt(clientIDStr, 10, 64); err == nil {
			filter.ClientID = id
		}
	}

	// Accountants see their whole portfolio unless they filter by client.
	if actor.Role == internal.RoleContador && filter.ClientID == 0 {
		filter.AccountantID = actor.ID
	}

	if maxStr := r.URL.Query().Get("max_amount"); maxStr != "" {
		max, err := decimal.NewFromString(maxStr)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid max_amount")
			return
		}
		filter.MaxAmount = &max
	}

	filter.Limit, filter.Offset = parsePagination(r)

	obligations, err := h.Service.List(filter)
	if err != nil {
		h.Logger.Error("ListObligations: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"obligations": obligations,
		"limit":       filter.Limit,
		"offset":      filter.Offset,
	})
}

// SweepObligations triggers the due-date sweep on demand. The scheduled run
// goes through the sweep command; this endpoint exists for operators.
func (h *Handler) SweepObligations(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now()
	if asOfStr := r.URL.Query().Get("as_of"); asOfStr != "" {
		parsed, err := time.Parse("2006-01-02", asOfStr)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid as_of date, expected YYYY-MM-DD")
			return
		}
		asOf = parsed
	}

	transitioned, err := h.Service.SweepDueDates(r.Context(), asOf)
	if err != nil {
		h.Logger.Error("SweepObligations: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"as_of":        asOf.Format("2006-01-02"),
		"transitioned": transitioned,
	})
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}
	return limit, offset
}
