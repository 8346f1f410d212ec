package alert

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/jvaldiviezo/contasys/internal"
	"github.com/jvaldiviezo/contasys/internal/transport"
	"github.com/jvaldiviezo/contasys/pkg/logger"
)

type ServiceAPI interface {
	MarkSeen(ctx context.Context, actor internal.Actor, alertID int64) (*Alert, error)
	Resolve(ctx context.Context, actor internal.Actor, alertID int64) (*Alert, error)
	ListByStatus(accountantID int64, status string, limit, offset int) ([]*Alert, error)
	ListMetrics(accountantID int64) (*Metrics, error)
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

func (h *Handler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		status = StatusActive
	}

	limit := 20
	offset := 0
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

	alerts, err := h.Service.ListByStatus(actor.ID, status, limit, offset)
	if err != nil {
		h.Logger.Error("ListAlerts: service error", "error", err, "accountant_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"alerts": alerts,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	metrics, err := h.Service.ListMetrics(actor.ID)
	if err != nil {
		h.Logger.Error("GetMetrics: service error", "error", err, "accountant_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, metrics)
}

func (h *Handler) MarkSeen(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.MarkSeen)
}

func (h *Handler) ResolveAlert(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.Service.Resolve)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, fn func(context.Context, internal.Actor, int64) (*Alert, error)) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	idStr := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid alert ID")
		return
	}

	a, err := fn(r.Context(), actor, id)
	if err != nil {
		h.Logger.Error("alert transition failed", "error", err, "alert_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, a)
}
