package declaration

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"

	"github.com/jvaldiviezo/contasys/internal"
	"github.com/jvaldiviezo/contasys/internal/transport"
	"github.com/jvaldiviezo/contasys/pkg/logger"
)

type ServiceAPI interface {
	Create(ctx context.Context, actor internal.Actor, dto CreateDeclarationDTO) (*Declaration, error)
	GetByID(id int64) (*Declaration, error)
	ListByClient(clientID int64, limit, offset int) ([]*Declaration, error)
	MarkInProgress(ctx context.Context, actor internal.Actor, id int64) (*Declaration, error)
	Declare(ctx context.Context, actor internal.Actor, id int64, dto DeclareDTO) (*Declaration, error)
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

func (h *Handler) CreateDeclaration(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreateDeclarationDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.Service.Create(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Error("CreateDeclaration: service error", "error", err, "client_id", dto.ClientID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("CreateDeclaration: declaration created",
		"declaration_id", d.ID,
		"client_id", d.ClientID,
		"period", d.Period)

	h.WriteJSON(w, http.StatusCreated, d)
}

func (h *Handler) GetDeclaration(w http.ResponseWriter, r *http.Request) {
	id, err := h.declarationID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid declaration ID")
		return
	}

	d, err := h.Service.GetByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) ListDeclarations(w http.ResponseWriter, r *http.Request) {
	clientIDStr := r.URL.Query().Get("client_id")
	clientID, err := strconv.ParseInt(clientIDStr, 10, 64)
	if err != nil || clientID <= 0 {
		h.WriteError(w, http.StatusBadRequest, "client_id is required")
		return
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

	declarations, err := h.Service.ListByClient(clientID, limit, offset)
	if err != nil {
		h.Logger.Error("ListDeclarations: service error", "error", err, "client_id", clientID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"declarations": declarations,
		"limit":        limit,
		"offset":       offset,
	})
}

func (h *Handler) MarkInProgress(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.declarationID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid declaration ID")
		return
	}

	d, err := h.Service.MarkInProgress(r.Context(), actor, id)
	if err != nil {
		h.Logger.Error("MarkInProgress: service error", "error", err, "declaration_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) Declare(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.declarationID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid declaration ID")
		return
	}

	var dto DeclareDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	d, err := h.Service.Declare(r.Context(), actor, id, dto)
	if err != nil {
		h.Logger.Error("Declare: service error", "error", err, "declaration_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("Declare: declaration filed",
		"declaration_id", d.ID,
		"client_id", d.ClientID,
		"obligation_id", d.ObligationID)

	h.WriteJSON(w, http.StatusOK, d)
}

func (h *Handler) declarationID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
