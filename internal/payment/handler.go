package payment

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"

	"github.com/jvaldiviezo/contasys/internal"
	"github.com/jvaldiviezo/contasys/internal/transport"
	"github.com/jvaldiviezo/contasys/pkg/logger"
)

type ServiceAPI interface {
	Submit(ctx context.Context, actor internal.Actor, dto SubmitPaymentDTO) (*Payment, error)
	Validate(ctx context.Context, actor internal.Actor, paymentID int64, dto ValidatePaymentDTO) (*Payment, error)
	Reject(ctx context.Context, actor internal.Actor, paymentID int64, dto RejectPaymentDTO) (*Payment, error)
	GetByID(id int64) (*Payment, error)
	List(filter ListFilter) ([]*Payment, error)
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

func (h *Handler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.Logger.Error("SubmitPayment: actor not found in context")
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto SubmitPaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("SubmitPayment: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.Submit(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Error("SubmitPayment: service error", "error", err, "obligation_id", dto.ObligationID)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("SubmitPayment: payment submitted",
		"payment_id", p.ID,
		"obligation_id", p.ObligationID,
		"amount", p.Amount,
		"status", p.Status)

	h.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) ValidatePayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.paymentID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid payment ID")
		return
	}

	var dto ValidatePaymentDTO
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	p, err := h.Service.Validate(r.Context(), actor, id, dto)
	if err != nil {
		h.Logger.Error("ValidatePayment: service error", "error", err, "payment_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("ValidatePayment: payment validated",
		"payment_id", p.ID,
		"obligation_id", p.ObligationID,
		"reviewer_id", actor.ID)

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) RejectPayment(w http.ResponseWriter, r *http.Request) {
	actor, ok := internal.ActorFromContext(r.Context())
	if !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id, err := h.paymentID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid payment ID")
		return
	}

	var dto RejectPaymentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	p, err := h.Service.Reject(r.Context(), actor, id, dto)
	if err != nil {
		h.Logger.Error("RejectPayment: service error", "error", err, "payment_id", id)
		h.HandleServiceError(w, err)
		return
	}

	h.Logger.Info("RejectPayment: payment rejected",
		"payment_id", p.ID,
		"obligation_id", p.ObligationID,
		"reviewer_id", actor.ID)

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) GetPayment(w http.ResponseWriter, r *http.Request) {
	id, err := h.paymentID(r)
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid payment ID")
		return
	}

	p, err := h.Service.GetByID(id)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) ListPayments(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Period:   r.URL.Query().Get("period"),
		Status:   r.URL.Query().Get("status"),
		SortDesc: r.URL.Query().Get("sort") == "desc",
	}

	if oblStr := r.URL.Query().Get("obligation_id"); oblStr != "" {
		if id, err := strconv.ParseInt(oblStr, 10, 64); err == nil {
			filter.ObligationID = id
		}
	}

	for param, dst := range map[string]**decimal.Decimal{
		"min_amount": &filter.MinAmount,
		"max_amount": &filter.MaxAmount,
	} {
		if s := r.URL.Query().Get(param); s != "" {
			d, err := decimal.NewFromString(s)
			if err != nil {
				h.WriteError(w, http.StatusBadRequest, "invalid "+param)
				return
			}
			*dst = &d
		}
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
	filter.Limit = limit
	filter.Offset = offset

	payments, err := h.Service.List(filter)
	if err != nil {
		h.Logger.Error("ListPayments: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"payments": payments,
		"limit":    limit,
		"offset":   offset,
	})
}

func (h *Handler) paymentID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
