package nrus

import (
	"log/slog"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/jvaldiviezo/contasys/internal/transport"
	"github.com/jvaldiviezo/contasys/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
}

func NewHandler() *Handler {
	lg := logger.L()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{BaseHandler: transport.NewBaseHandler(lg)}
}

// Classify answers GET /nrus/classify?income_sum=..&expense_sum=..
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	income, err := parseAmount(r, "income_sum")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid income_sum")
		return
	}
	expense, err := parseAmount(r, "expense_sum")
	if err != nil {
		h.WriteError(w, http.StatusBadRequest, "invalid expense_sum")
		return
	}

	classification, err := Classify(income, expense)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, classification)
}

func parseAmount(r *http.Request, param string) (decimal.Decimal, error) {
	s := r.URL.Query().Get(param)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
