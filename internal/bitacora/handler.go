package bitacora

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jvaldiviezo/contasys/internal/transport"
	"github.com/jvaldiviezo/contasys/pkg/logger"
)

type ServiceAPI interface {
	Query(q QueryDTO) (Page, error)
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

// QueryEntries serves the audit trail browser. Dates arrive as
// YYYY-MM-DD and are matched by calendar day, not instant.
func (h *Handler) QueryEntries(w http.ResponseWriter, r *http.Request) {
	q := QueryDTO{
		UsernameContains: r.URL.Query().Get("username"),
		Module:           r.URL.Query().Get("module"),
		Action:           r.URL.Query().Get("action"),
		SortBy:           r.URL.Query().Get("sort_by"),
		SortDesc:         r.URL.Query().Get("sort") != "asc",
		Size:             20,
	}

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		p, err := strconv.Atoi(pageStr)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid page")
			return
		}
		q.Page = p
	}
	if sizeStr := r.URL.Query().Get("size"); sizeStr != "" {
		s, err := strconv.Atoi(sizeStr)
		if err != nil {
			h.WriteError(w, http.StatusBadRequest, "invalid size")
			return
		}
		q.Size = s
	}

	for param, dst := range map[string]**time.Time{
		"date_from": &q.DateFrom,
		"date_to":   &q.DateTo,
	} {
		if s := r.URL.Query().Get(param); s != "" {
			t, err := time.Parse("2006-01-02", s)
			if err != nil {
				h.WriteError(w, http.StatusBadRequest, "invalid "+param+", expected YYYY-MM-DD")
				return
			}
			*dst = &t
		}
	}

	page, err := h.Service.Query(q)
	if err != nil {
		h.Logger.Error("QueryEntries: service error", "error", err)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, page)
}
