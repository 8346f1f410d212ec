package alert

import (
	"time"

	"github.com/jvaldiviezo/contasys/internal"
	alertDatamodel "github.com/jvaldiviezo/contasys/internal/core/datamodel/alert"
)

// Alert statuses advance ACTIVE → SEEN → RESOLVED and never move backward.
const (
	StatusActive   = "ACTIVE"
	StatusSeen     = "SEEN"
	StatusResolved = "RESOLVED"
)

const (
	TipoDeclaracionEnProceso  = "DECLARACION_EN_PROCESO"
	TipoDeclaracionPorVencer  = "DECLARACION_POR_VENCER"
	TipoObligacionPorVencer   = "OBLIGACION_POR_VENCER"
	TipoDeclaracionVencida    = "DECLARACION_VENCIDA"
	TipoObligacionVencida     = "OBLIGACION_VENCIDA"
	TipoNuevaObligacion       = "NUEVA_OBLIGACION"
	TipoDeclaracionCompletada = "DECLARACION_COMPLETADA"
	TipoObligacionResuelta    = "OBLIGACION_RESUELTA"
	TipoPagoPorValidar        = "PAGO_POR_VALIDAR"
	TipoPagoRechazado         = "PAGO_RECHAZADO"
	TipoPagoAceptado          = "PAGO_ACEPTADO"
)

type Alert struct {
	ID           int64      `json:"id"`
	AccountantID int64      `json:"accountant_id"`
	Description  string     `json:"description"`
	Tipo         string     `json:"tipo"`
	Status       string     `json:"status"`
	EventID      string     `json:"-"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Expired alerts drop out of active counts but are never deleted.
func (a *Alert) Expired(now time.Time) bool {
	return a.ExpiresAt != nil && a.ExpiresAt.Before(now)
}

var (
	ErrAlertNotFound = internal.NewNotFoundError("alert not found", internal.ErrCodeAlertNotFound)
)

// Metrics is the per-accountant dashboard summary over non-expired alerts.
type Metrics struct {
	Active   int64            `json:"active"`
	Seen     int64            `json:"seen"`
	Resolved int64            `json:"resolved"`
	ByTipo   map[string]int64 `json:"by_tipo"`
}

func ToDataModel(a *Alert) *alertDatamodel.Alert {
	return &alertDatamodel.Alert{
		ID:           a.ID,
		AccountantID: a.AccountantID,
		Description:  a.Description,
		Tipo:         a.Tipo,
		Status:       a.Status,
		EventID:      a.EventID,
		ExpiresAt:    a.ExpiresAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func FromDataModel(a *alertDatamodel.Alert) *Alert {
	return &Alert{
		ID:           a.ID,
		AccountantID: a.AccountantID,
		Description:  a.Description,
		Tipo:         a.Tipo,
		Status:       a.Status,
		EventID:      a.EventID,
		ExpiresAt:    a.ExpiresAt,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
	}
}

func FromDataModelSlice(records []*alertDatamodel.Alert) []*Alert {
	result := make([]*Alert, len(records))
	for i, record := range records {
		result[i] = FromDataModel(record)
	}
	return result
}
