package obligation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jvaldiviezo/contasys/internal"
	obligationDatamodel "github.com/jvaldiviezo/contasys/internal/core/datamodel/obligation"
)

// Obligation statuses. Transitions happen only through the payment workflow
// or the due-date sweep; handlers never write a status directly.
const (
	StatusPendiente        = "PENDIENTE"
	StatusVencida          = "VENCIDA"
	StatusPorValidar       = "POR_VALIDAR"
	StatusPagada           = "PAGADA"
	StatusPagadaConRetraso = "PAGADA_CON_RETRASO"
	StatusNoDisponible     = "NO_DISPONIBLE"
)

func ValidStatus(status string) bool {
	switch status {
	case StatusPendiente, StatusVencida, StatusPorValidar,
		StatusPagada, StatusPagadaConRetraso, StatusNoDisponible:
		return true
	}
	return false
}

type Obligation struct {
	ID           int64           `json:"id"`
	ClientID     int64           `json:"client_id"`
	AccountantID int64           `json:"accountant_id"`
	Tipo         string          `json:"tipo"`
	Period       string          `json:"period"`
	DueDate      time.Time       `json:"due_date"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	Observation  string          `json:"observation,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// IsPayable reports whether a payment may be submitted against the
// obligation in its current status.
func (o *Obligation) IsPayable() bool {
	return o.Status == StatusPendiente || o.Status == StatusVencida
}

func (o *Obligation) IsResolved() bool {
	return o.Status == StatusPagada || o.Status == StatusPagadaConRetraso
}

// StatusForDueDate recomputes the owed status from the due date. Used when a
// payment is rejected and by the sweep: a rejected payment never discharges
// the obligation.
func StatusForDueDate(dueDate, now time.Time) string {
	if dueDate.Before(now) {
		return StatusVencida
	}
	return StatusPendiente
}

var (
	ErrObligationNotFound = internal.NewNotFoundError("obligation not found", internal.ErrCodeObligationNotFound)
)

func ToDataModel(o *Obligation) *obligationDatamodel.Obligation {
	return &obligationDatamodel.Obligation{
		ID:           o.ID,
		ClientID:     o.ClientID,
		AccountantID: o.AccountantID,
		Tipo:         o.Tipo,
		Period:       o.Period,
		DueDate:      o.DueDate,
		Amount:       o.Amount,
		Status:       o.Status,
		Observation:  o.Observation,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func FromDataModel(o *obligationDatamodel.Obligation) *Obligation {
	return &Obligation{
		ID:           o.ID,
		ClientID:     o.ClientID,
		AccountantID: o.AccountantID,
		Tipo:         o.Tipo,
		Period:       o.Period,
		DueDate:      o.DueDate,
		Amount:       o.Amount,
		Status:       o.Status,
		Observation:  o.Observation,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func FromDataModelSlice(records []*obligationDatamodel.Obligation) []*Obligation {
	result := make([]*Obligation, len(records))
	for i, record := range records {
		result[i] = FromDataModel(record)
	}
	return result
}
