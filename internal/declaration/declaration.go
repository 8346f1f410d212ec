package declaration

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jvaldiviezo/contasys/internal"
	declarationDatamodel "github.com/jvaldiviezo/contasys/internal/core/datamodel/declaration"
)

const (
	StatusPendiente = "PENDIENTE"
	StatusEnProceso = "EN_PROCESO"
	StatusDeclarada = "DECLARADA"
	StatusVencida   = "VENCIDA"
)

type Declaration struct {
	ID             int64            `json:"id"`
	ClientID       int64            `json:"client_id"`
	AccountantID   int64            `json:"accountant_id"`
	Tipo           string           `json:"tipo"`
	Period         string           `json:"period"`
	DueDate        time.Time        `json:"due_date"`
	Status         string           `json:"status"`
	DeclaredAmount *decimal.Decimal `json:"declared_amount,omitempty"`
	ObligationID   *int64           `json:"obligation_id,omitempty"`
	DeclaredAt     *time.Time       `json:"declared_at,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

func (d *Declaration) IsFiled() bool {
	return d.Status == StatusDeclarada
}

// CanBeDeclared allows late filing: an overdue declaration can still be
// presented.
func (d *Declaration) CanBeDeclared() bool {
	return d.Status == StatusPendiente || d.Status == StatusEnProceso || d.Status == StatusVencida
}

var (
	ErrDeclarationNotFound = internal.NewNotFoundError("declaration not found", internal.ErrCodeDeclarationNotFound)
)

func ToDataModel(d *Declaration) *declarationDatamodel.Declaration {
	return &declarationDatamodel.Declaration{
		ID:             d.ID,
		ClientID:       d.ClientID,
		AccountantID:   d.AccountantID,
		Tipo:           d.Tipo,
		Period:         d.Period,
		DueDate:        d.DueDate,
		Status:         d.Status,
		DeclaredAmount: d.DeclaredAmount,
		ObligationID:   d.ObligationID,
		DeclaredAt:     d.DeclaredAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func FromDataModel(d *declarationDatamodel.Declaration) *Declaration {
	return &Declaration{
		ID:             d.ID,
		ClientID:       d.ClientID,
		AccountantID:   d.AccountantID,
		Tipo:           d.Tipo,
		Period:         d.Period,
		DueDate:        d.DueDate,
		Status:         d.Status,
		DeclaredAmount: d.DeclaredAmount,
		ObligationID:   d.ObligationID,
		DeclaredAt:     d.DeclaredAt,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	}
}

func FromDataModelSlice(records []*declarationDatamodel.Declaration) []*Declaration {
	result := make([]*Declaration, len(records))
	for i, record := range records {
		result[i] = FromDataModel(record)
	}
	return result
}
