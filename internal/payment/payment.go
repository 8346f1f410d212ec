package payment

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jvaldiviezo/contasys/internal"
	paymentDatamodel "github.com/jvaldiviezo/contasys/internal/core/datamodel/payment"
)

const (
	StatusPendingValidation = "PENDING_VALIDATION"
	StatusValidated         = "VALIDATED"
	StatusRejected          = "REJECTED"
)

const (
	MethodTransferencia = "TRANSFERENCIA"
	MethodDeposito      = "DEPOSITO_BANCARIO"
	MethodYape          = "YAPE"
	MethodPlin          = "PLIN"
	MethodOtro          = "OTRO"
)

func ValidMethod(method string) bool {
	switch method {
	case MethodTransferencia, MethodDeposito, MethodYape, MethodPlin, MethodOtro:
		return true
	}
	return false
}

type Payment struct {
	ID              int64           `json:"id"`
	ObligationID    int64           `json:"obligation_id"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentDate     time.Time       `json:"payment_date"`
	Method          string          `json:"method"`
	VoucherRef      string          `json:"voucher_ref"`
	Status          string          `json:"status"`
	SubmittedByRole string          `json:"submitted_by_role"`
	SubmittedByID   int64           `json:"submitted_by_id"`
	ReviewerID      *int64          `json:"reviewer_id,omitempty"`
	ReviewerComment string          `json:"reviewer_comment,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (p *Payment) IsPending() bool {
	return p.Status == StatusPendingValidation
}

var (
	ErrPaymentNotFound = internal.NewNotFoundError("payment not found", internal.ErrCodePaymentNotFound)
	ErrAlreadyPending  = internal.NewConflictError(
		"a payment is already awaiting validation for this obligation", internal.ErrCodePaymentAlreadyPending)
)

func ToDataModel(p *Payment) *paymentDatamodel.Payment {
	return &paymentDatamodel.Payment{
		ID:              p.ID,
		ObligationID:    p.ObligationID,
		Amount:          p.Amount,
		PaymentDate:     p.PaymentDate,
		Method:          p.Method,
		VoucherRef:      p.VoucherRef,
		Status:          p.Status,
		SubmittedByRole: p.SubmittedByRole,
		SubmittedByID:   p.SubmittedByID,
		ReviewerID:      p.ReviewerID,
		ReviewerComment: p.ReviewerComment,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func FromDataModel(p *paymentDatamodel.Payment) *Payment {
	return &Payment{
		ID:              p.ID,
		ObligationID:    p.ObligationID,
		Amount:          p.Amount,
		PaymentDate:     p.PaymentDate,
		Method:          p.Method,
		VoucherRef:      p.VoucherRef,
		Status:          p.Status,
		SubmittedByRole: p.SubmittedByRole,
		SubmittedByID:   p.SubmittedByID,
		ReviewerID:      p.ReviewerID,
		ReviewerComment: p.ReviewerComment,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
}

func FromDataModelSlice(records []*paymentDatamodel.Payment) []*Payment {
	result := make([]*Payment, len(records))
	for i, record := range records {
		result[i] = FromDataModel(record)
	}
	return result
}
