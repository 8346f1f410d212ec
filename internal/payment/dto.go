package payment

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jvaldiviezo/contasys/internal"
)

// SubmitPaymentDTO carries one proof-of-payment submission. VoucherRef is
// the opaque locator the file-storage collaborator returned; the upload
// itself happens before this call, never inside it.
type SubmitPaymentDTO struct {
	ObligationID int64           `json:"obligation_id"`
	Amount       decimal.Decimal `json:"amount"`
	PaymentDate  time.Time       `json:"payment_date"`
	Method       string          `json:"method"`
	VoucherRef   string          `json:"voucher_ref"`
}

func (dto SubmitPaymentDTO) Validate() error {
	if dto.ObligationID <= 0 {
		return internal.NewValidationError("obligation_id is required", internal.ErrCodeValidationFailed)
	}
	if !dto.Amount.IsPositive() {
		return internal.NewValidationError("amount must be greater than 0", internal.ErrCodeInvalidAmount)
	}
	if dto.PaymentDate.IsZero() {
		return internal.NewValidationError("payment_date is required", internal.ErrCodeInvalidDate)
	}
	if !ValidMethod(dto.Method) {
		return internal.NewValidationError("unknown payment method: "+dto.Method, internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(dto.VoucherRef) == "" {
		return internal.NewValidationError("voucher_ref is required", internal.ErrCodeMissingVoucher)
	}
	return nil
}

// RejectPaymentDTO is the reviewer's rejection. A reason is mandatory;
// validation accepts an optional comment instead.
type RejectPaymentDTO struct {
	Reason string `json:"reason"`
}

func (dto RejectPaymentDTO) Validate() error {
	if strings.TrimSpace(dto.Reason) == "" {
		return internal.NewValidationError("reason is required when rejecting a payment", internal.ErrCodeMissingReason)
	}
	return nil
}

type ValidatePaymentDTO struct {
	Comment string `json:"comment,omitempty"`
}

// ListFilter narrows and orders payment listings.
type ListFilter struct {
	ObligationID int64
	Period       string
	MinAmount    *decimal.Decimal
	MaxAmount    *decimal.Decimal
	Status       string
	SortDesc     bool
	Limit        int
	Offset       int
}

func (f ListFilter) Validate() error {
	if f.Status != "" {
		switch f.Status {
		case StatusPendingValidation, StatusValidated, StatusRejected:
		default:
			return internal.NewValidationError("unknown payment status: "+f.Status, internal.ErrCodeValidationFailed)
		}
	}
	if f.MinAmount != nil && f.MinAmount.IsNegative() {
		return internal.NewValidationError("min_amount must not be negative", internal.ErrCodeInvalidAmount)
	}
	if f.MaxAmount != nil && f.MaxAmount.IsNegative() {
		return internal.NewValidationError("max_amount must not be negative", internal.ErrCodeInvalidAmount)
	}
	return nil
}
