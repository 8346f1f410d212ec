package obligation

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jvaldiviezo/contasys/internal"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// CreateObligationDTO is the request payload for creating an obligation.
// AmountPending registers the obligation before its amount is calculated;
// such obligations land on NO_DISPONIBLE and accept no payments.
type CreateObligationDTO struct {
	ClientID      int64           `json:"client_id"`
	Tipo          string          `json:"tipo"`
	Period        string          `json:"period"`
	DueDate       time.Time       `json:"due_date"`
	Amount        decimal.Decimal `json:"amount"`
	AmountPending bool            `json:"amount_pending,omitempty"`
	Observation   string          `json:"observation,omitempty"`
}

func (dto CreateObligationDTO) Validate() error {
	if dto.ClientID <= 0 {
		return internal.NewValidationError("client_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.Tipo == "" {
		return internal.NewValidationError("tipo is required", internal.ErrCodeValidationFailed)
	}
	if !periodPattern.MatchString(dto.Period) {
		return internal.NewValidationError("period must be in YYYY-MM format", internal.ErrCodeInvalidPeriod)
	}
	if dto.DueDate.IsZero() {
		return internal.NewValidationError("due_date is required", internal.ErrCodeInvalidDate)
	}
	if dto.AmountPending {
		if !dto.Amount.IsZero() {
			return internal.NewValidationError("amount must be omitted when amount_pending is set", internal.ErrCodeInvalidAmount)
		}
		return nil
	}
	if !dto.Amount.IsPositive() {
		return internal.NewValidationError("amount must be greater than 0", internal.ErrCodeInvalidAmount)
	}
	return nil
}

// ListFilter narrows and orders obligation listings. Equal due dates are
// tie-broken by id so pages stay stable.
type ListFilter struct {
	ClientID     int64
	AccountantID int64
	Period       string
	MaxAmount    *decimal.Decimal
	SortDesc     bool
	Limit        int
	Offset       int
}

func (f ListFilter) Validate() error {
	if f.Period != "" && !periodPattern.MatchString(f.Period) {
		return internal.NewValidationError("period must be in YYYY-MM format", internal.ErrCodeInvalidPeriod)
	}
	if f.MaxAmount != nil && f.MaxAmount.IsNegative() {
		return internal.NewValidationError("max_amount must not be negative", internal.ErrCodeInvalidAmount)
	}
	return nil
}
