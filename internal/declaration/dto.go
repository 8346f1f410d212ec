package declaration

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jvaldiviezo/contasys/internal"
)

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

type CreateDeclarationDTO struct {
	ClientID int64     `json:"client_id"`
	Tipo     string    `json:"tipo"`
	Period   string    `json:"period"`
	DueDate  time.Time `json:"due_date"`
}

func (dto CreateDeclarationDTO) Validate() error {
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
	return nil
}

// DeclareDTO presents a declaration. A positive amount spawns the linked
// obligation; zero means nothing is owed for the period.
type DeclareDTO struct {
	Amount         decimal.Decimal `json:"amount"`
	ObligationTipo string          `json:"obligation_tipo,omitempty"`
	DueDate        time.Time       `json:"obligation_due_date,omitempty"`
}

func (dto DeclareDTO) Validate() error {
	if dto.Amount.IsNegative() {
		return internal.NewValidationError("amount must not be negative", internal.ErrCodeInvalidAmount)
	}
	if dto.Amount.IsPositive() && dto.DueDate.IsZero() {
		return internal.NewValidationError("obligation_due_date is required when amount is positive", internal.ErrCodeInvalidDate)
	}
	return nil
}
