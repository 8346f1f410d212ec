package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

type Payment struct {
	ID              int64           `gorm:"primaryKey"`
	ObligationID    int64           `gorm:"column:obligation_id;not null;index"`
	Amount          decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	PaymentDate     time.Time       `gorm:"column:payment_date;type:date;not null"`
	Method          string          `gorm:"column:method;not null"`
	VoucherRef      string          `gorm:"column:voucher_ref;not null"`
	Status          string          `gorm:"column:status;not null;default:PENDING_VALIDATION;index"`
	SubmittedByRole string          `gorm:"column:submitted_by_role;not null"`
	SubmittedByID   int64           `gorm:"column:submitted_by_id;not null"`
	ReviewerID      *int64          `gorm:"column:reviewer_id"`
	ReviewerComment string          `gorm:"column:reviewer_comment"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Payment) TableName() string {
	return "payments"
}
