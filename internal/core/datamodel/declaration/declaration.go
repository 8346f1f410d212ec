package declaration

import (
	"time"

	"github.com/shopspring/decimal"
)

type Declaration struct {
	ID           int64            `gorm:"primaryKey"`
	ClientID     int64            `gorm:"column:client_id;not null;index"`
	AccountantID int64            `gorm:"column:accountant_id;not null;index"`
	Tipo         string           `gorm:"column:tipo;not null"`
	Period       string           `gorm:"column:period;not null"`
	DueDate      time.Time        `gorm:"column:due_date;not null"`
	Status       string           `gorm:"column:status;not null;default:PENDIENTE;index"`
	DeclaredAmount *decimal.Decimal `gorm:"column:declared_amount;type:numeric(14,2)"`
	ObligationID *int64           `gorm:"column:obligation_id"`
	DeclaredAt   *time.Time       `gorm:"column:declared_at"`
	CreatedAt    time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}

func (Declaration) TableName() string {
	return "declarations"
}
