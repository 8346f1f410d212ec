package obligation

import (
	"time"

	"github.com/shopspring/decimal"
)

type Obligation struct {
	ID           int64           `gorm:"primaryKey"`
	ClientID     int64           `gorm:"column:client_id;not null;index"`
	AccountantID int64           `gorm:"column:accountant_id;not null;index"`
	Tipo         string          `gorm:"column:tipo;not null"`
	Period       string          `gorm:"column:period;not null"`
	DueDate      time.Time       `gorm:"column:due_date;not null"`
	Amount       decimal.Decimal `gorm:"column:amount;type:numeric(14,2);not null"`
	Status       string          `gorm:"column:status;not null;default:PENDIENTE;index"`
	Observation  string          `gorm:"column:observation"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Obligation) TableName() string {
	return "obligations"
}
