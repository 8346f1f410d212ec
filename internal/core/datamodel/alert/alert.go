package alert

import "time"

type Alert struct {
	ID           int64      `gorm:"primaryKey"`
	AccountantID int64      `gorm:"column:accountant_id;not null;index"`
	Description  string     `gorm:"column:description;not null"`
	Tipo         string     `gorm:"column:tipo;not null;uniqueIndex:idx_alerts_event_tipo"`
	Status       string     `gorm:"column:status;not null;default:ACTIVE;index"`
	EventID      string     `gorm:"column:event_id;not null;uniqueIndex:idx_alerts_event_tipo"`
	ExpiresAt    *time.Time `gorm:"column:expires_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (Alert) TableName() string {
	return "alerts"
}
