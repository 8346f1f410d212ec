package bitacora

import "time"

// Entry rows are append-only: nothing in the codebase updates or deletes
// them after creation.
type Entry struct {
	ID          int64     `gorm:"primaryKey"`
	UserID      int64     `gorm:"column:user_id;not null"`
	Username    string    `gorm:"column:username;not null;index"`
	FullName    string    `gorm:"column:full_name;not null"`
	Role        string    `gorm:"column:role;not null"`
	Module      string    `gorm:"column:module;not null;index"`
	Action      string    `gorm:"column:action;not null;index"`
	Description string    `gorm:"column:description;not null"`
	Timestamp   time.Time `gorm:"column:timestamp;not null;index"`
}

func (Entry) TableName() string {
	return "bitacora_entries"
}
