package postgres

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jvaldiviezo/contasys/internal/bitacora"
	bitacoraDatamodel "github.com/jvaldiviezo/contasys/internal/core/datamodel/bitacora"
)

// BitacoraRepository implements the bitacora.Repository interface using GORM.
type BitacoraRepository struct {
	db *gorm.DB
}

func NewBitacoraRepository(db *gorm.DB) bitacora.Repository {
	return &BitacoraRepository{db: db}
}

func (r *BitacoraRepository) Append(e *bitacora.Entry) error {
	record := bitacora.ToDataModel(e)
	if err := r.db.Create(record).Error; err != nil {
		return err
	}
	e.ID = record.ID
	return nil
}

var sortColumns = map[string]string{
	bitacora.SortByTimestamp: "timestamp",
	bitacora.SortByUsername:  "username",
	bitacora.SortByModule:    "module",
	bitacora.SortByAction:    "action",
}

func (r *BitacoraRepository) Query(q bitacora.QueryDTO) ([]*bitacora.Entry, int64, error) {
	tx := r.db.Model(&bitacoraDatamodel.Entry{})

	if q.UsernameContains != "" {
		pattern := "%" + strings.ToLower(q.UsernameContains) + "%"
		tx = tx.Where("LOWER(username) LIKE ?", pattern)
	}
	if q.Module != "" {
		tx = tx.Where("module = ?", q.Module)
	}
	if q.Action != "" {
		tx = tx.Where("action = ?", q.Action)
	}
	// date bounds are inclusive on the entry's calendar date
	if q.DateFrom != nil {
		tx = tx.Where("timestamp >= ?", startOfDay(*q.DateFrom))
	}
	if q.DateTo != nil {
		tx = tx.Where("timestamp < ?", startOfDay(*q.DateTo).AddDate(0, 0, 1))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "timestamp"
	}
	direction := "ASC"
	if q.SortDesc {
		direction = "DESC"
	}

	var records []*bitacoraDatamodel.Entry
	err := tx.Order(fmt.Sprintf("%s %s, id ASC", column, direction)).
		Limit(q.Size).
		Offset(q.Page * q.Size).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return bitacora.FromDataModelSlice(records), total, nil
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}
