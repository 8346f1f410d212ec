package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jvaldiviezo/contasys/internal/alert"
	alertDatamodel "github.com/jvaldiviezo/contasys/internal/core/datamodel/alert"
)

// AlertRepository implements the alert.Repository interface using GORM.
type AlertRepository struct {
	db *gorm.DB
}

func NewAlertRepository(db *gorm.DB) alert.Repository {
	return &AlertRepository{db: db}
}

func (r *AlertRepository) Create(a *alert.Alert) error {
	record := alert.ToDataModel(a)
	if err := r.db.Create(record).Error; err != nil {
		return err
	}
	a.ID = record.ID
	return nil
}

func (r *AlertRepository) GetByID(id int64) (*alert.Alert, error) {
	var record alertDatamodel.Alert
	err := r.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, alert.ErrAlertNotFound
		}
		return nil, err
	}
	return alert.FromDataModel(&record), nil
}

func (r *AlertRepository) ExistsForEvent(eventID, tipo string) (bool, error) {
	var count int64
	err := r.db.Model(&alertDatamodel.Alert{}).
		Where("event_id = ? AND tipo = ?", eventID, tipo).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *AlertRepository) UpdateStatus(id int64, status string) error {
	return r.db.Model(&alertDatamodel.Alert{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *AlertRepository) ListByStatus(accountantID int64, status string, now time.Time, limit, offset int) ([]*alert.Alert, error) {
	var records []*alertDatamodel.Alert
	err := r.db.Where("accountant_id = ? AND status = ?", accountantID, status).
		Where("expires_at IS NULL OR expires_at >= ?", now).
		Order("created_at DESC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return alert.FromDataModelSlice(records), nil
}

type statusCount struct {
	Status string
	Total  int64
}

func (r *AlertRepository) CountByStatus(accountantID int64, now time.Time) (map[string]int64, error) {
	var rows []statusCount
	err := r.db.Model(&alertDatamodel.Alert{}).
		Select("status, COUNT(*) AS total").
		Where("accountant_id = ?", accountantID).
		Where("expires_at IS NULL OR expires_at >= ?", now).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Status] = row.Total
	}
	return result, nil
}

type tipoCount struct {
	Tipo  string
	Total int64
}

func (r *AlertRepository) CountByTipo(accountantID int64, now time.Time) (map[string]int64, error) {
	var rows []tipoCount
	err := r.db.Model(&alertDatamodel.Alert{}).
		Select("tipo, COUNT(*) AS total").
		Where("accountant_id = ?", accountantID).
		Where("expires_at IS NULL OR expires_at >= ?", now).
		Group("tipo").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[string]int64, len(rows))
	for _, row := range rows {
		result[row.Tipo] = row.Total
	}
	return result, nil
}
