package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	obligationDatamodel "github.com/jvaldiviezo/contasys/internal/core/datamodel/obligation"
	"github.com/jvaldiviezo/contasys/internal/obligation"
)

// ObligationRepository implements the obligation.Repository interface using GORM.
type ObligationRepository struct {
	db *gorm.DB
}

func NewObligationRepository(db *gorm.DB) obligation.Repository {
	return &ObligationRepository{db: db}
}

func (r *ObligationRepository) Create(o *obligation.Obligation) error {
	record := obligation.ToDataModel(o)
	if err := r.db.Create(record).Error; err != nil {
		return err
	}
	o.ID = record.ID
	return nil
}

func (r *ObligationRepository) GetByID(id int64) (*obligation.Obligation, error) {
	var record obligationDatamodel.Obligation
	err := r.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, obligation.ErrObligationNotFound
		}
		return nil, err
	}
	return obligation.FromDataModel(&record), nil
}

func (r *ObligationRepository) List(filter obligation.ListFilter) ([]*obligation.Obligation, error) {
	tx := r.db.Model(&obligationDatamodel.Obligation{})

	if filter.ClientID > 0 {
		tx = tx.Where("client_id = ?", filter.ClientID)
	}
	if filter.AccountantID > 0 {
		tx = tx.Where("accountant_id = ?", filter.AccountantID)
	}
	if filter.Period != "" {
		tx = tx.Where("period = ?", filter.Period)
	}
	if filter.MaxAmount != nil {
		tx = tx.Where("amount <= ?", filter.MaxAmount)
	}

	order := "due_date ASC, id ASC"
	if filter.SortDesc {
		order = "due_date DESC, id ASC"
	}

	var records []*obligationDatamodel.Obligation
	err := tx.Order(order).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return obligation.FromDataModelSlice(records), nil
}

func (r *ObligationRepository) ListPendingDueBefore(asOf time.Time) ([]*obligation.Obligation, error) {
	var records []*obligationDatamodel.Obligation
	err := r.db.Where("status = ? AND due_date < ?", obligation.StatusPendiente, asOf).
		Order("due_date ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return obligation.FromDataModelSlice(records), nil
}

func (r *ObligationRepository) ListPendingDueBetween(from, to time.Time) ([]*obligation.Obligation, error) {
	var records []*obligationDatamodel.Obligation
	err := r.db.Where("status = ? AND due_date >= ? AND due_date < ?", obligation.StatusPendiente, from, to).
		Order("due_date ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return obligation.FromDataModelSlice(records), nil
}

func (r *ObligationRepository) UpdateStatus(id int64, status string) error {
	return r.db.Model(&obligationDatamodel.Obligation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}
