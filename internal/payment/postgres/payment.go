package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	obligationDatamodel "github.com/jvaldiviezo/contasys/internal/core/datamodel/obligation"
	paymentDatamodel "github.com/jvaldiviezo/contasys/internal/core/datamodel/payment"
	"github.com/jvaldiviezo/contasys/internal/obligation"
	"github.com/jvaldiviezo/contasys/internal/payment"
)

// PaymentRepository implements the payment.Repository interface using GORM.
type PaymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) payment.Repository {
	return &PaymentRepository{db: db}
}

// Transact runs fn against a repository bound to one transaction. Row locks
// taken inside (GetObligationForUpdate) are held until commit or rollback.
func (r *PaymentRepository) Transact(fn func(tx payment.Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&PaymentRepository{db: tx})
	})
}

func (r *PaymentRepository) Create(p *payment.Payment) error {
	record := payment.ToDataModel(p)
	if err := r.db.Create(record).Error; err != nil {
		return err
	}
	p.ID = record.ID
	return nil
}

func (r *PaymentRepository) GetByID(id int64) (*payment.Payment, error) {
	var record paymentDatamodel.Payment
	err := r.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, payment.ErrPaymentNotFound
		}
		return nil, err
	}
	return payment.FromDataModel(&record), nil
}

func (r *PaymentRepository) GetObligationForUpdate(obligationID int64) (*obligation.Obligation, error) {
	var record obligationDatamodel.Obligation
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", obligationID).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, obligation.ErrObligationNotFound
		}
		return nil, err
	}
	return obligation.FromDataModel(&record), nil
}

func (r *PaymentRepository) HasPendingForObligation(obligationID int64) (bool, error) {
	var count int64
	err := r.db.Model(&paymentDatamodel.Payment{}).
		Where("obligation_id = ? AND status = ?", obligationID, payment.StatusPendingValidation).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *PaymentRepository) UpdateStatus(id int64, status string, reviewerID *int64, comment string) error {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if reviewerID != nil {
		updates["reviewer_id"] = *reviewerID
	}
	if comment != "" {
		updates["reviewer_comment"] = comment
	}
	return r.db.Model(&paymentDatamodel.Payment{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *PaymentRepository) UpdateObligationStatus(obligationID int64, status string) error {
	return r.db.Model(&obligationDatamodel.Obligation{}).
		Where("id = ?", obligationID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *PaymentRepository) List(filter payment.ListFilter) ([]*payment.Payment, error) {
	tx := r.db.Model(&paymentDatamodel.Payment{})

	if filter.ObligationID > 0 {
		tx = tx.Where("obligation_id = ?", filter.ObligationID)
	}
	if filter.Status != "" {
		tx = tx.Where("status = ?", filter.Status)
	}
	if filter.Period != "" {
		tx = tx.Where("obligation_id IN (?)",
			r.db.Model(&obligationDatamodel.Obligation{}).Select("id").Where("period = ?", filter.Period))
	}
	if filter.MinAmount != nil {
		tx = tx.Where("amount >= ?", filter.MinAmount)
	}
	if filter.MaxAmount != nil {
		tx = tx.Where("amount <= ?", filter.MaxAmount)
	}

	order := "payment_date ASC, id ASC"
	if filter.SortDesc {
		order = "payment_date DESC, id ASC"
	}

	var records []*paymentDatamodel.Payment
	err := tx.Order(order).
		Limit(filter.Limit).
		Offset(filter.Offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return payment.FromDataModelSlice(records), nil
}
