package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	declarationDatamodel "github.com/jvaldiviezo/contasys/internal/core/datamodel/declaration"
	"github.com/jvaldiviezo/contasys/internal/declaration"
)

// DeclarationRepository implements the declaration.Repository interface using GORM.
type DeclarationRepository struct {
	db *gorm.DB
}

func NewDeclarationRepository(db *gorm.DB) declaration.Repository {
	return &DeclarationRepository{db: db}
}

func (r *DeclarationRepository) Create(d *declaration.Declaration) error {
	record := declaration.ToDataModel(d)
	if err := r.db.Create(record).Error; err != nil {
		return err
	}
	d.ID = record.ID
	return nil
}

func (r *DeclarationRepository) GetByID(id int64) (*declaration.Declaration, error) {
	var record declarationDatamodel.Declaration
	err := r.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, declaration.ErrDeclarationNotFound
		}
		return nil, err
	}
	return declaration.FromDataModel(&record), nil
}

func (r *DeclarationRepository) ListByClient(clientID int64, limit, offset int) ([]*declaration.Declaration, error) {
	var records []*declarationDatamodel.Declaration
	err := r.db.Where("client_id = ?", clientID).
		Order("due_date DESC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return declaration.FromDataModelSlice(records), nil
}

func (r *DeclarationRepository) ListUnfiledDueBefore(asOf time.Time) ([]*declaration.Declaration, error) {
	var records []*declarationDatamodel.Declaration
	err := r.db.Where("status IN ? AND due_date < ?",
		[]string{declaration.StatusPendiente, declaration.StatusEnProceso}, asOf).
		Order("due_date ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return declaration.FromDataModelSlice(records), nil
}

func (r *DeclarationRepository) ListUnfiledDueBetween(from, to time.Time) ([]*declaration.Declaration, error) {
	var records []*declarationDatamodel.Declaration
	err := r.db.Where("status IN ? AND due_date >= ? AND due_date < ?",
		[]string{declaration.StatusPendiente, declaration.StatusEnProceso}, from, to).
		Order("due_date ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	return declaration.FromDataModelSlice(records), nil
}

func (r *DeclarationRepository) UpdateStatus(id int64, status string) error {
	return r.db.Model(&declarationDatamodel.Declaration{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *DeclarationRepository) MarkDeclared(d *declaration.Declaration) error {
	return r.db.Model(&declarationDatamodel.Declaration{}).
		Where("id = ?", d.ID).
		Updates(map[string]interface{}{
			"status":          d.Status,
			"declared_amount": d.DeclaredAmount,
			"obligation_id":   d.ObligationID,
			"declared_at":     d.DeclaredAt,
			"updated_at":      time.Now(),
		}).Error
}
