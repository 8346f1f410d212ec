package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/jvaldiviezo/contasys/internal/client"
	userDatamodel "github.com/jvaldiviezo/contasys/internal/core/datamodel/user"
)

// ClientRepository implements the client.Repository interface using GORM.
type ClientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) client.Repository {
	return &ClientRepository{db: db}
}

func (r *ClientRepository) Create(c *client.Client) error {
	record := client.ToDataModel(c)
	if err := r.db.Create(record).Error; err != nil {
		return err
	}
	c.ID = record.ID
	return nil
}

func (r *ClientRepository) GetByID(id int64) (*client.Client, error) {
	var record userDatamodel.Client
	err := r.db.Where("id = ?", id).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, client.ErrClientNotFound
		}
		return nil, err
	}
	return client.FromDataModel(&record), nil
}

func (r *ClientRepository) ListByAccountant(accountantID int64, limit, offset int) ([]*client.Client, error) {
	var records []*userDatamodel.Client
	err := r.db.Where("accountant_id = ?", accountantID).
		Order("business_name ASC, id ASC").
		Limit(limit).
		Offset(offset).
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	result := make([]*client.Client, len(records))
	for i, record := range records {
		result[i] = client.FromDataModel(record)
	}
	return result, nil
}

func (r *ClientRepository) UpdateAccountant(id int64, accountantID int64) error {
	return r.db.Model(&userDatamodel.Client{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"accountant_id": accountantID,
			"updated_at":    time.Now(),
		}).Error
}
