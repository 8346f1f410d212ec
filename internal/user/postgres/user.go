package user

import (
	"errors"

	"gorm.io/gorm"

	"github.com/jvaldiviezo/contasys/internal"
	userDomain "github.com/jvaldiviezo/contasys/internal/user"

	userDatamodel "github.com/jvaldiviezo/contasys/internal/core/datamodel/user"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) GetProfile(userID int64) (*userDomain.Profile, error) {
	var u userDatamodel.User
	if err := r.db.First(&u, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.NewNotFoundError("user not found", "USER_NOT_FOUND")
		}
		return nil, err
	}

	p := &userDomain.Profile{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}

	if u.Role == internal.RoleCliente {
		var c userDatamodel.Client
		if err := r.db.Where("user_id = ?", u.ID).First(&c).Error; err == nil {
			p.Client = &userDomain.ClientInfo{
				ID:           c.ID,
				RUC:          c.RUC,
				BusinessName: c.BusinessName,
				Regime:       c.Regime,
				AccountantID: c.AccountantID,
			}
		}
	}

	return p, nil
}
