package client

import (
	"time"

	"github.com/jvaldiviezo/contasys/internal"
	userDatamodel "github.com/jvaldiviezo/contasys/internal/core/datamodel/user"
)

type Client struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	AccountantID int64     `json:"accountant_id"`
	RUC          string    `json:"ruc"`
	BusinessName string    `json:"business_name"`
	Regime       string    `json:"regime"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

var ErrClientNotFound = internal.NewNotFoundError("client not found", "CLIENT_NOT_FOUND")

func ToDataModel(c *Client) *userDatamodel.Client {
	return &userDatamodel.Client{
		ID:           c.ID,
		UserID:       c.UserID,
		AccountantID: c.AccountantID,
		RUC:          c.RUC,
		BusinessName: c.BusinessName,
		Regime:       c.Regime,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func FromDataModel(c *userDatamodel.Client) *Client {
	return &Client{
		ID:           c.ID,
		UserID:       c.UserID,
		AccountantID: c.AccountantID,
		RUC:          c.RUC,
		BusinessName: c.BusinessName,
		Regime:       c.Regime,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}
