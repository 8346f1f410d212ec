package client

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/jvaldiviezo/contasys/internal"
	"github.com/jvaldiviezo/contasys/internal/bitacora"
)

var rucPattern = regexp.MustCompile(`^\d{11}$`)

// Repository defines the data access methods for clients.
type Repository interface {
	Create(c *Client) error
	GetByID(id int64) (*Client, error)
	ListByAccountant(accountantID int64, limit, offset int) ([]*Client, error)
	UpdateAccountant(id int64, accountantID int64) error
}

type AuditRecorder interface {
	Record(ctx context.Context, actor internal.Actor, module, action, description string)
}

type Service struct {
	repo   Repository
	audit  AuditRecorder
	logger *slog.Logger
}

func NewService(repo Repository, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger}
}

type RegisterClientDTO struct {
	UserID       int64  `json:"user_id"`
	AccountantID int64  `json:"accountant_id"`
	RUC          string `json:"ruc"`
	BusinessName string `json:"business_name"`
	Regime       string `json:"regime,omitempty"`
}

func (dto RegisterClientDTO) Validate() error {
	if dto.UserID <= 0 {
		return internal.NewValidationError("user_id is required", internal.ErrCodeValidationFailed)
	}
	if dto.AccountantID <= 0 {
		return internal.NewValidationError("accountant_id is required", internal.ErrCodeValidationFailed)
	}
	if !rucPattern.MatchString(dto.RUC) {
		return internal.NewValidationError("ruc must be 11 digits", internal.ErrCodeValidationFailed)
	}
	if dto.BusinessName == "" {
		return internal.NewValidationError("business_name is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

func (s *Service) Register(ctx context.Context, actor internal.Actor, dto RegisterClientDTO) (*Client, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("client registration validation failed", "error", err)
		return nil, err
	}

	regime := dto.Regime
	if regime == "" {
		regime = "NRUS"
	}

	now := time.Now()
	c := &Client{
		UserID:       dto.UserID,
		AccountantID: dto.AccountantID,
		RUC:          dto.RUC,
		BusinessName: dto.BusinessName,
		Regime:       regime,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(c); err != nil {
		s.logger.Error("failed to register client", "error", err, "ruc", dto.RUC)
		return nil, err
	}

	s.audit.Record(ctx, actor, bitacora.ModuleClient, bitacora.ActionRegisterClient,
		fmt.Sprintf("cliente %s (%s) registrado con contador %d", c.BusinessName, c.RUC, c.AccountantID))

	s.logger.Info("client registered", "client_id", c.ID, "ruc", c.RUC, "accountant_id", c.AccountantID)

	return c, nil
}

func (s *Service) GetByID(id int64) (*Client, error) {
	c, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrClientNotFound
	}
	return c, nil
}

func (s *Service) ListByAccountant(accountantID int64, limit, offset int) ([]*Client, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByAccountant(accountantID, limit, offset)
}

// AccountantForClient satisfies the ClientDirectory interface of the
// obligation and declaration stores.
func (s *Service) AccountantForClient(clientID int64) (int64, error) {
	c, err := s.repo.GetByID(clientID)
	if err != nil {
		return 0, ErrClientNotFound
	}
	return c.AccountantID, nil
}

func (s *Service) AssignAccountant(ctx context.Context, actor internal.Actor, clientID, accountantID int64) (*Client, error) {
	if accountantID <= 0 {
		return nil, internal.NewValidationError("accountant_id is required", internal.ErrCodeValidationFailed)
	}

	c, err := s.repo.GetByID(clientID)
	if err != nil {
		return nil, ErrClientNotFound
	}

	if err := s.repo.UpdateAccountant(clientID, accountantID); err != nil {
		s.logger.Error("failed to assign accountant", "error", err, "client_id", clientID)
		return nil, err
	}
	c.AccountantID = accountantID

	s.audit.Record(ctx, actor, bitacora.ModuleClient, bitacora.ActionAssignAccountant,
		fmt.Sprintf("contador %d asignado al cliente %d", accountantID, clientID))

	return c, nil
}
