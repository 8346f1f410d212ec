package declaration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jvaldiviezo/contasys/internal"
	"github.com/jvaldiviezo/contasys/internal/bitacora"
	"github.com/jvaldiviezo/contasys/internal/core/events"
	"github.com/jvaldiviezo/contasys/internal/obligation"
)

// Repository defines the data access methods for declarations.
type Repository interface {
	Create(d *Declaration) error
	GetByID(id int64) (*Declaration, error)
	ListByClient(clientID int64, limit, offset int) ([]*Declaration, error)
	ListUnfiledDueBefore(asOf time.Time) ([]*Declaration, error)
	ListUnfiledDueBetween(from, to time.Time) ([]*Declaration, error)
	UpdateStatus(id int64, status string) error
	MarkDeclared(d *Declaration) error
}

// ObligationCreator is the slice of the obligation store the declaration
// flow needs when a filing produces a payable amount.
type ObligationCreator interface {
	Create(ctx context.Context, actor internal.Actor, dto obligation.CreateObligationDTO) (*obligation.Obligation, error)
}

type ClientDirectory interface {
	AccountantForClient(clientID int64) (int64, error)
}

type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type AuditRecorder interface {
	Record(ctx context.Context, actor internal.Actor, module, action, description string)
}

type Service struct {
	repo        Repository
	obligations ObligationCreator
	clients     ClientDirectory
	bus         Publisher
	audit       AuditRecorder
	leadTime    time.Duration
	logger      *slog.Logger
}

func NewService(repo Repository, obligations ObligationCreator, clients ClientDirectory, bus Publisher, audit AuditRecorder, leadTime time.Duration, logger *slog.Logger) *Service {
	if leadTime <= 0 {
		leadTime = 7 * 24 * time.Hour
	}
	return &Service{
		repo:        repo,
		obligations: obligations,
		clients:     clients,
		bus:         bus,
		audit:       audit,
		leadTime:    leadTime,
		logger:      logger,
	}
}

func (s *Service) Create(ctx context.Context, actor internal.Actor, dto CreateDeclarationDTO) (*Declaration, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("declaration validation failed", "error", err, "client_id", dto.ClientID)
		return nil, err
	}

	accountantID, err := s.clients.AccountantForClient(dto.ClientID)
	if err != nil {
		s.logger.Error("failed to resolve accountant for client", "error", err, "client_id", dto.ClientID)
		return nil, err
	}

	now := time.Now()
	d := &Declaration{
		ClientID:     dto.ClientID,
		AccountantID: accountantID,
		Tipo:         dto.Tipo,
		Period:       dto.Period,
		DueDate:      dto.DueDate,
		Status:       StatusPendiente,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(d); err != nil {
		s.logger.Error("failed to create declaration", "error", err, "client_id", dto.ClientID)
		return nil, err
	}

	s.audit.Record(ctx, actor, bitacora.ModuleDeclaration, bitacora.ActionCreate,
		fmt.Sprintf("declaración %s %s creada para cliente %d", d.Tipo, d.Period, d.ClientID))

	s.logger.Info("declaration created",
		"declaration_id", d.ID,
		"client_id", d.ClientID,
		"period", d.Period)

	return d, nil
}

func (s *Service) GetByID(id int64) (*Declaration, error) {
	d, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrDeclarationNotFound
	}
	return d, nil
}

func (s *Service) ListByClient(clientID int64, limit, offset int) ([]*Declaration, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByClient(clientID, limit, offset)
}

// MarkInProgress flags a pending declaration as being worked on.
func (s *Service) MarkInProgress(ctx context.Context, actor internal.Actor, id int64) (*Declaration, error) {
	d, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrDeclarationNotFound
	}
	if d.Status != StatusPendiente {
		return nil, internal.NewInvalidStateError(
			"only pending declarations can move to in progress",
			internal.ErrCodeValidationFailed, d.Status)
	}

	if err := s.repo.UpdateStatus(id, StatusEnProceso); err != nil {
		s.logger.Error("failed to mark declaration in progress", "error", err, "declaration_id", id)
		return nil, err
	}
	d.Status = StatusEnProceso

	event := events.NewDeclarationInProgressEvent(d.ID, d.ClientID, d.AccountantID, d.Period, d.DueDate)
	if err := s.bus.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish declaration in-progress event", "error", err, "declaration_id", d.ID)
	}

	s.audit.Record(ctx, actor, bitacora.ModuleDeclaration, bitacora.ActionMarkInProgress,
		fmt.Sprintf("declaración %s del cliente %d en proceso", d.Period, d.ClientID))

	return d, nil
}

// Declare presents the declaration. A positive declared amount creates the
// linked payment obligation through the obligation store.
func (s *Service) Declare(ctx context.Context, actor internal.Actor, id int64, dto DeclareDTO) (*Declaration, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	d, err := s.repo.GetByID(id)
	if err != nil {
		return nil, ErrDeclarationNotFound
	}
	if !d.CanBeDeclared() {
		return nil, internal.NewInvalidStateError(
			"declaration was already presented",
			internal.ErrCodeValidationFailed, d.Status)
	}

	now := time.Now()
	d.Status = StatusDeclarada
	d.DeclaredAmount = &dto.Amount
	d.DeclaredAt = &now
	d.UpdatedAt = now

	if dto.Amount.IsPositive() {
		obligationTipo := dto.ObligationTipo
		if obligationTipo == "" {
			obligationTipo = d.Tipo
		}
		created, err := s.obligations.Create(ctx, actor, obligation.CreateObligationDTO{
			ClientID: d.ClientID,
			Tipo:     obligationTipo,
			Period:   d.Period,
			DueDate:  dto.DueDate,
			Amount:   dto.Amount,
		})
		if err != nil {
			s.logger.Error("failed to create obligation from declaration", "error", err, "declaration_id", d.ID)
			return nil, err
		}
		d.ObligationID = &created.ID
	}

	if err := s.repo.MarkDeclared(d); err != nil {
		s.logger.Error("failed to mark declaration declared", "error", err, "declaration_id", d.ID)
		return nil, err
	}

	event := events.NewDeclarationCompletedEvent(d.ID, d.ClientID, d.AccountantID, d.Period, d.DueDate)
	if err := s.bus.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish declaration completed event", "error", err, "declaration_id", d.ID)
	}

	s.audit.Record(ctx, actor, bitacora.ModuleDeclaration, bitacora.ActionMarkDeclared,
		fmt.Sprintf("declaración %s del cliente %d presentada por %s", d.Period, d.ClientID, dto.Amount))

	s.logger.Info("declaration presented",
		"declaration_id", d.ID,
		"client_id", d.ClientID,
		"declared_amount", dto.Amount)

	return d, nil
}

// SweepDueDates mirrors the obligation sweep for declarations: unfiled past
// the due date become VENCIDA, unfiled inside the lead window raise a
// due-soon warning. Idempotent on asOf.
func (s *Service) SweepDueDates(ctx context.Context, asOf time.Time) (int, error) {
	overdue, err := s.repo.ListUnfiledDueBefore(asOf)
	if err != nil {
		s.logger.Error("failed to list overdue declarations", "error", err, "as_of", asOf)
		return 0, err
	}

	transitioned := 0
	for _, d := range overdue {
		if d.Status == StatusVencida {
			continue
		}
		if err := s.repo.UpdateStatus(d.ID, StatusVencida); err != nil {
			s.logger.Error("failed to mark declaration overdue", "error", err, "declaration_id", d.ID)
			return transitioned, err
		}
		transitioned++

		event := events.NewDeclarationOverdueEvent(d.ID, d.ClientID, d.AccountantID, d.Period, d.DueDate)
		if err := s.bus.PublishSync(ctx, event); err != nil {
			s.logger.Error("failed to publish declaration overdue event", "error", err, "declaration_id", d.ID)
		}

		s.audit.Record(ctx, internal.SystemActor(), bitacora.ModuleDeclaration, bitacora.ActionUpdate,
			fmt.Sprintf("declaración %d venció sin presentarse", d.ID))
	}

	dueSoon, err := s.repo.ListUnfiledDueBetween(asOf, asOf.Add(s.leadTime))
	if err != nil {
		s.logger.Error("failed to list due-soon declarations", "error", err, "as_of", asOf)
		return transitioned, err
	}

	for _, d := range dueSoon {
		event := events.NewDeclarationDueSoonEvent(d.ID, d.ClientID, d.AccountantID, d.Period, d.DueDate)
		if err := s.bus.PublishSync(ctx, event); err != nil {
			s.logger.Error("failed to publish declaration due-soon event", "error", err, "declaration_id", d.ID)
		}
	}

	s.logger.Info("declaration sweep finished",
		"as_of", asOf,
		"transitioned", transitioned,
		"due_soon", len(dueSoon))

	return transitioned, nil
}
