package obligation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jvaldiviezo/contasys/internal"
	"github.com/jvaldiviezo/contasys/internal/bitacora"
	"github.com/jvaldiviezo/contasys/internal/core/events"
)

// Repository defines the data access methods for obligations.
type Repository interface {
	Create(o *Obligation) error
	GetByID(id int64) (*Obligation, error)
	List(filter ListFilter) ([]*Obligation, error)
	ListPendingDueBefore(asOf time.Time) ([]*Obligation, error)
	ListPendingDueBetween(from, to time.Time) ([]*Obligation, error)
	UpdateStatus(id int64, status string) error
}

// ClientDirectory resolves the accountant responsible for a client.
type ClientDirectory interface {
	AccountantForClient(clientID int64) (int64, error)
}

// Publisher is the slice of the event bus the service needs.
type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

// AuditRecorder appends bitácora entries. Implementations never fail the
// business operation they describe.
type AuditRecorder interface {
	Record(ctx context.Context, actor internal.Actor, module, action, description string)
}

type Service struct {
	repo     Repository
	clients  ClientDirectory
	bus      Publisher
	audit    AuditRecorder
	leadTime time.Duration
	logger   *slog.Logger
}

func NewService(repo Repository, clients ClientDirectory, bus Publisher, audit AuditRecorder, leadTime time.Duration, logger *slog.Logger) *Service {
	if leadTime <= 0 {
		leadTime = 7 * 24 * time.Hour
	}
	return &Service{
		repo:     repo,
		clients:  clients,
		bus:      bus,
		audit:    audit,
		leadTime: leadTime,
		logger:   logger,
	}
}

// Create stores a new obligation in PENDIENTE (or NO_DISPONIBLE while its
// amount is pending calculation) and notifies the responsible accountant
// through the derivation engine.
func (s *Service) Create(ctx context.Context, actor internal.Actor, dto CreateObligationDTO) (*Obligation, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("obligation validation failed", "error", err, "client_id", dto.ClientID)
		return nil, err
	}

	accountantID, err := s.clients.AccountantForClient(dto.ClientID)
	if err != nil {
		s.logger.Error("failed to resolve accountant for client", "error", err, "client_id", dto.ClientID)
		return nil, err
	}

	status := StatusPendiente
	if dto.AmountPending {
		status = StatusNoDisponible
	}

	now := time.Now()
	o := &Obligation{
		ClientID:     dto.ClientID,
		AccountantID: accountantID,
		Tipo:         dto.Tipo,
		Period:       dto.Period,
		DueDate:      dto.DueDate,
		Amount:       dto.Amount,
		Status:       status,
		Observation:  dto.Observation,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(o); err != nil {
		s.logger.Error("failed to create obligation", "error", err, "client_id", dto.ClientID)
		return nil, err
	}

	event := events.NewObligationCreatedEvent(o.ID, o.ClientID, o.AccountantID, o.Amount, o.DueDate)
	if err := s.bus.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish obligation created event", "error", err, "obligation_id", o.ID)
	}

	s.audit.Record(ctx, actor, bitacora.ModuleObligation, bitacora.ActionCreate,
		fmt.Sprintf("obligación %s %s creada para cliente %d por %s", o.Tipo, o.Period, o.ClientID, o.Amount))

	s.logger.Info("obligation created",
		"obligation_id", o.ID,
		"client_id", o.ClientID,
		"period", o.Period,
		"amount", o.Amount,
		"due_date", o.DueDate)

	return o, nil
}

func (s *Service) GetByID(id int64) (*Obligation, error) {
	o, err := s.repo.GetByID(id)
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to get obligation", "error", err, "obligation_id", id)
		return nil, internal.NewInternalError("failed to get obligation", err)
	}
	return o, nil
}

func (s *Service) List(filter ListFilter) ([]*Obligation, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	result, err := s.repo.List(filter)
	if err != nil {
		s.logger.Error("failed to list obligations", "error", err)
		return nil, err
	}
	return result, nil
}

// SweepDueDates transitions every PENDIENTE obligation whose due date passed
// to VENCIDA and emits due-soon warnings for obligations inside the lead
// window. Idempotent: re-running with the same asOf finds nothing left to
// transition, and the warning events carry deterministic ids.
func (s *Service) SweepDueDates(ctx context.Context, asOf time.Time) (int, error) {
	overdue, err := s.repo.ListPendingDueBefore(asOf)
	if err != nil {
		s.logger.Error("failed to list overdue obligations", "error", err, "as_of", asOf)
		return 0, err
	}

	transitioned := 0
	for _, o := range overdue {
		if err := s.repo.UpdateStatus(o.ID, StatusVencida); err != nil {
			s.logger.Error("failed to mark obligation overdue", "error", err, "obligation_id", o.ID)
			return transitioned, err
		}
		transitioned++

		event := events.NewObligationOverdueEvent(o.ID, o.ClientID, o.AccountantID, o.Amount, o.DueDate)
		if err := s.bus.PublishSync(ctx, event); err != nil {
			s.logger.Error("failed to publish obligation overdue event", "error", err, "obligation_id", o.ID)
		}

		s.audit.Record(ctx, internal.SystemActor(), bitacora.ModuleObligation, bitacora.ActionUpdate,
			fmt.Sprintf("obligación %d venció el %s", o.ID, o.DueDate.Format("2006-01-02")))
	}

	dueSoon, err := s.repo.ListPendingDueBetween(asOf, asOf.Add(s.leadTime))
	if err != nil {
		s.logger.Error("failed to list due-soon obligations", "error", err, "as_of", asOf)
		return transitioned, err
	}

	for _, o := range dueSoon {
		event := events.NewObligationDueSoonEvent(o.ID, o.ClientID, o.AccountantID, o.Amount, o.DueDate)
		if err := s.bus.PublishSync(ctx, event); err != nil {
			s.logger.Error("failed to publish obligation due-soon event", "error", err, "obligation_id", o.ID)
		}
	}

	s.logger.Info("due-date sweep finished",
		"as_of", asOf,
		"transitioned", transitioned,
		"due_soon", len(dueSoon))

	return transitioned, nil
}
