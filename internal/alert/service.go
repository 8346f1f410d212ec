package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jvaldiviezo/contasys/internal"
	"github.com/jvaldiviezo/contasys/internal/bitacora"
	"github.com/jvaldiviezo/contasys/internal/core/events"
)

// Repository defines the data access methods for alerts.
type Repository interface {
	Create(a *Alert) error
	GetByID(id int64) (*Alert, error)
	ExistsForEvent(eventID, tipo string) (bool, error)
	UpdateStatus(id int64, status string) error
	ListByStatus(accountantID int64, status string, now time.Time, limit, offset int) ([]*Alert, error)
	CountByStatus(accountantID int64, now time.Time) (map[string]int64, error)
	CountByTipo(accountantID int64, now time.Time) (map[string]int64, error)
}

type AuditRecorder interface {
	Record(ctx context.Context, actor internal.Actor, module, action, description string)
}

type Service struct {
	repo   Repository
	audit  AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		audit:  audit,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock overrides the service clock. Test hook.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// DeriveAndEmit maps one domain event to at most one alert. Replaying the
// same event is a no-op: the (event id, alert type) pair is checked here and
// backed by a unique index for at-least-once delivery.
func (s *Service) DeriveAndEmit(ctx context.Context, event events.Event) error {
	derived, ok := derive(event)
	if !ok {
		s.logger.Debug("event does not derive an alert", "event_type", event.EventType())
		return nil
	}

	exists, err := s.repo.ExistsForEvent(event.EventID(), derived.Tipo)
	if err != nil {
		return err
	}
	if exists {
		s.logger.Debug("alert already derived for event",
			"event_id", event.EventID(),
			"tipo", derived.Tipo)
		return nil
	}

	now := s.now()
	derived.Status = StatusActive
	derived.EventID = event.EventID()
	derived.CreatedAt = now
	derived.UpdatedAt = now

	if err := s.repo.Create(derived); err != nil {
		return err
	}

	s.audit.Record(ctx, internal.SystemActor(), bitacora.ModuleAlert, bitacora.ActionNotifyAccountant,
		fmt.Sprintf("alerta %s generada para el contador %d", derived.Tipo, derived.AccountantID))

	s.logger.Info("alert derived",
		"alert_id", derived.ID,
		"tipo", derived.Tipo,
		"accountant_id", derived.AccountantID,
		"event_id", event.EventID())

	return nil
}

// MarkSeen advances an ACTIVE alert to SEEN.
func (s *Service) MarkSeen(ctx context.Context, actor internal.Actor, alertID int64) (*Alert, error) {
	a, err := s.repo.GetByID(alertID)
	if err != nil {
		return nil, ErrAlertNotFound
	}
	if a.Status != StatusActive {
		return nil, internal.NewInvalidStateError(
			"only active alerts can be marked as seen",
			internal.ErrCodeAlertNotActive, a.Status)
	}

	if err := s.repo.UpdateStatus(alertID, StatusSeen); err != nil {
		s.logger.Error("failed to mark alert seen", "error", err, "alert_id", alertID)
		return nil, err
	}
	a.Status = StatusSeen

	s.audit.Record(ctx, actor, bitacora.ModuleAlert, bitacora.ActionUpdate,
		fmt.Sprintf("alerta %d marcada como vista", alertID))

	return a, nil
}

// Resolve closes an alert from ACTIVE or SEEN; resolving twice is an error.
func (s *Service) Resolve(ctx context.Context, actor internal.Actor, alertID int64) (*Alert, error) {
	a, err := s.repo.GetByID(alertID)
	if err != nil {
		return nil, ErrAlertNotFound
	}
	if a.Status == StatusResolved {
		return nil, internal.NewInvalidStateError(
			"alert is already resolved",
			internal.ErrCodeAlertAlreadyResolved, a.Status)
	}

	if err := s.repo.UpdateStatus(alertID, StatusResolved); err != nil {
		s.logger.Error("failed to resolve alert", "error", err, "alert_id", alertID)
		return nil, err
	}
	a.Status = StatusResolved

	s.audit.Record(ctx, actor, bitacora.ModuleAlert, bitacora.ActionUpdate,
		fmt.Sprintf("alerta %d resuelta", alertID))

	return a, nil
}

func (s *Service) ListByStatus(accountantID int64, status string, limit, offset int) ([]*Alert, error) {
	switch status {
	case StatusActive, StatusSeen, StatusResolved:
	default:
		return nil, internal.NewValidationError("unknown alert status: "+status, internal.ErrCodeValidationFailed)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.repo.ListByStatus(accountantID, status, s.now(), limit, offset)
}

// ListMetrics summarizes the accountant's non-expired alerts.
func (s *Service) ListMetrics(accountantID int64) (*Metrics, error) {
	now := s.now()

	byStatus, err := s.repo.CountByStatus(accountantID, now)
	if err != nil {
		s.logger.Error("failed to count alerts by status", "error", err, "accountant_id", accountantID)
		return nil, err
	}
	byTipo, err := s.repo.CountByTipo(accountantID, now)
	if err != nil {
		s.logger.Error("failed to count alerts by tipo", "error", err, "accountant_id", accountantID)
		return nil, err
	}

	return &Metrics{
		Active:   byStatus[StatusActive],
		Seen:     byStatus[StatusSeen],
		Resolved: byStatus[StatusResolved],
		ByTipo:   byTipo,
	}, nil
}

// derive maps a domain event to the alert it produces, or reports that the
// event type is not alert-bearing.
func derive(event events.Event) (*Alert, bool) {
	switch e := event.(type) {
	case *events.ObligationEvent:
		return deriveObligation(e)
	case *events.PaymentEvent:
		return derivePayment(e)
	case *events.DeclarationEvent:
		return deriveDeclaration(e)
	}
	return nil, false
}

func deriveObligation(e *events.ObligationEvent) (*Alert, bool) {
	a := &Alert{AccountantID: e.AccountantID}
	switch e.EventType() {
	case events.EventTypeObligationCreated:
		a.Tipo = TipoNuevaObligacion
		a.Description = fmt.Sprintf("Nueva obligación de %s para el cliente %d, vence el %s",
			e.Amount, e.ClientID, e.DueDate.Format("2006-01-02"))
	case events.EventTypeObligationDueSoon:
		a.Tipo = TipoObligacionPorVencer
		a.Description = fmt.Sprintf("La obligación %d del cliente %d vence el %s",
			e.ObligationID, e.ClientID, e.DueDate.Format("2006-01-02"))
		due := e.DueDate
		a.ExpiresAt = &due
	case events.EventTypeObligationOverdue:
		a.Tipo = TipoObligacionVencida
		a.Description = fmt.Sprintf("La obligación %d del cliente %d venció el %s",
			e.ObligationID, e.ClientID, e.DueDate.Format("2006-01-02"))
	case events.EventTypeObligationResolved:
		a.Tipo = TipoObligacionResuelta
		a.Description = fmt.Sprintf("La obligación %d del cliente %d quedó %s",
			e.ObligationID, e.ClientID, e.Status)
	default:
		return nil, false
	}
	return a, true
}

func derivePayment(e *events.PaymentEvent) (*Alert, bool) {
	a := &Alert{AccountantID: e.AccountantID}
	switch e.EventType() {
	case events.EventTypePaymentSubmitted:
		a.Tipo = TipoPagoPorValidar
		a.Description = fmt.Sprintf("Pago de %s pendiente de validación para la obligación %d",
			e.Amount, e.ObligationID)
	case events.EventTypePaymentRejected:
		a.Tipo = TipoPagoRechazado
		a.Description = fmt.Sprintf("Pago %d rechazado para la obligación %d: %s",
			e.PaymentID, e.ObligationID, e.Reason)
	case events.EventTypePaymentValidated:
		a.Tipo = TipoPagoAceptado
		a.Description = fmt.Sprintf("Pago %d aceptado para la obligación %d",
			e.PaymentID, e.ObligationID)
	default:
		return nil, false
	}
	return a, true
}

func deriveDeclaration(e *events.DeclarationEvent) (*Alert, bool) {
	a := &Alert{AccountantID: e.AccountantID}
	switch e.EventType() {
	case events.EventTypeDeclarationInProgress:
		a.Tipo = TipoDeclaracionEnProceso
		a.Description = fmt.Sprintf("Declaración %s del cliente %d está en proceso", e.Period, e.ClientID)
	case events.EventTypeDeclarationDueSoon:
		a.Tipo = TipoDeclaracionPorVencer
		a.Description = fmt.Sprintf("Declaración %s del cliente %d vence el %s",
			e.Period, e.ClientID, e.DueDate.Format("2006-01-02"))
		due := e.DueDate
		a.ExpiresAt = &due
	case events.EventTypeDeclarationOverdue:
		a.Tipo = TipoDeclaracionVencida
		a.Description = fmt.Sprintf("Declaración %s del cliente %d venció sin presentarse", e.Period, e.ClientID)
	case events.EventTypeDeclarationCompleted:
		a.Tipo = TipoDeclaracionCompletada
		a.Description = fmt.Sprintf("Declaración %s del cliente %d fue presentada", e.Period, e.ClientID)
	default:
		return nil, false
	}
	return a, true
}
