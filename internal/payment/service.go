package payment

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

// Repository defines the data access methods for payments. Transact runs fn
// against a repository bound to one database transaction; the obligation row
// is locked for the duration, which is what linearizes competing
// submissions and reviews per obligation.
type Repository interface {
	Transact(fn func(tx Repository) error) error
	Create(p *Payment) error
	GetByID(id int64) (*Payment, error)
	GetObligationForUpdate(obligationID int64) (*obligation.Obligation, error)
	HasPendingForObligation(obligationID int64) (bool, error)
	UpdateStatus(id int64, status string, reviewerID *int64, comment string) error
	UpdateObligationStatus(obligationID int64, status string) error
	List(filter ListFilter) ([]*Payment, error)
}

type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

type AuditRecorder interface {
	Record(ctx context.Context, actor internal.Actor, module, action, description string)
}

type Service struct {
	repo   Repository
	bus    Publisher
	audit  AuditRecorder
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, bus Publisher, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		bus:    bus,
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

// Submit registers a proof of payment against a payable obligation and moves
// the obligation to POR_VALIDAR. Payment creation and the obligation
// transition commit together or not at all.
func (s *Service) Submit(ctx context.Context, actor internal.Actor, dto SubmitPaymentDTO) (*Payment, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("payment submission validation failed", "error", err, "obligation_id", dto.ObligationID)
		return nil, err
	}

	role := internal.RoleCliente
	if actor.Role == internal.RoleContador || actor.Role == internal.RoleAdmin {
		role = internal.RoleContador
	}

	var (
		created *Payment
		obl     *obligation.Obligation
	)
	err := s.repo.Transact(func(tx Repository) error {
		var err error
		obl, err = tx.GetObligationForUpdate(dto.ObligationID)
		if err != nil {
			return err
		}

		// The pending check runs first: a second submission while one
		// payment awaits review is a conflict, even though the obligation
		// already sits on POR_VALIDAR.
		pending, err := tx.HasPendingForObligation(obl.ID)
		if err != nil {
			return err
		}
		if pending {
			return ErrAlreadyPending
		}

		if !obl.IsPayable() {
			return internal.NewInvalidStateError(
				"obligation does not accept payments in its current status",
				internal.ErrCodeObligationNotPayable, obl.Status)
		}

		now := s.now()
		created = &Payment{
			ObligationID:    obl.ID,
			Amount:          dto.Amount,
			PaymentDate:     dto.PaymentDate,
			Method:          dto.Method,
			VoucherRef:      dto.VoucherRef,
			Status:          StatusPendingValidation,
			SubmittedByRole: role,
			SubmittedByID:   actor.ID,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := tx.Create(created); err != nil {
			return err
		}

		return tx.UpdateObligationStatus(obl.ID, obligation.StatusPorValidar)
	})
	if err != nil {
		s.logger.Error("payment submission failed", "error", err, "obligation_id", dto.ObligationID, "user_id", actor.ID)
		return nil, err
	}

	event := events.NewPaymentSubmittedEvent(created.ID, obl.ID, obl.ClientID, obl.AccountantID, created.Amount)
	if err := s.bus.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish payment submitted event", "error", err, "payment_id", created.ID)
	}

	s.audit.Record(ctx, actor, bitacora.ModulePayment, bitacora.ActionUploadVoucher,
		fmt.Sprintf("comprobante %s adjuntado a la obligación %d", created.VoucherRef, obl.ID))
	s.audit.Record(ctx, actor, bitacora.ModulePayment, bitacora.ActionCreate,
		fmt.Sprintf("pago de %s registrado para la obligación %d, pendiente de validación", created.Amount, obl.ID))

	s.logger.Info("payment submitted",
		"payment_id", created.ID,
		"obligation_id", obl.ID,
		"amount", created.Amount,
		"method", created.Method,
		"submitted_by", actor.ID)

	return created, nil
}

// Validate accepts a pending payment. The obligation lands on PAGADA when
// the payment date is on or before the due date, PAGADA_CON_RETRASO
// otherwise.
func (s *Service) Validate(ctx context.Context, actor internal.Actor, paymentID int64, dto ValidatePaymentDTO) (*Payment, error) {
	var (
		reviewed  *Payment
		obl       *obligation.Obligation
		newStatus string
	)
	err := s.repo.Transact(func(tx Repository) error {
		var err error
		reviewed, err = tx.GetByID(paymentID)
		if err != nil {
			return err
		}
		if !reviewed.IsPending() {
			return internal.NewInvalidStateError(
				"payment is not awaiting validation",
				internal.ErrCodePaymentNotPending, reviewed.Status)
		}

		obl, err = tx.GetObligationForUpdate(reviewed.ObligationID)
		if err != nil {
			return err
		}

		newStatus = obligation.StatusPagada
		if paidLate(reviewed.PaymentDate, obl.DueDate) {
			newStatus = obligation.StatusPagadaConRetraso
		}

		if err := tx.UpdateStatus(reviewed.ID, StatusValidated, &actor.ID, dto.Comment); err != nil {
			return err
		}
		return tx.UpdateObligationStatus(obl.ID, newStatus)
	})
	if err != nil {
		s.logger.Error("payment validation failed", "error", err, "payment_id", paymentID, "reviewer_id", actor.ID)
		return nil, err
	}

	reviewed.Status = StatusValidated
	reviewed.ReviewerID = &actor.ID
	reviewed.ReviewerComment = dto.Comment

	validatedEvent := events.NewPaymentValidatedEvent(reviewed.ID, obl.ID, obl.ClientID, obl.AccountantID, reviewed.Amount)
	if err := s.bus.PublishSync(ctx, validatedEvent); err != nil {
		s.logger.Error("failed to publish payment validated event", "error", err, "payment_id", reviewed.ID)
	}

	resolvedEvent := events.NewObligationResolvedEvent(obl.ID, obl.ClientID, obl.AccountantID, obl.Amount, obl.DueDate, newStatus)
	if err := s.bus.PublishSync(ctx, resolvedEvent); err != nil {
		s.logger.Error("failed to publish obligation resolved event", "error", err, "obligation_id", obl.ID)
	}

	s.audit.Record(ctx, actor, bitacora.ModulePayment, bitacora.ActionUpdate,
		fmt.Sprintf("pago %d validado, obligación %d pasa a %s", reviewed.ID, obl.ID, newStatus))

	s.logger.Info("payment validated",
		"payment_id", reviewed.ID,
		"obligation_id", obl.ID,
		"obligation_status", newStatus,
		"reviewer_id", actor.ID)

	return reviewed, nil
}

// Reject sends a pending payment back with a reason. The obligation returns
// to PENDIENTE or VENCIDA from the due date alone; a rejected payment never
// discharges it.
func (s *Service) Reject(ctx context.Context, actor internal.Actor, paymentID int64, dto RejectPaymentDTO) (*Payment, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("payment rejection validation failed", "error", err, "payment_id", paymentID)
		return nil, err
	}

	var (
		reviewed  *Payment
		obl       *obligation.Obligation
		newStatus string
	)
	err := s.repo.Transact(func(tx Repository) error {
		var err error
		reviewed, err = tx.GetByID(paymentID)
		if err != nil {
			return err
		}
		if !reviewed.IsPending() {
			return internal.NewInvalidStateError(
				"payment is not awaiting validation",
				internal.ErrCodePaymentNotPending, reviewed.Status)
		}

		obl, err = tx.GetObligationForUpdate(reviewed.ObligationID)
		if err != nil {
			return err
		}

		newStatus = obligation.StatusForDueDate(obl.DueDate, s.now())

		if err := tx.UpdateStatus(reviewed.ID, StatusRejected, &actor.ID, dto.Reason); err != nil {
			return err
		}
		return tx.UpdateObligationStatus(obl.ID, newStatus)
	})
	if err != nil {
		s.logger.Error("payment rejection failed", "error", err, "payment_id", paymentID, "reviewer_id", actor.ID)
		return nil, err
	}

	reviewed.Status = StatusRejected
	reviewed.ReviewerID = &actor.ID
	reviewed.ReviewerComment = dto.Reason

	event := events.NewPaymentRejectedEvent(reviewed.ID, obl.ID, obl.ClientID, obl.AccountantID, reviewed.Amount, dto.Reason)
	if err := s.bus.PublishSync(ctx, event); err != nil {
		s.logger.Error("failed to publish payment rejected event", "error", err, "payment_id", reviewed.ID)
	}

	s.audit.Record(ctx, actor, bitacora.ModulePayment, bitacora.ActionUpdate,
		fmt.Sprintf("pago %d rechazado (%s), obligación %d vuelve a %s", reviewed.ID, dto.Reason, obl.ID, newStatus))

	s.logger.Info("payment rejected",
		"payment_id", reviewed.ID,
		"obligation_id", obl.ID,
		"obligation_status", newStatus,
		"reviewer_id", actor.ID,
		"reason", dto.Reason)

	return reviewed, nil
}

func (s *Service) GetByID(id int64) (*Payment, error) {
	p, err := s.repo.GetByID(id)
	if err != nil {
		if _, ok := internal.IsAppError(err); ok {
			return nil, err
		}
		s.logger.Error("failed to get payment", "error", err, "payment_id", id)
		return nil, internal.NewInternalError("failed to get payment", err)
	}
	return p, nil
}

func (s *Service) List(filter ListFilter) ([]*Payment, error) {
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
		s.logger.Error("failed to list payments", "error", err)
		return nil, err
	}
	return result, nil
}

// paidLate compares calendar dates, not instants: paying any time on the due
// date itself is on time.
func paidLate(paymentDate, dueDate time.Time) bool {
	py, pm, pd := paymentDate.Date()
	dy, dm, dd := dueDate.Date()
	if py != dy {
		return py > dy
	}
	if pm != dm {
		return pm > dm
	}
	return pd > dd
}
