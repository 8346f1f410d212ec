package payment_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/jvaldiviezo/contasys/internal"
	"github.com/jvaldiviezo/contasys/internal/core/events"
	"github.com/jvaldiviezo/contasys/internal/obligation"
	"github.com/jvaldiviezo/contasys/internal/payment"
)

// Mock repository for testing. Transact runs the closure against the mock
// itself, so state transitions are observable after the call.
type mockPaymentRepository struct {
	payments    map[int64]*payment.Payment
	obligations map[int64]*obligation.Obligation
	nextID      int64

	transactError error
	createError   error
	getError      error
	updateError   error
}

func newMockPaymentRepository() *mockPaymentRepository {
	return &mockPaymentRepository{
		payments:    make(map[int64]*payment.Payment),
		obligations: make(map[int64]*obligation.Obligation),
		nextID:      1,
	}
}

func (m *mockPaymentRepository) Transact(fn func(tx payment.Repository) error) error {
	if m.transactError != nil {
		return m.transactError
	}
	return fn(m)
}

func (m *mockPaymentRepository) Create(p *payment.Payment) error {
	if m.createError != nil {
		return m.createError
	}
	p.ID = m.nextID
	m.nextID++
	cp := *p
	m.payments[p.ID] = &cp
	return nil
}

func (m *mockPaymentRepository) GetByID(id int64) (*payment.Payment, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	p, ok := m.payments[id]
	if !ok {
		return nil, payment.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockPaymentRepository) GetObligationForUpdate(obligationID int64) (*obligation.Obligation, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	o, ok := m.obligations[obligationID]
	if !ok {
		return nil, obligation.ErrObligationNotFound
	}
	co := *o
	return &co, nil
}

func (m *mockPaymentRepository) HasPendingForObligation(obligationID int64) (bool, error) {
	for _, p := range m.payments {
		if p.ObligationID == obligationID && p.Status == payment.StatusPendingValidation {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPaymentRepository) UpdateStatus(id int64, status string, reviewerID *int64, comment string) error {
	if m.updateError != nil {
		return m.updateError
	}
	if p, ok := m.payments[id]; ok {
		p.Status = status
		p.ReviewerID = reviewerID
		p.ReviewerComment = comment
	}
	return nil
}

func (m *mockPaymentRepository) UpdateObligationStatus(obligationID int64, status string) error {
	if m.updateError != nil {
		return m.updateError
	}
	if o, ok := m.obligations[obligationID]; ok {
		o.Status = status
	}
	return nil
}

func (m *mockPaymentRepository) List(filter payment.ListFilter) ([]*payment.Payment, error) {
	result := make([]*payment.Payment, 0)
	for _, p := range m.payments {
		if filter.ObligationID != 0 && p.ObligationID != filter.ObligationID {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		cp := *p
		result = append(result, &cp)
	}
	return result, nil
}

// Mock publisher that records published events in order.
type mockPublisher struct {
	events       []events.Event
	publishError error
}

func (m *mockPublisher) PublishSync(ctx context.Context, event events.Event) error {
	if m.publishError != nil {
		return m.publishError
	}
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) eventTypes() []string {
	types := make([]string, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.EventType())
	}
	return types
}

// Mock audit recorder capturing (module, action) pairs.
type auditCall struct {
	Actor       internal.Actor
	Module      string
	Action      string
	Description string
}

type mockAuditRecorder struct {
	calls []auditCall
}

func (m *mockAuditRecorder) Record(ctx context.Context, actor internal.Actor, module, action, description string) {
	m.calls = append(m.calls, auditCall{Actor: actor, Module: module, Action: action, Description: description})
}

var _ = Describe("PaymentService", func() {
	var (
		service  *payment.Service
		mockRepo *mockPaymentRepository
		bus      *mockPublisher
		audit    *mockAuditRecorder
		logger   *slog.Logger

		cliente  internal.Actor
		contador internal.Actor

		dueDate time.Time
	)

	const fixedNow = "2024-05-03T10:00:00Z"

	newObligation := func(id int64, status string, due time.Time) *obligation.Obligation {
		return &obligation.Obligation{
			ID:           id,
			ClientID:     7,
			AccountantID: 3,
			Tipo:         "CUOTA_NRUS",
			Period:       "2024-05",
			DueDate:      due,
			Amount:       decimal.NewFromInt(50),
			Status:       status,
		}
	}

	submitDTO := func(obligationID int64) payment.SubmitPaymentDTO {
		return payment.SubmitPaymentDTO{
			ObligationID: obligationID,
			Amount:       decimal.NewFromInt(50),
			PaymentDate:  time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC),
			Method:       payment.MethodYape,
			VoucherRef:   "OP-998877",
		}
	}

	BeforeEach(func() {
		mockRepo = newMockPaymentRepository()
		bus = &mockPublisher{}
		audit = &mockAuditRecorder{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		now, err := time.Parse(time.RFC3339, fixedNow)
		Expect(err).ToNot(HaveOccurred())
		service = payment.NewService(mockRepo, bus, audit, logger).WithClock(func() time.Time { return now })

		cliente = internal.Actor{ID: 7, Username: "jperez", FullName: "Juan Pérez", Role: internal.RoleCliente}
		contador = internal.Actor{ID: 3, Username: "mvaldiviezo", FullName: "María Valdiviezo", Role: internal.RoleContador}

		dueDate = time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC)
	})

	Describe("Submit", func() {
		Context("against a payable obligation", func() {
			BeforeEach(func() {
				mockRepo.obligations[1] = newObligation(1, obligation.StatusPendiente, dueDate)
			})

			It("creates a pending payment and moves the obligation to POR_VALIDAR", func() {
				p, err := service.Submit(context.Background(), cliente, submitDTO(1))

				Expect(err).ToNot(HaveOccurred())
				Expect(p.ID).To(BeNumerically(">", 0))
				Expect(p.Status).To(Equal(payment.StatusPendingValidation))
				Expect(p.SubmittedByRole).To(Equal(internal.RoleCliente))
				Expect(mockRepo.obligations[1].Status).To(Equal(obligation.StatusPorValidar))
			})

			It("publishes a payment submitted event after the transition", func() {
				_, err := service.Submit(context.Background(), cliente, submitDTO(1))

				Expect(err).ToNot(HaveOccurred())
				Expect(bus.eventTypes()).To(Equal([]string{events.EventTypePaymentSubmitted}))
			})

			It("records the voucher upload and the payment in the audit trail", func() {
				_, err := service.Submit(context.Background(), cliente, submitDTO(1))

				Expect(err).ToNot(HaveOccurred())
				Expect(audit.calls).To(HaveLen(2))
				Expect(audit.calls[0].Action).To(Equal("UPLOAD_VOUCHER"))
				Expect(audit.calls[1].Action).To(Equal("CREATE"))
				Expect(audit.calls[0].Actor.Username).To(Equal("jperez"))
			})

			It("accepts submissions from the accountant on behalf of the client", func() {
				p, err := service.Submit(context.Background(), contador, submitDTO(1))

				Expect(err).ToNot(HaveOccurred())
				Expect(p.SubmittedByRole).To(Equal(internal.RoleContador))
			})

			It("also accepts payments against an overdue obligation", func() {
				mockRepo.obligations[1].Status = obligation.StatusVencida

				p, err := service.Submit(context.Background(), cliente, submitDTO(1))

				Expect(err).ToNot(HaveOccurred())
				Expect(p.Status).To(Equal(payment.StatusPendingValidation))
				Expect(mockRepo.obligations[1].Status).To(Equal(obligation.StatusPorValidar))
			})
		})

		Context("when the obligation already has a pending payment", func() {
			BeforeEach(func() {
				mockRepo.obligations[1] = newObligation(1, obligation.StatusPendiente, dueDate)
				_, err := service.Submit(context.Background(), cliente, submitDTO(1))
				Expect(err).ToNot(HaveOccurred())
			})

			It("rejects the second submission with a conflict", func() {
				_, err := service.Submit(context.Background(), cliente, submitDTO(1))

				Expect(err).To(MatchError(payment.ErrAlreadyPending))
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Type).To(Equal(internal.ErrorTypeConflict))
				Expect(len(mockRepo.payments)).To(Equal(1))
			})

			It("conflicts even if the obligation status was externally reset", func() {
				mockRepo.obligations[1].Status = obligation.StatusPendiente

				_, err := service.Submit(context.Background(), cliente, submitDTO(1))

				Expect(err).To(MatchError(payment.ErrAlreadyPending))
				Expect(len(mockRepo.payments)).To(Equal(1))
			})
		})

		Context("against a resolved obligation", func() {
			It("fails with an invalid state error carrying the current status", func() {
				mockRepo.obligations[1] = newObligation(1, obligation.StatusPagada, dueDate)

				_, err := service.Submit(context.Background(), cliente, submitDTO(1))

				Expect(err).To(HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeObligationNotPayable))
				Expect(appErr.Details).To(HaveKeyWithValue("current_status", obligation.StatusPagada))
				Expect(mockRepo.payments).To(BeEmpty())
				Expect(bus.events).To(BeEmpty())
			})

			It("refuses payments while the amount is not yet available", func() {
				mockRepo.obligations[1] = newObligation(1, obligation.StatusNoDisponible, dueDate)

				_, err := service.Submit(context.Background(), cliente, submitDTO(1))

				Expect(err).To(HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeObligationNotPayable))
				Expect(appErr.Details).To(HaveKeyWithValue("current_status", obligation.StatusNoDisponible))
			})
		})

		Context("with an invalid DTO", func() {
			It("rejects a missing voucher reference", func() {
				mockRepo.obligations[1] = newObligation(1, obligation.StatusPendiente, dueDate)
				dto := submitDTO(1)
				dto.VoucherRef = "   "

				_, err := service.Submit(context.Background(), cliente, dto)

				Expect(err).To(HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeMissingVoucher))
			})

			It("rejects a non-positive amount", func() {
				mockRepo.obligations[1] = newObligation(1, obligation.StatusPendiente, dueDate)
				dto := submitDTO(1)
				dto.Amount = decimal.Zero

				_, err := service.Submit(context.Background(), cliente, dto)

				Expect(err).To(HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidAmount))
			})

			It("rejects an unknown payment method", func() {
				mockRepo.obligations[1] = newObligation(1, obligation.StatusPendiente, dueDate)
				dto := submitDTO(1)
				dto.Method = "CHEQUE"

				_, err := service.Submit(context.Background(), cliente, dto)

				Expect(err).To(HaveOccurred())
			})
		})
	})

	Describe("Validate", func() {
		submit := func(paymentDate time.Time) *payment.Payment {
			mockRepo.obligations[1] = newObligation(1, obligation.StatusPendiente, dueDate)
			dto := submitDTO(1)
			dto.PaymentDate = paymentDate
			p, err := service.Submit(context.Background(), cliente, dto)
			Expect(err).ToNot(HaveOccurred())
			bus.events = nil
			audit.calls = nil
			return p
		}

		It("resolves the obligation as PAGADA when paid before the due date", func() {
			p := submit(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

			validated, err := service.Validate(context.Background(), contador, p.ID, payment.ValidatePaymentDTO{})

			Expect(err).ToNot(HaveOccurred())
			Expect(validated.Status).To(Equal(payment.StatusValidated))
			Expect(*validated.ReviewerID).To(Equal(contador.ID))
			Expect(mockRepo.obligations[1].Status).To(Equal(obligation.StatusPagada))
		})

		It("treats payment on the due date itself as on time", func() {
			p := submit(time.Date(2024, 5, 5, 23, 30, 0, 0, time.UTC))

			_, err := service.Validate(context.Background(), contador, p.ID, payment.ValidatePaymentDTO{})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.obligations[1].Status).To(Equal(obligation.StatusPagada))
		})

		It("resolves the obligation as PAGADA_CON_RETRASO when paid after the due date", func() {
			p := submit(time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))

			_, err := service.Validate(context.Background(), contador, p.ID, payment.ValidatePaymentDTO{})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.obligations[1].Status).To(Equal(obligation.StatusPagadaConRetraso))
		})

		It("publishes the validated and resolved events in order", func() {
			p := submit(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

			_, err := service.Validate(context.Background(), contador, p.ID, payment.ValidatePaymentDTO{})

			Expect(err).ToNot(HaveOccurred())
			Expect(bus.eventTypes()).To(Equal([]string{
				events.EventTypePaymentValidated,
				events.EventTypeObligationResolved,
			}))
		})

		It("keeps the optional reviewer comment", func() {
			p := submit(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

			validated, err := service.Validate(context.Background(), contador, p.ID,
				payment.ValidatePaymentDTO{Comment: "monto verificado contra el banco"})

			Expect(err).ToNot(HaveOccurred())
			Expect(validated.ReviewerComment).To(Equal("monto verificado contra el banco"))
		})

		It("refuses to validate a payment that is not pending", func() {
			p := submit(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
			_, err := service.Validate(context.Background(), contador, p.ID, payment.ValidatePaymentDTO{})
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Validate(context.Background(), contador, p.ID, payment.ValidatePaymentDTO{})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodePaymentNotPending))
			Expect(appErr.Details).To(HaveKeyWithValue("current_status", payment.StatusValidated))
		})
	})

	Describe("Reject", func() {
		submit := func() *payment.Payment {
			mockRepo.obligations[1] = newObligation(1, obligation.StatusPendiente, dueDate)
			p, err := service.Submit(context.Background(), cliente, submitDTO(1))
			Expect(err).ToNot(HaveOccurred())
			bus.events = nil
			audit.calls = nil
			return p
		}

		It("requires a reason", func() {
			p := submit()

			_, err := service.Reject(context.Background(), contador, p.ID, payment.RejectPaymentDTO{})

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeMissingReason))
			Expect(mockRepo.payments[p.ID].Status).To(Equal(payment.StatusPendingValidation))
		})

		It("returns the obligation to PENDIENTE when the due date has not passed", func() {
			p := submit()

			rejected, err := service.Reject(context.Background(), contador, p.ID,
				payment.RejectPaymentDTO{Reason: "comprobante ilegible"})

			Expect(err).ToNot(HaveOccurred())
			Expect(rejected.Status).To(Equal(payment.StatusRejected))
			Expect(rejected.ReviewerComment).To(Equal("comprobante ilegible"))
			Expect(mockRepo.obligations[1].Status).To(Equal(obligation.StatusPendiente))
		})

		It("returns the obligation to VENCIDA when the due date has passed", func() {
			p := submit()
			lateNow := time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC)
			service.WithClock(func() time.Time { return lateNow })

			_, err := service.Reject(context.Background(), contador, p.ID,
				payment.RejectPaymentDTO{Reason: "monto no coincide"})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.obligations[1].Status).To(Equal(obligation.StatusVencida))
		})

		It("never leaves the obligation stuck on POR_VALIDAR", func() {
			p := submit()

			_, err := service.Reject(context.Background(), contador, p.ID,
				payment.RejectPaymentDTO{Reason: "voucher de otra obligación"})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.obligations[1].Status).ToNot(Equal(obligation.StatusPorValidar))
		})

		It("allows a fresh submission after a rejection", func() {
			p := submit()
			_, err := service.Reject(context.Background(), contador, p.ID,
				payment.RejectPaymentDTO{Reason: "comprobante ilegible"})
			Expect(err).ToNot(HaveOccurred())

			p2, err := service.Submit(context.Background(), cliente, submitDTO(1))

			Expect(err).ToNot(HaveOccurred())
			Expect(p2.ID).ToNot(Equal(p.ID))
			Expect(mockRepo.obligations[1].Status).To(Equal(obligation.StatusPorValidar))
		})

		It("publishes a payment rejected event", func() {
			p := submit()

			_, err := service.Reject(context.Background(), contador, p.ID,
				payment.RejectPaymentDTO{Reason: "comprobante ilegible"})

			Expect(err).ToNot(HaveOccurred())
			Expect(bus.eventTypes()).To(Equal([]string{events.EventTypePaymentRejected}))
		})
	})

	Describe("GetByID", func() {
		It("reports a missing payment as not found", func() {
			_, err := service.GetByID(99)

			Expect(err).To(MatchError(payment.ErrPaymentNotFound))
		})

		It("surfaces database failures as internal errors, not as not found", func() {
			mockRepo.getError = errors.New("connection reset")

			_, err := service.GetByID(99)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Type).To(Equal(internal.ErrorTypeInternal))
		})
	})
})
