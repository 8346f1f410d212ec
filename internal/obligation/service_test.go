package obligation_test

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
)

// Mock repository for testing
type mockObligationRepository struct {
	obligations map[int64]*obligation.Obligation
	nextID      int64

	createError error
	getError    error
	listError   error
	updateError error
}

func newMockObligationRepository() *mockObligationRepository {
	return &mockObligationRepository{
		obligations: make(map[int64]*obligation.Obligation),
		nextID:      1,
	}
}

func (m *mockObligationRepository) Create(o *obligation.Obligation) error {
	if m.createError != nil {
		return m.createError
	}
	o.ID = m.nextID
	m.nextID++
	co := *o
	m.obligations[o.ID] = &co
	return nil
}

func (m *mockObligationRepository) GetByID(id int64) (*obligation.Obligation, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	o, ok := m.obligations[id]
	if !ok {
		return nil, obligation.ErrObligationNotFound
	}
	co := *o
	return &co, nil
}

func (m *mockObligationRepository) List(filter obligation.ListFilter) ([]*obligation.Obligation, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	result := make([]*obligation.Obligation, 0)
	for _, o := range m.obligations {
		if filter.ClientID != 0 && o.ClientID != filter.ClientID {
			continue
		}
		if filter.AccountantID != 0 && o.AccountantID != filter.AccountantID {
			continue
		}
		if filter.Period != "" && o.Period != filter.Period {
			continue
		}
		if filter.MaxAmount != nil && o.Amount.GreaterThan(*filter.MaxAmount) {
			continue
		}
		co := *o
		result = append(result, &co)
	}
	return result, nil
}

func (m *mockObligationRepository) ListPendingDueBefore(asOf time.Time) ([]*obligation.Obligation, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	result := make([]*obligation.Obligation, 0)
	for _, o := range m.obligations {
		if o.Status == obligation.StatusPendiente && o.DueDate.Before(asOf) {
			co := *o
			result = append(result, &co)
		}
	}
	return result, nil
}

func (m *mockObligationRepository) ListPendingDueBetween(from, to time.Time) ([]*obligation.Obligation, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	result := make([]*obligation.Obligation, 0)
	for _, o := range m.obligations {
		if o.Status == obligation.StatusPendiente && !o.DueDate.Before(from) && !o.DueDate.After(to) {
			co := *o
			result = append(result, &co)
		}
	}
	return result, nil
}

func (m *mockObligationRepository) UpdateStatus(id int64, status string) error {
	if m.updateError != nil {
		return m.updateError
	}
	if o, ok := m.obligations[id]; ok {
		o.Status = status
	}
	return nil
}

type mockClientDirectory struct {
	accountants map[int64]int64
}

func (m *mockClientDirectory) AccountantForClient(clientID int64) (int64, error) {
	id, ok := m.accountants[clientID]
	if !ok {
		return 0, errors.New("client not found")
	}
	return id, nil
}

type mockPublisher struct {
	events []events.Event
}

func (m *mockPublisher) PublishSync(ctx context.Context, event events.Event) error {
	m.events = append(m.events, event)
	return nil
}

type mockAuditRecorder struct {
	modules []string
	actions []string
	actors  []internal.Actor
}

func (m *mockAuditRecorder) Record(ctx context.Context, actor internal.Actor, module, action, description string) {
	m.modules = append(m.modules, module)
	m.actions = append(m.actions, action)
	m.actors = append(m.actors, actor)
}

var _ = Describe("ObligationService", func() {
	var (
		service  *obligation.Service
		mockRepo *mockObligationRepository
		clients  *mockClientDirectory
		bus      *mockPublisher
		audit    *mockAuditRecorder
		logger   *slog.Logger

		contador internal.Actor
	)

	BeforeEach(func() {
		mockRepo = newMockObligationRepository()
		clients = &mockClientDirectory{accountants: map[int64]int64{7: 3}}
		bus = &mockPublisher{}
		audit = &mockAuditRecorder{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = obligation.NewService(mockRepo, clients, bus, audit, 7*24*time.Hour, logger)

		contador = internal.Actor{ID: 3, Username: "mvaldiviezo", FullName: "María Valdiviezo", Role: internal.RoleContador}
	})

	validDTO := func() obligation.CreateObligationDTO {
		return obligation.CreateObligationDTO{
			ClientID: 7,
			Tipo:     "CUOTA_NRUS",
			Period:   "2024-05",
			DueDate:  time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC),
			Amount:   decimal.NewFromInt(50),
		}
	}

	Describe("Create", func() {
		It("stores the obligation as PENDIENTE with the resolved accountant", func() {
			o, err := service.Create(context.Background(), contador, validDTO())

			Expect(err).ToNot(HaveOccurred())
			Expect(o.ID).To(BeNumerically(">", 0))
			Expect(o.Status).To(Equal(obligation.StatusPendiente))
			Expect(o.AccountantID).To(Equal(int64(3)))
		})

		It("publishes an obligation created event and audits the creation", func() {
			_, err := service.Create(context.Background(), contador, validDTO())

			Expect(err).ToNot(HaveOccurred())
			Expect(bus.events).To(HaveLen(1))
			Expect(bus.events[0].EventType()).To(Equal(events.EventTypeObligationCreated))
			Expect(audit.modules).To(Equal([]string{"OBLIGATION"}))
			Expect(audit.actions).To(Equal([]string{"CREATE"}))
		})

		It("rejects an unknown client", func() {
			dto := validDTO()
			dto.ClientID = 99

			_, err := service.Create(context.Background(), contador, dto)

			Expect(err).To(HaveOccurred())
			Expect(mockRepo.obligations).To(BeEmpty())
		})

		It("rejects a malformed period", func() {
			dto := validDTO()
			dto.Period = "05-2024"

			_, err := service.Create(context.Background(), contador, dto)

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidPeriod))
		})

		It("rejects a non-positive amount", func() {
			dto := validDTO()
			dto.Amount = decimal.NewFromInt(-10)

			_, err := service.Create(context.Background(), contador, dto)

			Expect(err).To(HaveOccurred())
			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidAmount))
		})

		Context("before the amount is calculated", func() {
			pendingDTO := func() obligation.CreateObligationDTO {
				dto := validDTO()
				dto.Amount = decimal.Zero
				dto.AmountPending = true
				return dto
			}

			It("stores the obligation as NO_DISPONIBLE", func() {
				o, err := service.Create(context.Background(), contador, pendingDTO())

				Expect(err).ToNot(HaveOccurred())
				Expect(o.Status).To(Equal(obligation.StatusNoDisponible))
				Expect(o.IsPayable()).To(BeFalse())
			})

			It("rejects a calculated amount alongside the pending flag", func() {
				dto := pendingDTO()
				dto.Amount = decimal.NewFromInt(50)

				_, err := service.Create(context.Background(), contador, dto)

				Expect(err).To(HaveOccurred())
				appErr, ok := internal.IsAppError(err)
				Expect(ok).To(BeTrue())
				Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidAmount))
			})

			It("is skipped by the due-date sweep", func() {
				o, err := service.Create(context.Background(), contador, pendingDTO())
				Expect(err).ToNot(HaveOccurred())

				n, err := service.SweepDueDates(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

				Expect(err).ToNot(HaveOccurred())
				Expect(n).To(Equal(0))
				Expect(mockRepo.obligations[o.ID].Status).To(Equal(obligation.StatusNoDisponible))
			})
		})
	})

	Describe("List", func() {
		BeforeEach(func() {
			for _, dto := range []obligation.CreateObligationDTO{
				{ClientID: 7, Tipo: "CUOTA_NRUS", Period: "2024-05", DueDate: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(50)},
				{ClientID: 7, Tipo: "CUOTA_NRUS", Period: "2024-06", DueDate: time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC), Amount: decimal.NewFromInt(20)},
			} {
				_, err := service.Create(context.Background(), contador, dto)
				Expect(err).ToNot(HaveOccurred())
			}
		})

		It("filters by period", func() {
			result, err := service.List(obligation.ListFilter{ClientID: 7, Period: "2024-05"})

			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(HaveLen(1))
			Expect(result[0].Period).To(Equal("2024-05"))
		})

		It("filters by maximum amount", func() {
			max := decimal.NewFromInt(30)
			result, err := service.List(obligation.ListFilter{ClientID: 7, MaxAmount: &max})

			Expect(err).ToNot(HaveOccurred())
			Expect(result).To(HaveLen(1))
			Expect(result[0].Amount.Equal(decimal.NewFromInt(20))).To(BeTrue())
		})

		It("rejects a malformed period filter", func() {
			_, err := service.List(obligation.ListFilter{Period: "garbage"})

			Expect(err).To(HaveOccurred())
		})
	})

	Describe("SweepDueDates", func() {
		create := func(due time.Time) *obligation.Obligation {
			dto := validDTO()
			dto.DueDate = due
			o, err := service.Create(context.Background(), contador, dto)
			Expect(err).ToNot(HaveOccurred())
			return o
		}

		It("marks obligations past their due date as VENCIDA", func() {
			o := create(time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC))
			bus.events = nil
			audit.modules = nil

			n, err := service.SweepDueDates(context.Background(), time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))

			Expect(err).ToNot(HaveOccurred())
			Expect(n).To(Equal(1))
			Expect(mockRepo.obligations[o.ID].Status).To(Equal(obligation.StatusVencida))
			Expect(bus.events[0].EventType()).To(Equal(events.EventTypeObligationOverdue))
		})

		It("attributes the transition to the system actor in the audit trail", func() {
			create(time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC))
			audit.actors = nil

			_, err := service.SweepDueDates(context.Background(), time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))

			Expect(err).ToNot(HaveOccurred())
			Expect(audit.actors).To(HaveLen(1))
			Expect(audit.actors[0].Username).To(Equal("system"))
		})

		It("emits due-soon warnings with deterministic event ids", func() {
			o := create(time.Date(2024, 5, 12, 0, 0, 0, 0, time.UTC))
			bus.events = nil

			_, err := service.SweepDueDates(context.Background(), time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))

			Expect(err).ToNot(HaveOccurred())
			Expect(bus.events).To(HaveLen(1))
			Expect(bus.events[0].EventType()).To(Equal(events.EventTypeObligationDueSoon))

			bus.events = nil
			_, err = service.SweepDueDates(context.Background(), time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))
			Expect(err).ToNot(HaveOccurred())
			Expect(bus.events[0].EventID()).To(Equal(events.NewObligationDueSoonEvent(o.ID, o.ClientID, o.AccountantID, o.Amount, o.DueDate).EventID()))
		})

		It("does not transition anything on a second run", func() {
			create(time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC))

			asOf := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
			n, err := service.SweepDueDates(context.Background(), asOf)
			Expect(err).ToNot(HaveOccurred())
			Expect(n).To(Equal(1))

			n, err = service.SweepDueDates(context.Background(), asOf)
			Expect(err).ToNot(HaveOccurred())
			Expect(n).To(Equal(0))
		})

		It("leaves POR_VALIDAR obligations untouched", func() {
			o := create(time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC))
			mockRepo.obligations[o.ID].Status = obligation.StatusPorValidar

			n, err := service.SweepDueDates(context.Background(), time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC))

			Expect(err).ToNot(HaveOccurred())
			Expect(n).To(Equal(0))
			Expect(mockRepo.obligations[o.ID].Status).To(Equal(obligation.StatusPorValidar))
		})
	})

	Describe("GetByID", func() {
		It("reports a missing obligation as not found", func() {
			_, err := service.GetByID(99)

			Expect(err).To(MatchError(obligation.ErrObligationNotFound))
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
