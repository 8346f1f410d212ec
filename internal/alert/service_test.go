package alert_test

import (
	"context"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/shopspring/decimal"

	"github.com/jvaldiviezo/contasys/internal"
	"github.com/jvaldiviezo/contasys/internal/alert"
	"github.com/jvaldiviezo/contasys/internal/bitacora"
	"github.com/jvaldiviezo/contasys/internal/core/events"
)

// Mock repository backed by a map. ExistsForEvent scans stored alerts, so
// dedupe behaves the way the unique index does in postgres.
type mockAlertRepository struct {
	alerts map[int64]*alert.Alert
	nextID int64

	createError error
	getError    error
	existsError error
	updateError error
	countError  error
}

func newMockAlertRepository() *mockAlertRepository {
	return &mockAlertRepository{
		alerts: make(map[int64]*alert.Alert),
		nextID: 1,
	}
}

func (m *mockAlertRepository) Create(a *alert.Alert) error {
	if m.createError != nil {
		return m.createError
	}
	a.ID = m.nextID
	m.nextID++
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *mockAlertRepository) GetByID(id int64) (*alert.Alert, error) {
	if m.getError != nil {
		return nil, m.getError
	}
	a, ok := m.alerts[id]
	if !ok {
		return nil, alert.ErrAlertNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAlertRepository) ExistsForEvent(eventID, tipo string) (bool, error) {
	if m.existsError != nil {
		return false, m.existsError
	}
	for _, a := range m.alerts {
		if a.EventID == eventID && a.Tipo == tipo {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockAlertRepository) UpdateStatus(id int64, status string) error {
	if m.updateError != nil {
		return m.updateError
	}
	if a, ok := m.alerts[id]; ok {
		a.Status = status
	}
	return nil
}

func (m *mockAlertRepository) ListByStatus(accountantID int64, status string, now time.Time, limit, offset int) ([]*alert.Alert, error) {
	result := make([]*alert.Alert, 0)
	for _, a := range m.alerts {
		if a.AccountantID != accountantID || a.Status != status || a.Expired(now) {
			continue
		}
		cp := *a
		result = append(result, &cp)
	}
	return result, nil
}

func (m *mockAlertRepository) CountByStatus(accountantID int64, now time.Time) (map[string]int64, error) {
	if m.countError != nil {
		return nil, m.countError
	}
	counts := make(map[string]int64)
	for _, a := range m.alerts {
		if a.AccountantID != accountantID || a.Expired(now) {
			continue
		}
		counts[a.Status]++
	}
	return counts, nil
}

func (m *mockAlertRepository) CountByTipo(accountantID int64, now time.Time) (map[string]int64, error) {
	if m.countError != nil {
		return nil, m.countError
	}
	counts := make(map[string]int64)
	for _, a := range m.alerts {
		if a.AccountantID != accountantID || a.Expired(now) {
			continue
		}
		counts[a.Tipo]++
	}
	return counts, nil
}

func (m *mockAlertRepository) single() *alert.Alert {
	for _, a := range m.alerts {
		return a
	}
	return nil
}

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

var _ = Describe("AlertService", func() {
	var (
		service  *alert.Service
		mockRepo *mockAlertRepository
		audit    *mockAuditRecorder
		logger   *slog.Logger

		contador internal.Actor
		now      time.Time
	)

	const accountantID = int64(3)

	BeforeEach(func() {
		mockRepo = newMockAlertRepository()
		audit = &mockAuditRecorder{}
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

		var err error
		now, err = time.Parse(time.RFC3339, "2024-05-03T10:00:00Z")
		Expect(err).ToNot(HaveOccurred())

		service = alert.NewService(mockRepo, audit, logger).WithClock(func() time.Time { return now })

		contador = internal.Actor{ID: accountantID, Username: "mvaldiviezo", FullName: "María Valdiviezo", Role: internal.RoleContador}
	})

	dueDate := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	amount := decimal.NewFromInt(50)

	Describe("DeriveAndEmit", func() {
		It("derives an active alert from an obligation created event", func() {
			event := events.NewObligationCreatedEvent(11, 7, accountantID, amount, dueDate)

			err := service.DeriveAndEmit(context.Background(), event)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.alerts).To(HaveLen(1))

			a := mockRepo.single()
			Expect(a.Tipo).To(Equal(alert.TipoNuevaObligacion))
			Expect(a.Status).To(Equal(alert.StatusActive))
			Expect(a.AccountantID).To(Equal(accountantID))
			Expect(a.EventID).To(Equal(event.EventID()))
			Expect(a.ExpiresAt).To(BeNil())
			Expect(a.Description).To(ContainSubstring("2024-05-10"))
		})

		It("stamps due-soon alerts with the due date as expiry", func() {
			event := events.NewObligationDueSoonEvent(11, 7, accountantID, amount, dueDate)

			err := service.DeriveAndEmit(context.Background(), event)

			Expect(err).ToNot(HaveOccurred())
			a := mockRepo.single()
			Expect(a.Tipo).To(Equal(alert.TipoObligacionPorVencer))
			Expect(a.ExpiresAt).ToNot(BeNil())
			Expect(a.ExpiresAt.Equal(dueDate)).To(BeTrue())
		})

		It("derives a rejection alert carrying the reviewer reason", func() {
			event := events.NewPaymentRejectedEvent(21, 11, 7, accountantID, amount, "monto no coincide")

			err := service.DeriveAndEmit(context.Background(), event)

			Expect(err).ToNot(HaveOccurred())
			a := mockRepo.single()
			Expect(a.Tipo).To(Equal(alert.TipoPagoRechazado))
			Expect(a.Description).To(ContainSubstring("monto no coincide"))
		})

		It("derives declaration alerts per event type", func() {
			Expect(service.DeriveAndEmit(context.Background(),
				events.NewDeclarationOverdueEvent(5, 7, accountantID, "2024-04", dueDate))).To(Succeed())
			Expect(service.DeriveAndEmit(context.Background(),
				events.NewDeclarationCompletedEvent(5, 7, accountantID, "2024-04", dueDate))).To(Succeed())

			tipos := make([]string, 0, len(mockRepo.alerts))
			for _, a := range mockRepo.alerts {
				tipos = append(tipos, a.Tipo)
			}
			Expect(tipos).To(ConsistOf(alert.TipoDeclaracionVencida, alert.TipoDeclaracionCompletada))
		})

		It("is idempotent when the same event is replayed", func() {
			event := events.NewObligationOverdueEvent(11, 7, accountantID, amount, dueDate)

			Expect(service.DeriveAndEmit(context.Background(), event)).To(Succeed())
			Expect(service.DeriveAndEmit(context.Background(), event)).To(Succeed())

			Expect(mockRepo.alerts).To(HaveLen(1))
		})

		It("collapses repeated due-soon sweeps through their deterministic ids", func() {
			first := events.NewObligationDueSoonEvent(11, 7, accountantID, amount, dueDate)
			second := events.NewObligationDueSoonEvent(11, 7, accountantID, amount, dueDate)

			Expect(service.DeriveAndEmit(context.Background(), first)).To(Succeed())
			Expect(service.DeriveAndEmit(context.Background(), second)).To(Succeed())

			Expect(mockRepo.alerts).To(HaveLen(1))
		})

		It("audits the derivation as the system actor", func() {
			event := events.NewPaymentSubmittedEvent(21, 11, 7, accountantID, amount)

			Expect(service.DeriveAndEmit(context.Background(), event)).To(Succeed())

			Expect(audit.calls).To(HaveLen(1))
			Expect(audit.calls[0].Actor.Username).To(Equal("system"))
			Expect(audit.calls[0].Module).To(Equal(bitacora.ModuleAlert))
			Expect(audit.calls[0].Action).To(Equal(bitacora.ActionNotifyAccountant))
		})

		It("ignores events that do not carry an alert", func() {
			event := events.BaseEvent{ID: "heartbeat:1", Type: "system.heartbeat", Timestamp: now}

			err := service.DeriveAndEmit(context.Background(), event)

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.alerts).To(BeEmpty())
			Expect(audit.calls).To(BeEmpty())
		})
	})

	Describe("MarkSeen", func() {
		BeforeEach(func() {
			mockRepo.alerts[1] = &alert.Alert{ID: 1, AccountantID: accountantID, Tipo: alert.TipoPagoPorValidar, Status: alert.StatusActive}
			mockRepo.nextID = 2
		})

		It("advances an active alert to SEEN", func() {
			a, err := service.MarkSeen(context.Background(), contador, 1)

			Expect(err).ToNot(HaveOccurred())
			Expect(a.Status).To(Equal(alert.StatusSeen))
			Expect(mockRepo.alerts[1].Status).To(Equal(alert.StatusSeen))
			Expect(audit.calls).To(HaveLen(1))
			Expect(audit.calls[0].Action).To(Equal(bitacora.ActionUpdate))
		})

		It("rejects marking a SEEN alert again", func() {
			mockRepo.alerts[1].Status = alert.StatusSeen

			_, err := service.MarkSeen(context.Background(), contador, 1)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeAlertNotActive))
			Expect(appErr.Details).To(HaveKeyWithValue("current_status", alert.StatusSeen))
		})

		It("rejects marking a resolved alert", func() {
			mockRepo.alerts[1].Status = alert.StatusResolved

			_, err := service.MarkSeen(context.Background(), contador, 1)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeAlertNotActive))
		})

		It("returns not found for an unknown alert", func() {
			_, err := service.MarkSeen(context.Background(), contador, 99)

			Expect(err).To(MatchError(alert.ErrAlertNotFound))
		})
	})

	Describe("Resolve", func() {
		BeforeEach(func() {
			mockRepo.alerts[1] = &alert.Alert{ID: 1, AccountantID: accountantID, Tipo: alert.TipoObligacionVencida, Status: alert.StatusActive}
			mockRepo.nextID = 2
		})

		It("resolves directly from ACTIVE", func() {
			a, err := service.Resolve(context.Background(), contador, 1)

			Expect(err).ToNot(HaveOccurred())
			Expect(a.Status).To(Equal(alert.StatusResolved))
		})

		It("resolves from SEEN", func() {
			mockRepo.alerts[1].Status = alert.StatusSeen

			a, err := service.Resolve(context.Background(), contador, 1)

			Expect(err).ToNot(HaveOccurred())
			Expect(a.Status).To(Equal(alert.StatusResolved))
		})

		It("rejects resolving twice", func() {
			_, err := service.Resolve(context.Background(), contador, 1)
			Expect(err).ToNot(HaveOccurred())

			_, err = service.Resolve(context.Background(), contador, 1)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeAlertAlreadyResolved))
			Expect(appErr.Details).To(HaveKeyWithValue("current_status", alert.StatusResolved))
		})
	})

	Describe("ListByStatus", func() {
		BeforeEach(func() {
			expired := now.Add(-time.Hour)
			mockRepo.alerts[1] = &alert.Alert{ID: 1, AccountantID: accountantID, Tipo: alert.TipoPagoPorValidar, Status: alert.StatusActive}
			mockRepo.alerts[2] = &alert.Alert{ID: 2, AccountantID: accountantID, Tipo: alert.TipoObligacionPorVencer, Status: alert.StatusActive, ExpiresAt: &expired}
			mockRepo.alerts[3] = &alert.Alert{ID: 3, AccountantID: 99, Tipo: alert.TipoPagoPorValidar, Status: alert.StatusActive}
			mockRepo.nextID = 4
		})

		It("returns only the accountant's non-expired alerts in the requested status", func() {
			list, err := service.ListByStatus(accountantID, alert.StatusActive, 20, 0)

			Expect(err).ToNot(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].ID).To(Equal(int64(1)))
		})

		It("rejects an unknown status", func() {
			_, err := service.ListByStatus(accountantID, "DISMISSED", 20, 0)

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})

	Describe("ListMetrics", func() {
		It("aggregates counts by status and tipo, skipping expired alerts", func() {
			expired := now.Add(-time.Hour)
			mockRepo.alerts[1] = &alert.Alert{ID: 1, AccountantID: accountantID, Tipo: alert.TipoPagoPorValidar, Status: alert.StatusActive}
			mockRepo.alerts[2] = &alert.Alert{ID: 2, AccountantID: accountantID, Tipo: alert.TipoPagoRechazado, Status: alert.StatusSeen}
			mockRepo.alerts[3] = &alert.Alert{ID: 3, AccountantID: accountantID, Tipo: alert.TipoObligacionResuelta, Status: alert.StatusResolved}
			mockRepo.alerts[4] = &alert.Alert{ID: 4, AccountantID: accountantID, Tipo: alert.TipoObligacionPorVencer, Status: alert.StatusActive, ExpiresAt: &expired}
			mockRepo.nextID = 5

			metrics, err := service.ListMetrics(accountantID)

			Expect(err).ToNot(HaveOccurred())
			Expect(metrics.Active).To(Equal(int64(1)))
			Expect(metrics.Seen).To(Equal(int64(1)))
			Expect(metrics.Resolved).To(Equal(int64(1)))
			Expect(metrics.ByTipo).To(HaveKeyWithValue(alert.TipoPagoPorValidar, int64(1)))
			Expect(metrics.ByTipo).ToNot(HaveKey(alert.TipoObligacionPorVencer))
		})
	})
})
