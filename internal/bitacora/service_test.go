package bitacora_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/jvaldiviezo/contasys/internal"
	"github.com/jvaldiviezo/contasys/internal/bitacora"
)

type mockBitacoraRepository struct {
	entries []*bitacora.Entry
	nextID  int64

	appendError error
	queryError  error

	lastQuery bitacora.QueryDTO
}

func newMockBitacoraRepository() *mockBitacoraRepository {
	return &mockBitacoraRepository{nextID: 1}
}

func (m *mockBitacoraRepository) Append(e *bitacora.Entry) error {
	if m.appendError != nil {
		return m.appendError
	}
	e.ID = m.nextID
	m.nextID++
	cp := *e
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *mockBitacoraRepository) Query(q bitacora.QueryDTO) ([]*bitacora.Entry, int64, error) {
	m.lastQuery = q
	if m.queryError != nil {
		return nil, 0, m.queryError
	}
	result := make([]*bitacora.Entry, 0)
	for _, e := range m.entries {
		if q.Module != "" && e.Module != q.Module {
			continue
		}
		cp := *e
		result = append(result, &cp)
	}
	total := int64(len(result))
	start := q.Page * q.Size
	if start > len(result) {
		start = len(result)
	}
	end := start + q.Size
	if end > len(result) {
		end = len(result)
	}
	return result[start:end], total, nil
}

var _ = Describe("BitacoraService", func() {
	var (
		service  *bitacora.Service
		mockRepo *mockBitacoraRepository
		logger   *slog.Logger

		contador internal.Actor
	)

	BeforeEach(func() {
		mockRepo = newMockBitacoraRepository()
		logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = bitacora.NewService(mockRepo, logger)

		contador = internal.Actor{ID: 3, Username: "mvaldiviezo", FullName: "María Valdiviezo", Role: internal.RoleContador}
	})

	Describe("Record", func() {
		It("appends an entry stamped with the actor's identity", func() {
			service.Record(context.Background(), contador, bitacora.ModuleObligation, bitacora.ActionCreate, "obligación 5 creada")

			Expect(mockRepo.entries).To(HaveLen(1))
			e := mockRepo.entries[0]
			Expect(e.UserID).To(Equal(int64(3)))
			Expect(e.Username).To(Equal("mvaldiviezo"))
			Expect(e.Role).To(Equal(internal.RoleContador))
			Expect(e.Module).To(Equal(bitacora.ModuleObligation))
			Expect(e.Action).To(Equal(bitacora.ActionCreate))
			Expect(e.Timestamp).ToNot(BeZero())
		})

		It("refuses an unknown module without appending", func() {
			service.Record(context.Background(), contador, "BILLING", bitacora.ActionCreate, "x")

			Expect(mockRepo.entries).To(BeEmpty())
		})

		It("refuses an unknown action without appending", func() {
			service.Record(context.Background(), contador, bitacora.ModulePayment, "APPROVE", "x")

			Expect(mockRepo.entries).To(BeEmpty())
		})

		It("swallows repository failures", func() {
			mockRepo.appendError = errors.New("connection reset")

			Expect(func() {
				service.Record(context.Background(), contador, bitacora.ModuleAuth, bitacora.ActionLogin, "x")
			}).ToNot(Panic())
			Expect(mockRepo.entries).To(BeEmpty())
		})
	})

	Describe("Query", func() {
		seed := func(n int, module string) {
			for i := 0; i < n; i++ {
				mockRepo.entries = append(mockRepo.entries, &bitacora.Entry{
					ID:        int64(i + 1),
					Username:  "mvaldiviezo",
					Module:    module,
					Action:    bitacora.ActionCreate,
					Timestamp: time.Date(2024, 5, 1+i, 12, 0, 0, 0, time.UTC),
				})
			}
		}

		It("defaults the sort to timestamp descending", func() {
			seed(3, bitacora.ModulePayment)

			_, err := service.Query(bitacora.QueryDTO{Page: 0, Size: 20})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.lastQuery.SortBy).To(Equal(bitacora.SortByTimestamp))
			Expect(mockRepo.lastQuery.SortDesc).To(BeTrue())
		})

		It("keeps an explicit sort untouched", func() {
			seed(1, bitacora.ModulePayment)

			_, err := service.Query(bitacora.QueryDTO{Page: 0, Size: 20, SortBy: bitacora.SortByUsername})

			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.lastQuery.SortBy).To(Equal(bitacora.SortByUsername))
			Expect(mockRepo.lastQuery.SortDesc).To(BeFalse())
		})

		It("builds the page envelope from the repository totals", func() {
			seed(5, bitacora.ModulePayment)

			page, err := service.Query(bitacora.QueryDTO{Page: 0, Size: 2})

			Expect(err).ToNot(HaveOccurred())
			Expect(page.TotalElements).To(Equal(int64(5)))
			Expect(page.TotalPages).To(Equal(3))
			Expect(page.NumberOfElements).To(Equal(2))
			Expect(page.IsFirst).To(BeTrue())
			Expect(page.IsLast).To(BeFalse())
		})

		It("marks the final page as last", func() {
			seed(5, bitacora.ModulePayment)

			page, err := service.Query(bitacora.QueryDTO{Page: 2, Size: 2})

			Expect(err).ToNot(HaveOccurred())
			Expect(page.IsFirst).To(BeFalse())
			Expect(page.IsLast).To(BeTrue())
			Expect(page.NumberOfElements).To(Equal(1))
		})

		It("rejects a non-positive size", func() {
			_, err := service.Query(bitacora.QueryDTO{Page: 0, Size: 0})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidPage))
		})

		It("rejects an unknown sort key", func() {
			_, err := service.Query(bitacora.QueryDTO{Page: 0, Size: 10, SortBy: "severity"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidSortKey))
		})

		It("rejects an inverted date range", func() {
			from := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
			to := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

			_, err := service.Query(bitacora.QueryDTO{Page: 0, Size: 10, DateFrom: &from, DateTo: &to})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeInvalidDate))
		})

		It("rejects an unknown module filter", func() {
			_, err := service.Query(bitacora.QueryDTO{Page: 0, Size: 10, Module: "BILLING"})

			appErr, ok := internal.IsAppError(err)
			Expect(ok).To(BeTrue())
			Expect(appErr.Code).To(Equal(internal.ErrCodeValidationFailed))
		})
	})
})
