package bitacora

import (
	"context"
	"log/slog"
	"time"

	"github.com/jvaldiviezo/contasys/internal"
)

// Repository defines the data access methods for bitácora entries. There is
// deliberately no update or delete.
type Repository interface {
	Append(e *Entry) error
	Query(q QueryDTO) ([]*Entry, int64, error)
}

type Service struct {
	repo   Repository
	logger *slog.Logger
}

func NewService(repo Repository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record appends one audit entry. A failed append is logged and swallowed:
// the business mutation it describes has already committed, and the audit
// trail must never roll it back.
func (s *Service) Record(ctx context.Context, actor internal.Actor, module, action, description string) {
	if !ValidModule(module) || !ValidAction(action) {
		s.logger.Error("refusing malformed audit entry",
			"module", module,
			"action", action,
			"user_id", actor.ID)
		return
	}

	entry := &Entry{
		UserID:      actor.ID,
		Username:    actor.Username,
		FullName:    actor.FullName,
		Role:        actor.Role,
		Module:      module,
		Action:      action,
		Description: description,
		Timestamp:   time.Now(),
	}

	if err := s.repo.Append(entry); err != nil {
		s.logger.Error("audit append failed",
			"error", err,
			"module", module,
			"action", action,
			"user_id", actor.ID)
		return
	}

	s.logger.Debug("audit entry recorded",
		"entry_id", entry.ID,
		"module", module,
		"action", action,
		"username", actor.Username)
}

// Query serves filtered, paginated, sorted views of the trail.
func (s *Service) Query(q QueryDTO) (Page, error) {
	if err := q.Validate(); err != nil {
		return Page{}, err
	}
	if q.SortBy == "" {
		q.SortBy = SortByTimestamp
		q.SortDesc = true
	}

	content, total, err := s.repo.Query(q)
	if err != nil {
		s.logger.Error("bitacora query failed", "error", err)
		return Page{}, err
	}

	return NewPage(content, q.Page, q.Size, total), nil
}
