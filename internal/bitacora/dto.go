package bitacora

import (
	"time"

	"github.com/jvaldiviezo/contasys/internal"
)

const (
	SortByTimestamp = "timestamp"
	SortByUsername  = "username"
	SortByModule    = "module"
	SortByAction    = "action"
)

// QueryDTO is the paginated bitácora query. DateFrom/DateTo are inclusive on
// the entry timestamp's date component.
type QueryDTO struct {
	UsernameContains string     `json:"username_contains,omitempty"`
	Module           string     `json:"module,omitempty"`
	Action           string     `json:"action,omitempty"`
	DateFrom         *time.Time `json:"date_from,omitempty"`
	DateTo           *time.Time `json:"date_to,omitempty"`
	Page             int        `json:"page"`
	Size             int        `json:"size"`
	SortBy           string     `json:"sort_by,omitempty"`
	SortDesc         bool       `json:"sort_desc,omitempty"`
}

func (q QueryDTO) Validate() error {
	if q.Page < 0 {
		return internal.NewValidationError("page must not be negative", internal.ErrCodeInvalidPage)
	}
	if q.Size <= 0 {
		return internal.NewValidationError("size must be greater than 0", internal.ErrCodeInvalidPage)
	}
	if q.SortBy != "" {
		switch q.SortBy {
		case SortByTimestamp, SortByUsername, SortByModule, SortByAction:
		default:
			return internal.NewValidationError("unknown sort key: "+q.SortBy, internal.ErrCodeInvalidSortKey)
		}
	}
	if q.Module != "" && !ValidModule(q.Module) {
		return internal.NewValidationError("unknown module: "+q.Module, internal.ErrCodeValidationFailed)
	}
	if q.Action != "" && !ValidAction(q.Action) {
		return internal.NewValidationError("unknown action: "+q.Action, internal.ErrCodeValidationFailed)
	}
	if q.DateFrom != nil && q.DateTo != nil && q.DateTo.Before(*q.DateFrom) {
		return internal.NewValidationError("date_to must not be before date_from", internal.ErrCodeInvalidDate)
	}
	return nil
}

// Page is the shape every paginated bitácora response uses.
type Page struct {
	Content          []*Entry `json:"content"`
	PageNumber       int      `json:"pageNumber"`
	PageSize         int      `json:"pageSize"`
	TotalElements    int64    `json:"totalElements"`
	TotalPages       int      `json:"totalPages"`
	IsFirst          bool     `json:"isFirst"`
	IsLast           bool     `json:"isLast"`
	NumberOfElements int      `json:"numberOfElements"`
}

func NewPage(content []*Entry, page, size int, total int64) Page {
	totalPages := int((total + int64(size) - 1) / int64(size))
	if totalPages == 0 {
		totalPages = 1
	}
	return Page{
		Content:          content,
		PageNumber:       page,
		PageSize:         size,
		TotalElements:    total,
		TotalPages:       totalPages,
		IsFirst:          page == 0,
		IsLast:           page >= totalPages-1,
		NumberOfElements: len(content),
	}
}
