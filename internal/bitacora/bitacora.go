package bitacora

import (
	"time"

	"github.com/jvaldiviezo/contasys/internal"
	bitacoraDatamodel "github.com/jvaldiviezo/contasys/internal/core/datamodel/bitacora"
)

const (
	ModuleClient      = "CLIENT"
	ModuleAccountant  = "ACCOUNTANT"
	ModuleUser        = "USER"
	ModuleDeclaration = "DECLARATION"
	ModuleObligation  = "OBLIGATION"
	ModulePayment     = "PAYMENT"
	ModuleIncome      = "INCOME"
	ModuleExpense     = "EXPENSE"
	ModuleAlert       = "ALERT"
	ModuleAuth        = "AUTH"
)

const (
	ActionCreate             = "CREATE"
	ActionUpdate             = "UPDATE"
	ActionDelete             = "DELETE"
	ActionAssignAccountant   = "ASSIGN_ACCOUNTANT"
	ActionUnassignAccountant = "UNASSIGN_ACCOUNTANT"
	ActionLogin              = "LOGIN"
	ActionRegisterClient     = "REGISTER_CLIENT"
	ActionNotifyAccountant   = "NOTIFY_ACCOUNTANT"
	ActionMarkInProgress     = "MARK_IN_PROGRESS"
	ActionMarkDeclared       = "MARK_DECLARED"
	ActionUploadVoucher      = "UPLOAD_VOUCHER"
)

func ValidModule(module string) bool {
	switch module {
	case ModuleClient, ModuleAccountant, ModuleUser, ModuleDeclaration,
		ModuleObligation, ModulePayment, ModuleIncome, ModuleExpense,
		ModuleAlert, ModuleAuth:
		return true
	}
	return false
}

func ValidAction(action string) bool {
	switch action {
	case ActionCreate, ActionUpdate, ActionDelete, ActionAssignAccountant,
		ActionUnassignAccountant, ActionLogin, ActionRegisterClient,
		ActionNotifyAccountant, ActionMarkInProgress, ActionMarkDeclared,
		ActionUploadVoucher:
		return true
	}
	return false
}

type Entry struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name"`
	Role        string    `json:"role"`
	Module      string    `json:"module"`
	Action      string    `json:"action"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

var ErrEntryNotFound = internal.NewNotFoundError("bitacora entry not found", "BITACORA_ENTRY_NOT_FOUND")

func ToDataModel(e *Entry) *bitacoraDatamodel.Entry {
	return &bitacoraDatamodel.Entry{
		ID:          e.ID,
		UserID:      e.UserID,
		Username:    e.Username,
		FullName:    e.FullName,
		Role:        e.Role,
		Module:      e.Module,
		Action:      e.Action,
		Description: e.Description,
		Timestamp:   e.Timestamp,
	}
}

func FromDataModel(e *bitacoraDatamodel.Entry) *Entry {
	return &Entry{
		ID:          e.ID,
		UserID:      e.UserID,
		Username:    e.Username,
		FullName:    e.FullName,
		Role:        e.Role,
		Module:      e.Module,
		Action:      e.Action,
		Description: e.Description,
		Timestamp:   e.Timestamp,
	}
}

func FromDataModelSlice(records []*bitacoraDatamodel.Entry) []*Entry {
	result := make([]*Entry, len(records))
	for i, record := range records {
		result[i] = FromDataModel(record)
	}
	return result
}
