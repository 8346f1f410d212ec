package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventTypeObligationCreated  = "obligation.created"
	EventTypeObligationDueSoon  = "obligation.due_soon"
	EventTypeObligationOverdue  = "obligation.overdue"
	EventTypeObligationResolved = "obligation.resolved"

	EventTypePaymentSubmitted = "payment.submitted"
	EventTypePaymentValidated = "payment.validated"
	EventTypePaymentRejected  = "payment.rejected"

	EventTypeDeclarationInProgress = "declaration.in_progress"
	EventTypeDeclarationDueSoon    = "declaration.due_soon"
	EventTypeDeclarationOverdue    = "declaration.overdue"
	EventTypeDeclarationCompleted  = "declaration.completed"
)

type ObligationEvent struct {
	BaseEvent
	ObligationID int64           `json:"obligation_id"`
	ClientID     int64           `json:"client_id"`
	AccountantID int64           `json:"accountant_id"`
	Amount       decimal.Decimal `json:"amount"`
	DueDate      time.Time       `json:"due_date"`
	Status       string          `json:"status"`
}

func newObligationEvent(id, eventType string, obligationID, clientID, accountantID int64, amount decimal.Decimal, dueDate time.Time, status string) *ObligationEvent {
	return &ObligationEvent{
		BaseEvent: BaseEvent{
			ID:        id,
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"obligation_id": obligationID,
				"client_id":     clientID,
				"accountant_id": accountantID,
				"amount":        amount.String(),
				"due_date":      dueDate,
				"status":        status,
			},
		},
		ObligationID: obligationID,
		ClientID:     clientID,
		AccountantID: accountantID,
		Amount:       amount,
		DueDate:      dueDate,
		Status:       status,
	}
}

func NewObligationCreatedEvent(obligationID, clientID, accountantID int64, amount decimal.Decimal, dueDate time.Time) *ObligationEvent {
	return newObligationEvent(uuid.New().String(), EventTypeObligationCreated,
		obligationID, clientID, accountantID, amount, dueDate, "")
}

// NewObligationOverdueEvent carries a deterministic event id: an obligation
// crosses into VENCIDA at most once, and replayed sweeps must dedupe to the
// same alert.
func NewObligationOverdueEvent(obligationID, clientID, accountantID int64, amount decimal.Decimal, dueDate time.Time) *ObligationEvent {
	id := fmt.Sprintf("obligation:%d:vencida", obligationID)
	return newObligationEvent(id, EventTypeObligationOverdue,
		obligationID, clientID, accountantID, amount, dueDate, "")
}

// NewObligationDueSoonEvent fires daily while the obligation sits inside the
// lead-time window; the deterministic id collapses those repeats downstream.
func NewObligationDueSoonEvent(obligationID, clientID, accountantID int64, amount decimal.Decimal, dueDate time.Time) *ObligationEvent {
	id := fmt.Sprintf("obligation:%d:por-vencer", obligationID)
	return newObligationEvent(id, EventTypeObligationDueSoon,
		obligationID, clientID, accountantID, amount, dueDate, "")
}

func NewObligationResolvedEvent(obligationID, clientID, accountantID int64, amount decimal.Decimal, dueDate time.Time, status string) *ObligationEvent {
	return newObligationEvent(uuid.New().String(), EventTypeObligationResolved,
		obligationID, clientID, accountantID, amount, dueDate, status)
}

type PaymentEvent struct {
	BaseEvent
	PaymentID    int64           `json:"payment_id"`
	ObligationID int64           `json:"obligation_id"`
	ClientID     int64           `json:"client_id"`
	AccountantID int64           `json:"accountant_id"`
	Amount       decimal.Decimal `json:"amount"`
	Reason       string          `json:"reason,omitempty"`
}

func newPaymentEvent(eventType string, paymentID, obligationID, clientID, accountantID int64, amount decimal.Decimal, reason string) *PaymentEvent {
	return &PaymentEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"payment_id":    paymentID,
				"obligation_id": obligationID,
				"client_id":     clientID,
				"accountant_id": accountantID,
				"amount":        amount.String(),
				"reason":        reason,
			},
		},
		PaymentID:    paymentID,
		ObligationID: obligationID,
		ClientID:     clientID,
		AccountantID: accountantID,
		Amount:       amount,
		Reason:       reason,
	}
}

func NewPaymentSubmittedEvent(paymentID, obligationID, clientID, accountantID int64, amount decimal.Decimal) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentSubmitted, paymentID, obligationID, clientID, accountantID, amount, "")
}

func NewPaymentValidatedEvent(paymentID, obligationID, clientID, accountantID int64, amount decimal.Decimal) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentValidated, paymentID, obligationID, clientID, accountantID, amount, "")
}

func NewPaymentRejectedEvent(paymentID, obligationID, clientID, accountantID int64, amount decimal.Decimal, reason string) *PaymentEvent {
	return newPaymentEvent(EventTypePaymentRejected, paymentID, obligationID, clientID, accountantID, amount, reason)
}

type DeclarationEvent struct {
	BaseEvent
	DeclarationID int64     `json:"declaration_id"`
	ClientID      int64     `json:"client_id"`
	AccountantID  int64     `json:"accountant_id"`
	Period        string    `json:"period"`
	DueDate       time.Time `json:"due_date"`
}

func newDeclarationEvent(id, eventType string, declarationID, clientID, accountantID int64, period string, dueDate time.Time) *DeclarationEvent {
	return &DeclarationEvent{
		BaseEvent: BaseEvent{
			ID:        id,
			Type:      eventType,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"declaration_id": declarationID,
				"client_id":      clientID,
				"accountant_id":  accountantID,
				"period":         period,
				"due_date":       dueDate,
			},
		},
		DeclarationID: declarationID,
		ClientID:      clientID,
		AccountantID:  accountantID,
		Period:        period,
		DueDate:       dueDate,
	}
}

func NewDeclarationInProgressEvent(declarationID, clientID, accountantID int64, period string, dueDate time.Time) *DeclarationEvent {
	return newDeclarationEvent(uuid.New().String(), EventTypeDeclarationInProgress,
		declarationID, clientID, accountantID, period, dueDate)
}

func NewDeclarationDueSoonEvent(declarationID, clientID, accountantID int64, period string, dueDate time.Time) *DeclarationEvent {
	id := fmt.Sprintf("declaration:%d:por-vencer", declarationID)
	return newDeclarationEvent(id, EventTypeDeclarationDueSoon,
		declarationID, clientID, accountantID, period, dueDate)
}

func NewDeclarationOverdueEvent(declarationID, clientID, accountantID int64, period string, dueDate time.Time) *DeclarationEvent {
	id := fmt.Sprintf("declaration:%d:vencida", declarationID)
	return newDeclarationEvent(id, EventTypeDeclarationOverdue,
		declarationID, clientID, accountantID, period, dueDate)
}

func NewDeclarationCompletedEvent(declarationID, clientID, accountantID int64, period string, dueDate time.Time) *DeclarationEvent {
	return newDeclarationEvent(uuid.New().String(), EventTypeDeclarationCompleted,
		declarationID, clientID, accountantID, period, dueDate)
}
