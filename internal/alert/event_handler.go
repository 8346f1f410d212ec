package alert

import (
	"context"
	"log/slog"

	"github.com/jvaldiviezo/contasys/internal/core/events"
)

// EventHandler wires the derivation engine into the event bus.
type EventHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewEventHandler(service *Service, logger *slog.Logger) *EventHandler {
	return &EventHandler{service: service, logger: logger}
}

func (h *EventHandler) Handle(ctx context.Context, event events.Event) error {
	if err := h.service.DeriveAndEmit(ctx, event); err != nil {
		h.logger.Error("alert derivation failed",
			"error", err,
			"event_type", event.EventType(),
			"event_id", event.EventID())
		return err
	}
	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	handled := []string{
		events.EventTypeObligationCreated,
		events.EventTypeObligationDueSoon,
		events.EventTypeObligationOverdue,
		events.EventTypeObligationResolved,
		events.EventTypePaymentSubmitted,
		events.EventTypePaymentValidated,
		events.EventTypePaymentRejected,
		events.EventTypeDeclarationInProgress,
		events.EventTypeDeclarationDueSoon,
		events.EventTypeDeclarationOverdue,
		events.EventTypeDeclarationCompleted,
	}
	for _, eventType := range handled {
		eventBus.Subscribe(eventType, h.Handle)
	}

	h.logger.Info("alert event handlers registered", "handlers", handled)
}
