package handler

import (
	"context"
	"net/http"

	"github.com/iho/paymentsengine/internal/adapter/http/dto"
	"github.com/iho/paymentsengine/internal/domain"
	"github.com/iho/paymentsengine/internal/usecase"
)

// EventProcessor defines the processor operations used by EventHandler.
type EventProcessor interface {
	Apply(ctx context.Context, event domain.Event) (*usecase.Outcome, error)
	ApplyBatch(ctx context.Context, events []domain.Event) ([]*usecase.Outcome, error)
}

// EventHandler accepts ledger events over HTTP.
type EventHandler struct {
	processor EventProcessor
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(processor EventProcessor) *EventHandler {
	return &EventHandler{processor: processor}
}

// Submit applies one event. Accepted events answer 201, rejected ones 422
// with the rejection reason.
func (h *EventHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req dto.EventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	event, err := req.ToDomain()
	if err != nil {
		writeRequestError(w, err)
		return
	}

	outcome, err := h.processor.Apply(r.Context(), event)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to apply event", err.Error())
		return
	}

	status := http.StatusCreated
	if !outcome.Accepted {
		status = mapDomainError(outcome.Reason)
	}
	writeJSON(w, status, dto.OutcomeFromUseCase(outcome))
}

// SubmitBatch applies events in order and reports every outcome.
// A store failure aborts the batch; events before it stay applied.
func (h *EventHandler) SubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req dto.BatchEventRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeRequestError(w, err)
		return
	}

	events, err := req.ToDomain()
	if err != nil {
		writeRequestError(w, err)
		return
	}

	outcomes, err := h.processor.ApplyBatch(r.Context(), events)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to apply batch", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.BatchFromUseCase(outcomes))
}
