package dto

import (
	"github.com/shopspring/decimal"

	"github.com/iho/paymentsengine/internal/domain"
)

// EventRequest is one ledger event. Amount is only meaningful for
// deposits and withdrawals; its sign and presence are checked by the processor.
type EventRequest struct {
	Type   string           `json:"type" validate:"required,event_type"`
	Client *uint16          `json:"client" validate:"required"`
	Tx     *uint32          `json:"tx" validate:"required"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// ToDomain converts a validated request to a domain event.
func (r *EventRequest) ToDomain() (domain.Event, error) {
	kind, err := domain.ParseEventKind(r.Type)
	if err != nil {
		return domain.Event{}, err
	}

	event := domain.Event{Kind: kind}
	if r.Client != nil {
		event.CustomerID = domain.CustomerID(*r.Client)
	}
	if r.Tx != nil {
		event.TransactionID = domain.TransactionID(*r.Tx)
	}
	if r.Amount != nil {
		amount := *r.Amount
		event.Amount = &amount
	}
	return event, nil
}

// BatchEventRequest carries events applied in order.
type BatchEventRequest struct {
	Events []EventRequest `json:"events" validate:"required,min=1,max=1000,dive"`
}

// ToDomain converts every event in the batch.
func (r *BatchEventRequest) ToDomain() ([]domain.Event, error) {
	events := make([]domain.Event, len(r.Events))
	for i := range r.Events {
		event, err := r.Events[i].ToDomain()
		if err != nil {
			return nil, err
		}
		events[i] = event
	}
	return events, nil
}
