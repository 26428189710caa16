package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/paymentsengine/internal/adapter/http/dto"
	"github.com/iho/paymentsengine/internal/domain"
	"github.com/iho/paymentsengine/internal/usecase"
)

type eventProcessorStub struct {
	applyFn      func(ctx context.Context, event domain.Event) (*usecase.Outcome, error)
	applyBatchFn func(ctx context.Context, events []domain.Event) ([]*usecase.Outcome, error)
}

func (s *eventProcessorStub) Apply(ctx context.Context, event domain.Event) (*usecase.Outcome, error) {
	return s.applyFn(ctx, event)
}

func (s *eventProcessorStub) ApplyBatch(ctx context.Context, events []domain.Event) ([]*usecase.Outcome, error) {
	return s.applyBatchFn(ctx, events)
}

func postJSON(target, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestEventHandler_Submit_Accepted(t *testing.T) {
	var captured domain.Event
	handler := NewEventHandler(&eventProcessorStub{
		applyFn: func(ctx context.Context, event domain.Event) (*usecase.Outcome, error) {
			captured = event
			account := domain.NewAccount(event.CustomerID)
			account.ApplyDeposit(*event.Amount)
			return &usecase.Outcome{ID: "01H", Event: event, Accepted: true, Account: account}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Submit(rec, postJSON("/api/v1/events", `{"type":"deposit","client":1,"tx":7,"amount":"1.5"}`))

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Kind != domain.EventKindDeposit || captured.CustomerID != 1 || captured.TransactionID != 7 {
		t.Fatalf("unexpected event passed to processor: %+v", captured)
	}

	var resp dto.OutcomeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Accepted || resp.Account == nil || !resp.Account.Available.Equal(decimal.RequireFromString("1.5")) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestEventHandler_Submit_Rejected(t *testing.T) {
	handler := NewEventHandler(&eventProcessorStub{
		applyFn: func(ctx context.Context, event domain.Event) (*usecase.Outcome, error) {
			return &usecase.Outcome{ID: "01H", Event: event, Reason: domain.ErrInsufficientFunds}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.Submit(rec, postJSON("/api/v1/events", `{"type":"withdrawal","client":1,"tx":8,"amount":"100"}`))

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}

	var resp dto.OutcomeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Accepted || resp.Reason != "insufficient_funds" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestEventHandler_Submit_BadRequest(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `deposit,1,1,1.0`},
		{"missing tx", `{"type":"deposit","client":1,"amount":"1"}`},
		{"unknown type", `{"type":"refund","client":1,"tx":1}`},
		{"client out of range", `{"type":"deposit","client":70000,"tx":1,"amount":"1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewEventHandler(&eventProcessorStub{
				applyFn: func(ctx context.Context, event domain.Event) (*usecase.Outcome, error) {
					t.Fatalf("processor must not see invalid requests")
					return nil, nil
				},
			})

			rec := httptest.NewRecorder()
			handler.Submit(rec, postJSON("/api/v1/events", tt.body))

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
		})
	}
}

func TestEventHandler_Submit_StoreFailure(t *testing.T) {
	handler := NewEventHandler(&eventProcessorStub{
		applyFn: func(ctx context.Context, event domain.Event) (*usecase.Outcome, error) {
			return nil, errors.New("connection reset")
		},
	})

	rec := httptest.NewRecorder()
	handler.Submit(rec, postJSON("/api/v1/events", `{"type":"dispute","client":1,"tx":1}`))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestEventHandler_Submit_ProcessorHalted(t *testing.T) {
	handler := NewEventHandler(&eventProcessorStub{
		applyFn: func(ctx context.Context, event domain.Event) (*usecase.Outcome, error) {
			return nil, fmt.Errorf("%w: connection reset", usecase.ErrProcessorHalted)
		},
	})

	rec := httptest.NewRecorder()
	handler.Submit(rec, postJSON("/api/v1/events", `{"type":"deposit","client":1,"tx":1,"amount":"1"}`))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestEventHandler_SubmitBatch(t *testing.T) {
	var got []domain.Event
	handler := NewEventHandler(&eventProcessorStub{
		applyBatchFn: func(ctx context.Context, events []domain.Event) ([]*usecase.Outcome, error) {
			got = events
			return []*usecase.Outcome{
				{Event: events[0], Accepted: true},
				{Event: events[1], Reason: domain.ErrUnknownTransaction},
			}, nil
		},
	})

	body := `{"events":[{"type":"deposit","client":1,"tx":1,"amount":"2"},{"type":"dispute","client":1,"tx":99}]}`
	rec := httptest.NewRecorder()
	handler.SubmitBatch(rec, postJSON("/api/v1/events/batch", body))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(got) != 2 || got[1].Kind != domain.EventKindDispute || got[1].TransactionID != 99 {
		t.Fatalf("events not passed in order: %+v", got)
	}

	var resp dto.BatchOutcomeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Accepted != 1 || resp.Rejected != 1 || resp.Outcomes[1].Reason != "unknown_transaction" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestEventHandler_SubmitBatch_Empty(t *testing.T) {
	handler := NewEventHandler(&eventProcessorStub{})

	rec := httptest.NewRecorder()
	handler.SubmitBatch(rec, postJSON("/api/v1/events/batch", `{"events":[]}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
