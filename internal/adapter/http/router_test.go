package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/paymentsengine/internal/adapter/http/dto"
	"github.com/iho/paymentsengine/internal/adapter/http/handler"
	apimiddleware "github.com/iho/paymentsengine/internal/adapter/http/middleware"
	"github.com/iho/paymentsengine/internal/adapter/repository/memory"
	"github.com/iho/paymentsengine/internal/infrastructure/idgen"
	"github.com/iho/paymentsengine/internal/infrastructure/metrics"
	"github.com/iho/paymentsengine/internal/usecase"
)

func TestNewRouter_HealthEndpointAvailable(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected /health to return 200, got %d", rec.Code)
	}
}

func TestNewRouter_IdempotencyMiddlewareInvokesStore(t *testing.T) {
	store := &stubIdempotencyStore{}
	router := NewRouter(newRouterConfig(t, func(cfg *RouterConfig) {
		cfg.IdempotencyStore = store
	}))

	body := `{"type":"deposit","client":1,"tx":1,"amount":"1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/events/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apimiddleware.IdempotencyKeyHeader, "key-123")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if !store.checkCalled || !store.updateCalled {
		t.Fatalf("expected idempotency store to be used")
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestNewRouter_RegistersKeyRoutes(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	chiRoutes, ok := router.(chi.Router)
	if !ok {
		t.Fatal("router does not implement chi.Routes")
	}

	seen := map[string]bool{}
	if err := chi.Walk(chiRoutes, func(method string, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		seen[method+" "+route] = true
		return nil
	}); err != nil {
		t.Fatalf("walk failed: %v", err)
	}

	expected := []string{
		"GET /health",
		"GET /ready",
		"GET /metrics",
		"POST /api/v1/events/",
		"POST /api/v1/events/batch",
		"GET /api/v1/accounts/",
		"GET /api/v1/accounts/{customerID}",
		"GET /api/v1/accounts/{customerID}/transfers",
		"GET /api/v1/ledger/consistency",
	}

	for _, route := range expected {
		if !seen[route] {
			t.Fatalf("expected route %s to be registered", route)
		}
	}
}

func TestNewRouter_EventFlow(t *testing.T) {
	router := NewRouter(newRouterConfig(t))

	send := func(method, target, body string) *httptest.ResponseRecorder {
		t.Helper()
		var req *http.Request
		if body == "" {
			req = httptest.NewRequest(method, target, nil)
		} else {
			req = httptest.NewRequest(method, target, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	batch := `{"events":[
		{"type":"deposit","client":1,"tx":1,"amount":"10"},
		{"type":"withdrawal","client":1,"tx":2,"amount":"4"},
		{"type":"dispute","client":1,"tx":1},
		{"type":"withdrawal","client":1,"tx":3,"amount":"1"},
		{"type":"chargeback","client":1,"tx":1}
	]}`
	rec := send(http.MethodPost, "/api/v1/events/batch", batch)
	if rec.Code != http.StatusOK {
		t.Fatalf("batch: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var outcomes dto.BatchOutcomeResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &outcomes); err != nil {
		t.Fatalf("decode batch: %v", err)
	}
	if outcomes.Accepted != 4 || outcomes.Rejected != 1 || outcomes.Outcomes[3].Reason != "insufficient_funds" {
		t.Fatalf("unexpected batch outcome: %+v", outcomes)
	}

	rec = send(http.MethodPost, "/api/v1/events/", `{"type":"deposit","client":1,"tx":4,"amount":"1"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("deposit on locked account: expected 422, got %d", rec.Code)
	}

	rec = send(http.MethodGet, "/api/v1/accounts/1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get account: expected 200, got %d", rec.Code)
	}
	var account dto.AccountResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &account); err != nil {
		t.Fatalf("decode account: %v", err)
	}
	if !account.Locked || !account.Total.Equal(decimal.NewFromInt(-4)) || !account.Held.IsZero() {
		t.Fatalf("unexpected account: %+v", account)
	}

	rec = send(http.MethodGet, "/api/v1/accounts/1/transfers", "")
	var transfers []dto.TransferResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &transfers); err != nil {
		t.Fatalf("decode transfers: %v", err)
	}
	if len(transfers) != 2 || transfers[0].State != "charged_back" || transfers[1].State != "active" {
		t.Fatalf("unexpected transfers: %+v", transfers)
	}

	rec = send(http.MethodGet, "/api/v1/ledger/consistency", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("consistency: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = send(http.MethodGet, "/api/v1/accounts/2", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown account: expected 404, got %d", rec.Code)
	}

	rec = send(http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "payments_events_accepted_total") {
		t.Fatalf("expected metrics to be exposed, got %d", rec.Code)
	}
}

func newRouterConfig(t *testing.T, opts ...func(*RouterConfig)) RouterConfig {
	t.Helper()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	store := memory.NewStore()
	accounts := memory.NewAccountRepository(store)
	transfers := memory.NewTransferRepository(store)

	processor := usecase.NewTransactionProcessor(
		memory.NewTxManager(store),
		accounts,
		transfers,
		memory.NewDisputeRepository(store),
		memory.NewResolutionRepository(store),
		nil,
		idgen.NewULIDGenerator(),
		m,
		zerolog.Nop(),
	)
	projection := usecase.NewProjectionUseCase(accounts, transfers)

	cfg := RouterConfig{
		EventHandler:   handler.NewEventHandler(processor),
		AccountHandler: handler.NewAccountHandler(projection),
		LedgerHandler:  handler.NewLedgerHandler(projection),
		HealthHandler:  handler.NewHealthHandler(store, nil, nil),
		Metrics:        m,
		Gatherer:       registry,
		Logger:         zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	return cfg
}

type stubIdempotencyStore struct {
	checkCalled  bool
	updateCalled bool
}

func (s *stubIdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.checkCalled = true
	return false, nil, nil
}

func (s *stubIdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.updateCalled = true
	return nil
}

func (s *stubIdempotencyStore) Release(ctx context.Context, key string) error {
	return nil
}
