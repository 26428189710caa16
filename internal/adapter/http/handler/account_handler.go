package handler

import (
	"context"
	"net/http"

	"github.com/iho/paymentsengine/internal/adapter/http/dto"
	"github.com/iho/paymentsengine/internal/domain"
)

// AccountService defines the projection reads used by AccountHandler.
type AccountService interface {
	Snapshot(ctx context.Context) ([]*domain.Account, error)
	GetAccount(ctx context.Context, id domain.CustomerID) (*domain.Account, error)
	ListTransfers(ctx context.Context, id domain.CustomerID) ([]*domain.BalanceTransfer, error)
}

// AccountHandler serves the account projection.
type AccountHandler struct {
	accounts AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// List returns every account ordered by customer id.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.Snapshot(r.Context())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list accounts", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}

// Get returns one customer's account.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseCustomerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer id", err.Error())
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// ListTransfers returns a customer's transfers in arrival order.
func (h *AccountHandler) ListTransfers(w http.ResponseWriter, r *http.Request) {
	id, err := parseCustomerID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid customer id", err.Error())
		return
	}

	transfers, err := h.accounts.ListTransfers(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to list transfers", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransfersFromDomain(transfers))
}
