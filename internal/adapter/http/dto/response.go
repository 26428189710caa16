package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/paymentsengine/internal/domain"
	"github.com/iho/paymentsengine/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	Client    uint16          `json:"client"`
	Available decimal.Decimal `json:"available"`
	Held      decimal.Decimal `json:"held"`
	Total     decimal.Decimal `json:"total"`
	Locked    bool            `json:"locked"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		Client:    uint16(a.CustomerID),
		Available: a.Available,
		Held:      a.Held,
		Total:     a.Total,
		Locked:    a.Locked,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// TransferResponse represents a balance transfer in API responses.
type TransferResponse struct {
	Client    uint16          `json:"client"`
	Tx        uint32          `json:"tx"`
	Type      string          `json:"type"`
	Amount    decimal.Decimal `json:"amount"`
	State     string          `json:"state"`
	CreatedAt time.Time       `json:"created_at"`
}

// TransferFromDomain converts domain transfer to response.
func TransferFromDomain(t *domain.BalanceTransfer) *TransferResponse {
	return &TransferResponse{
		Client:    uint16(t.CustomerID),
		Tx:        uint32(t.TransactionID),
		Type:      string(t.Kind),
		Amount:    t.Amount,
		State:     string(t.State),
		CreatedAt: t.CreatedAt,
	}
}

// TransfersFromDomain converts domain transfers to responses.
func TransfersFromDomain(transfers []*domain.BalanceTransfer) []*TransferResponse {
	result := make([]*TransferResponse, len(transfers))
	for i, t := range transfers {
		result[i] = TransferFromDomain(t)
	}
	return result
}

// OutcomeResponse reports what happened to one event.
type OutcomeResponse struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"`
	Client   uint16           `json:"client"`
	Tx       uint32           `json:"tx"`
	Accepted bool             `json:"accepted"`
	Reason   string           `json:"reason,omitempty"`
	Message  string           `json:"message,omitempty"`
	Account  *AccountResponse `json:"account,omitempty"`
}

// OutcomeFromUseCase converts a processor outcome to response.
func OutcomeFromUseCase(o *usecase.Outcome) *OutcomeResponse {
	resp := &OutcomeResponse{
		ID:       o.ID,
		Type:     string(o.Event.Kind),
		Client:   uint16(o.Event.CustomerID),
		Tx:       uint32(o.Event.TransactionID),
		Accepted: o.Accepted,
	}
	if o.Reason != nil {
		resp.Reason = domain.RejectionCode(o.Reason)
		resp.Message = o.Reason.Error()
	}
	if o.Account != nil {
		resp.Account = AccountFromDomain(o.Account)
	}
	return resp
}

// BatchOutcomeResponse reports a batch in event order.
type BatchOutcomeResponse struct {
	Outcomes []*OutcomeResponse `json:"outcomes"`
	Accepted int                `json:"accepted"`
	Rejected int                `json:"rejected"`
}

// BatchFromUseCase converts processor outcomes to a batch response.
func BatchFromUseCase(outcomes []*usecase.Outcome) *BatchOutcomeResponse {
	resp := &BatchOutcomeResponse{Outcomes: make([]*OutcomeResponse, len(outcomes))}
	for i, o := range outcomes {
		resp.Outcomes[i] = OutcomeFromUseCase(o)
		if o.Accepted {
			resp.Accepted++
		} else {
			resp.Rejected++
		}
	}
	return resp
}

// DiscrepancyResponse describes one account that does not match its ledger rows.
type DiscrepancyResponse struct {
	Client     uint16           `json:"client"`
	Problem    string           `json:"problem"`
	Recorded   *AccountResponse `json:"recorded"`
	Calculated *AccountResponse `json:"calculated"`
}

// ConsistencyResponse is the ledger consistency report.
type ConsistencyResponse struct {
	Consistent         bool                   `json:"consistent"`
	TotalAccounts      int                    `json:"total_accounts"`
	ReconciledAccounts int                    `json:"reconciled_accounts"`
	Discrepancies      []*DiscrepancyResponse `json:"discrepancies"`
	TransfersByState   map[string]int64       `json:"transfers_by_state"`
	CheckedAt          time.Time              `json:"checked_at"`
}

// ConsistencyFromUseCase converts a reconciliation report to response.
func ConsistencyFromUseCase(r *usecase.ReconciliationReport) *ConsistencyResponse {
	resp := &ConsistencyResponse{
		Consistent:         r.Consistent(),
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      make([]*DiscrepancyResponse, len(r.Discrepancies)),
		TransfersByState:   make(map[string]int64, len(r.TransfersByState)),
		CheckedAt:          r.CheckedAt,
	}
	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = &DiscrepancyResponse{
			Client:     uint16(d.CustomerID),
			Problem:    d.Problem,
			Recorded:   AccountFromDomain(d.Recorded),
			Calculated: AccountFromDomain(d.Calculated),
		}
	}
	for state, n := range r.TransfersByState {
		resp.TransfersByState[string(state)] = n
	}
	return resp
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}
