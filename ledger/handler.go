package ledger

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/flashbots/escrownet/crypto"
)

// Minter is implemented by ledgers that support issuance. The handler only
// exposes the mint endpoint when its backing ledger implements it.
type Minter interface {
	Mint(token TokenID, to crypto.AccountID, amount uint64)
}

// TransferRequest asks the ledger to move value between two accounts.
type TransferRequest struct {
	Token  TokenID          `json:"token"`
	From   crypto.AccountID `json:"from"`
	To     crypto.AccountID `json:"to"`
	Amount uint64           `json:"amount"`
}

// MintRequest credits an account on a mintable ledger.
type MintRequest struct {
	Token  TokenID          `json:"token"`
	To     crypto.AccountID `json:"to"`
	Amount uint64           `json:"amount"`
}

// BalanceResponse reports a holder's balance in one token.
type BalanceResponse struct {
	Token  TokenID          `json:"token"`
	Holder crypto.AccountID `json:"holder"`
	Amount uint64           `json:"amount"`
}

// Handler serves a TokenLedger over HTTP.
type Handler struct {
	ledger TokenLedger
}

// NewHandler creates a handler backed by the given ledger.
func NewHandler(ledger TokenLedger) *Handler {
	return &Handler{ledger: ledger}
}

// RegisterRoutes registers the ledger endpoints with the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/token/balance/{token}/{holder}", h.balance)
	r.Post("/token/transfer", h.transfer)

	if _, ok := h.ledger.(Minter); ok {
		r.Post("/token/mint", h.mint)
	}
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	token, err := NewTokenIDFromString(chi.URLParam(r, "token"))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid token ID: %v", err), http.StatusBadRequest)
		return
	}

	var holder crypto.AccountID
	if err := holder.UnmarshalText([]byte(chi.URLParam(r, "holder"))); err != nil {
		http.Error(w, fmt.Sprintf("Invalid holder: %v", err), http.StatusBadRequest)
		return
	}

	amount, err := h.ledger.BalanceOf(r.Context(), token, holder)
	if err != nil {
		http.Error(w, fmt.Sprintf("Balance query failed: %v", err), http.StatusInternalServerError)
		return
	}

	json.NewEncoder(w).Encode(&BalanceResponse{Token: token, Holder: holder, Amount: amount})
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	if err := h.ledger.Transfer(r.Context(), req.Token, req.From, req.To, req.Amount); err != nil {
		status := http.StatusInternalServerError
		if err == ErrInsufficientFunds {
			status = http.StatusConflict
		}
		http.Error(w, fmt.Sprintf("Transfer failed: %v", err), status)
		return
	}

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}

func (h *Handler) mint(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req MintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("Failed to parse request: %v", err), http.StatusBadRequest)
		return
	}

	h.ledger.(Minter).Mint(req.Token, req.To, req.Amount)

	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "success"})
}
