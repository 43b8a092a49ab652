package ledger

import (
	"context"
	"sync"

	"github.com/flashbots/escrownet/crypto"
)

// InMemoryLedger implements TokenLedger without an external service.
// Used in tests and --dev deployments.
type InMemoryLedger struct {
	mu       sync.Mutex
	balances map[TokenID]map[crypto.AccountID]uint64
}

// NewInMemoryLedger creates an empty in-memory ledger.
func NewInMemoryLedger() *InMemoryLedger {
	return &InMemoryLedger{
		balances: make(map[TokenID]map[crypto.AccountID]uint64),
	}
}

// Mint credits an account with new tokens. Only the in-memory ledger
// exposes issuance; the external ledger handles it out of band.
func (l *InMemoryLedger) Mint(token TokenID, to crypto.AccountID, amount uint64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.credit(token, to, amount)
}

// BalanceOf returns the amount of token held by the account.
func (l *InMemoryLedger) BalanceOf(ctx context.Context, token TokenID, holder crypto.AccountID) (uint64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[token][holder], nil
}

// Transfer moves amount of token between accounts. The debit and credit
// happen under one lock so no partial transfer is ever observable.
func (l *InMemoryLedger) Transfer(ctx context.Context, token TokenID, from, to crypto.AccountID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.balances[token][from] < amount {
		return ErrInsufficientFunds
	}

	l.balances[token][from] -= amount
	l.credit(token, to, amount)
	return nil
}

func (l *InMemoryLedger) credit(token TokenID, to crypto.AccountID, amount uint64) {
	holders := l.balances[token]
	if holders == nil {
		holders = make(map[crypto.AccountID]uint64)
		l.balances[token] = holders
	}
	holders[to] += amount
}
