package models

import "time"

type AccountStatus string

const (
	AccountActive AccountStatus = "ACTIVE"
	AccountClosed AccountStatus = "CLOSED"
)

// Account is one balance-bearing ledger line. Balance is kept in the
// smallest currency unit and never goes negative.
type Account struct {
	ID        int64         `json:"id"`
	OwnerID   int64         `json:"owner_id"`
	Number    string        `json:"account_number"`
	Status    AccountStatus `json:"status"`
	Balance   int64         `json:"balance"`
	CreatedAt time.Time     `json:"created_at"`
	ClosedAt  *time.Time    `json:"closed_at,omitempty"`
}

func (a Account) Active() bool { return a.Status == AccountActive }

// Debit returns a copy of a with amount taken off the balance.
// Callers check the balance first; Debit itself does not.
func (a Account) Debit(amount int64) Account {
	a.Balance -= amount
	return a
}

func (a Account) Credit(amount int64) Account {
	a.Balance += amount
	return a
}

// Close returns a copy of a in the CLOSED state.
func (a Account) Close(at time.Time) Account {
	a.Status = AccountClosed
	a.ClosedAt = &at
	return a
}
