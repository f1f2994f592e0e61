package models

import "time"

type TransactionKind string

const (
	TxnUse    TransactionKind = "USE"
	TxnCancel TransactionKind = "CANCEL"
)

type TransactionResult string

const (
	TxnSucceeded TransactionResult = "SUCCEEDED"
	TxnFailed    TransactionResult = "FAILED"
)

// Transaction is an append-only record of one balance-affecting attempt.
// BalanceSnapshot is the balance after the effect, or the unchanged
// balance for a FAILED attempt.
type Transaction struct {
	ID                   int64             `json:"-"`
	TransactionID        string            `json:"transaction_id"`
	AccountID            int64             `json:"account_id"`
	AccountNumber        string            `json:"account_number"`
	Kind                 TransactionKind   `json:"kind"`
	Result               TransactionResult `json:"result"`
	Amount               int64             `json:"amount"`
	BalanceSnapshot      int64             `json:"balance_snapshot"`
	TransactedAt         time.Time         `json:"transacted_at"`
	CancelsTransactionID string            `json:"cancels_transaction_id,omitempty"`
}
