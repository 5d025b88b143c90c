package domain

import "time"

const (
	TxTypeDeposit    = "DEPOSIT"
	TxTypeWithdrawal = "WITHDRAWAL"

	TxStatusPending   = "PENDING"
	TxStatusCompleted = "COMPLETED"
	TxStatusFailed    = "FAILED"
)

// Transaction is an append-only ledger entry. Once status reaches COMPLETED
// the row is immutable. TransactionNumber (bank payment id or a synthesized
// MANUAL number) and SourceMessageID (mailbox message id, for reconciled
// payments) are the two dedup keys; both carry unique indexes.
type Transaction struct {
	ID                string    `json:"id"`
	UserID            int64     `json:"user_id"`
	TransactionNumber string    `json:"transaction_number"`
	SourceMessageID   *string   `json:"source_message_id,omitempty"`
	Amount            float64   `json:"amount"`
	Type              string    `json:"type"`
	Status            string    `json:"status"`
	Description       string    `json:"description"`
	GoalID            *int64    `json:"goal_id,omitempty"`
	RelativeID        *int64    `json:"relative_id,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	Goal     *Goal     `json:"goal,omitempty"`
	Relative *Relative `json:"relative,omitempty"`
}
