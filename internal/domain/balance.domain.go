package domain

import "time"

// Balance is one-to-one with a user. Amount holds spendable funds (personal
// deposits only), BonusAmount is the cumulative bonus credit. HasFirstDeposit
// is a cache of the bonus gate; transaction history stays authoritative.
type Balance struct {
	UserID          int64     `json:"user_id"`
	Amount          float64   `json:"amount"`
	BonusAmount     float64   `json:"bonus_amount"`
	HasFirstDeposit bool      `json:"has_first_deposit"`
	UpdatedAt       time.Time `json:"updated_at"`
}
