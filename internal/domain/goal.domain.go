package domain

import "time"

const (
	GoalTypeUmrah = "UMRAH"
	GoalTypeHajj  = "HAJJ"
)

// Goal is a savings target. A goal with RelativeID == nil is the user's
// personal goal; the schema allows at most one of those per user.
type Goal struct {
	ID            int64     `json:"id"`
	UserID        int64     `json:"user_id"`
	RelativeID    *int64    `json:"relative_id,omitempty"`
	Type          string    `json:"type"` // UMRAH or HAJJ
	PackageType   string    `json:"package_type"`
	TargetAmount  float64   `json:"target_amount"`
	CurrentAmount float64   `json:"current_amount"`
	MonthlyTarget float64   `json:"monthly_target"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Relative *Relative `json:"relative,omitempty"`
}

type TourPackage struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"` // UMRAH or HAJJ
	Tier        string    `json:"tier"` // e.g. "standard", "comfort", "premium"
	Price       float64   `json:"price"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
