package domain

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

type User struct {
	ID        int64     `json:"id"`
	IIN       string    `json:"iin"`
	Phone     string    `json:"phone"`
	Password  string    `json:"-"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Relative is a person a user saves on behalf of. The IIN is unique across
// the whole system, not just within one user's list.
type Relative struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	FullName  string    `json:"full_name"`
	IIN       string    `json:"iin"`
	CreatedAt time.Time `json:"created_at"`
}
