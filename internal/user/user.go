package user

import "time"

// Profile is what GET /users/me returns.
type Profile struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`

	// Client is set only for users with the CLIENTE role.
	Client *ClientInfo `json:"client,omitempty"`
}

type ClientInfo struct {
	ID           int64  `json:"id"`
	RUC          string `json:"ruc"`
	BusinessName string `json:"business_name"`
	Regime       string `json:"regime"`
	AccountantID int64  `json:"accountant_id"`
}
