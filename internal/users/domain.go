package users

import "time"

// User represents an admin-panel account for management. The password hash
// never leaves the repository layer.
type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Tag       string    `json:"role_tag"`
	RoleID    int64     `json:"role_id,omitempty"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
