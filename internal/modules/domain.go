package modules

import "time"

// Module is a named feature area that permissions attach to. Names are
// stored lowercase and unique; Ord drives menu ordering.
type Module struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Label     string    `json:"label"`
	Icon      string    `json:"icon,omitempty"`
	IsActive  bool      `json:"is_active"`
	Ord       int       `json:"ord"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
