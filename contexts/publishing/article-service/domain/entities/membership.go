package entities

import "time"

// Membership links a user to a group. WriteAllowed grants the member the
// right to share articles into the group. Membership in the public group is
// implicit and never materialized.
type Membership struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	GroupID      string     `json:"group_id"`
	WriteAllowed bool       `json:"write_allowed"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

func (m Membership) Live() bool {
	return m.DeletedAt == nil
}
