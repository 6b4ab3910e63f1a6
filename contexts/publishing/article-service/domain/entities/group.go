package entities

import "time"

// PublicGroupID is the sentinel identity of the implicit public group:
// readable by every principal without membership. It is never a stored row
// and cannot be created, owned, or deleted.
const PublicGroupID = "public"

// Group is a named sharing circle owned by a user.
type Group struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func (g Group) Live() bool {
	return g.DeletedAt == nil
}

// IsPublicGroup reports whether id names the implicit public group. An
// empty id is accepted as an alias so callers cannot fall into the
// null-means-public trap the sentinel exists to remove.
func IsPublicGroup(id string) bool {
	return id == "" || id == PublicGroupID
}
