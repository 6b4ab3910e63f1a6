package entities

import "time"

// Article is a short text post owned exclusively by its author. Version
// supports compare-and-set writes; soft-deleted articles are treated as
// absent by every read path.
type Article struct {
	ID         string     `json:"id"`
	AuthorID   string     `json:"author_id"`
	Title      string     `json:"title"`
	Content    string     `json:"content"`
	PostedAt   time.Time  `json:"posted_at"`
	LastEditAt time.Time  `json:"last_edit_at"`
	Version    int64      `json:"-"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty"`
}

func (a Article) Live() bool {
	return a.DeletedAt == nil
}
