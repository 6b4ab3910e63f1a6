package entities

import "time"

// Association grants an article visibility through a group. GroupID may be
// PublicGroupID; Visible=false hides the article from that group without
// removing the link.
type Association struct {
	ID        string     `json:"id"`
	ArticleID string     `json:"article_id"`
	GroupID   string     `json:"group_id"`
	Visible   bool       `json:"visible"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

func (a Association) Live() bool {
	return a.DeletedAt == nil
}
