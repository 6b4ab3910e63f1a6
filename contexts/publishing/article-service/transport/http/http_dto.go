package httptransport

import "time"

// CreateArticleRequest posts a new article with its initial shares.
type CreateArticleRequest struct {
	Title   string             `json:"title"`
	Content string             `json:"content"`
	Shares  []ShareSpecRequest `json:"shares,omitempty"`
}

// ShareSpecRequest names a group an article is shared into. An empty
// group_id means the public group.
type ShareSpecRequest struct {
	GroupID string `json:"group_id"`
	Visible bool   `json:"visible"`
}

// UpdateArticleRequest carries a partial edit. Absent fields are left
// untouched; present fields replace the stored value.
type UpdateArticleRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

// CreateGroupRequest creates a sharing group owned by the caller.
type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// JoinGroupRequest adds the caller to a group.
type JoinGroupRequest struct {
	WriteAllowed bool `json:"write_allowed"`
}

// ShareArticleRequest shares an article into a group, or flips the
// visibility of an existing share.
type ShareArticleRequest struct {
	GroupID string `json:"group_id"`
	Visible bool   `json:"visible"`
}

// RevokeShareRequest removes an article from a group.
type RevokeShareRequest struct {
	GroupID string `json:"group_id"`
}

type ArticleResponse struct {
	ID         string          `json:"id"`
	AuthorID   string          `json:"author_id"`
	Title      string          `json:"title"`
	Content    string          `json:"content"`
	PostedAt   time.Time       `json:"posted_at"`
	LastEditAt time.Time       `json:"last_edit_at"`
	Shares     []ShareResponse `json:"shares,omitempty"`
}

type ShareResponse struct {
	GroupID   string `json:"group_id"`
	GroupName string `json:"group_name"`
	Visible   bool   `json:"visible"`
}

type ArticleListResponse struct {
	Articles []ArticleResponse `json:"articles"`
}

type GroupResponse struct {
	ID          string `json:"id"`
	OwnerID     string `json:"owner_id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type MembershipResponse struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	GroupID      string `json:"group_id"`
	WriteAllowed bool   `json:"write_allowed"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
