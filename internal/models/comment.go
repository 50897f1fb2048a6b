package models

// Comment represents a comment on a post. The parent post is implied by the
// sub-collection the comment is stored under, not by a field on the comment
// itself.
type Comment struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	Author    *User  `json:"author,omitempty"`
}
