package models

// Post represents a post in the Ember application. Timestamp is epoch
// milliseconds set by the writer at write time. Author is nil only when
// authorship could not be determined at creation.
type Post struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
	Timestamp   int64  `json:"timestamp"`
	Author      *User  `json:"author,omitempty"`
}
