// Package models contains data structures for the application's domain models.
package models

import "strings"

// User is the denormalized author snapshot stored inline on every Post and
// Comment at write time. It is never updated retroactively, even if the
// account's display name later changes.
type User struct {
	ID        string `json:"id"`
	Firstname string `json:"firstname"`
	Lastname  string `json:"lastname"`
}

// AuthorFromDisplayName derives a User snapshot from an authenticated
// principal's display name. The first token becomes the firstname and the
// second token, if any, the lastname. A blank display name falls back to
// "Anonymous".
func AuthorFromDisplayName(id, displayName string) User {
	u := User{ID: id, Firstname: "Anonymous"}
	parts := strings.Fields(displayName)
	if len(parts) > 0 {
		u.Firstname = parts[0]
	}
	if len(parts) > 1 {
		u.Lastname = parts[1]
	}
	return u
}
