package domain

import "strconv"

// Post is a single record from the collection resource
type Post struct {
	ID     int    // Assigned by the remote source
	Title  string // Display title, also the search key
	Body   string // Secondary text shown under the title
	UserID int    // Author ID when the source provides one (0 otherwise)
}

// Key returns a stable string key for list rendering
func (p Post) Key() string {
	return strconv.Itoa(p.ID)
}
