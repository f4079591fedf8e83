package source

import "github.com/mmcdole/postbrowser/internal/domain"

// PostDTO is the wire shape of one collection record
type PostDTO struct {
	ID     int    `json:"id"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId,omitempty"`
}

// MapPosts converts wire records to domain posts, keeping source order
func MapPosts(dtos []PostDTO) []domain.Post {
	posts := make([]domain.Post, len(dtos))
	for i, d := range dtos {
		posts[i] = domain.Post{
			ID:     d.ID,
			Title:  d.Title,
			Body:   d.Body,
			UserID: d.UserID,
		}
	}
	return posts
}
