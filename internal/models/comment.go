package models

import "time"

// Comment represents a comment left under a photo
type Comment struct {
	ID        int64     `json:"id"`
	PhotoID   int64     `json:"photo_id"`
	AuthorID  int64     `json:"author_id"`
	Body      string    `json:"body"`
	Edited    bool      `json:"edited"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
