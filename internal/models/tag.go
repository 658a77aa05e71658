package models

import "time"

// Tag is a short keyword attached to photos, unique by name
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// MaxTagsPerPhoto limits the number of distinct tags a photo may carry.
const MaxTagsPerPhoto = 5
