package models

import "time"

// Photo represents an uploaded image stored on the external CDN
type Photo struct {
	ID            int64     `json:"id"`
	OwnerID       int64     `json:"owner_id"`
	OwnerUsername string    `json:"owner_username,omitempty"`
	URL           string    `json:"url"`
	PublicID      string    `json:"-"` // CDN identifier, not exposed
	Description   string    `json:"description"`
	Tags          []string  `json:"tags"`
	AverageRating *float64  `json:"average_rating"`
	RatingsCount  int       `json:"ratings_count"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Transformation is a derived version of a photo produced by the CDN
type Transformation struct {
	ID        int64     `json:"id"`
	PhotoID   int64     `json:"photo_id"`
	URL       string    `json:"url"`
	PublicID  string    `json:"-"`
	Params    string    `json:"params"`
	QRCode    string    `json:"qr_code,omitempty"` // data URI
	CreatedAt time.Time `json:"created_at"`
}
