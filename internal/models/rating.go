package models

import "time"

// Rating is a single 1-5 star vote on a photo. One per user per photo,
// enforced by a database uniqueness constraint.
type Rating struct {
	ID        int64     `json:"id"`
	PhotoID   int64     `json:"photo_id"`
	RaterID   int64     `json:"rater_id"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
}

// RatingStats is the read-time aggregate for a photo's ratings.
type RatingStats struct {
	Average *float64 `json:"average"` // mean rounded to 1 decimal, null if unrated
	Count   int      `json:"count"`
}
