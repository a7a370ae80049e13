package model

import "time"

type Rating struct {
	ID        int64     `json:"id"`
	RaterID   int64     `json:"rater_id"`
	ProfileID int64     `json:"profile_id"`
	Score     int       `json:"score"`
	Comment   *string   `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RatingSummary is the per-profile aggregate the winner engine and the
// "my profile" card consume.
type RatingSummary struct {
	ProfileID int64   `json:"profile_id"`
	Count     int     `json:"count"`
	Average   float64 `json:"average"`
}
