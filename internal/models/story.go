package models

import (
	"time"
)

// TravelStory is a story record together with its media references.
// A story always carries at least one image URL; the video is optional.
type TravelStory struct {
	ID              int       `json:"id" db:"id"`
	Title           string    `json:"title" db:"title"`
	Story           string    `json:"story" db:"story"`
	VisitedLocation string    `json:"visitedLocation" db:"visited_location"`
	IsFavorite      bool      `json:"isFavorite" db:"is_favorite"`
	OwnerID         int       `json:"userId" db:"owner_id"`
	CreatedOn       time.Time `json:"createdOn" db:"created_on"`
	VisitedDate     time.Time `json:"visitedDate" db:"visited_date"`
	ImageURLs       []string  `json:"imageUrls" db:"-"`
	VideoURL        *string   `json:"videoUrl,omitempty" db:"video_url"`

	// Owner details, populated on cross-user listings only.
	OwnerName  *string `json:"ownerName,omitempty" db:"-"`
	OwnerEmail *string `json:"ownerEmail,omitempty" db:"-"`
}
