package model

import (
	"slices"
	"time"
)

// Note is a shared PDF note together with its engagement counters.
// Likes is maintained independently of LikedBy; the two are expected to agree
// but nothing enforces it.
type Note struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Subject       string    `json:"subject"`
	FileURL       string    `json:"fileURL"`
	StoragePath   string    `json:"-"`
	UserID        string    `json:"userId"`
	UploaderEmail string    `json:"uploaderEmail,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	Likes         int       `json:"likes"`
	LikedBy       []string  `json:"likedBy"`
	Views         int       `json:"views"`
}

// LikedByUser reports whether userID is in the note's LikedBy set.
func (n Note) LikedByUser(userID string) bool {
	return userID != "" && slices.Contains(n.LikedBy, userID)
}

// Uploader is what a feed card shows as the author.
func (n Note) Uploader() string {
	if n.UploaderEmail != "" {
		return n.UploaderEmail
	}
	return n.UserID
}
