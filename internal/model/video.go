package model

import (
	"time"

	"github.com/vidmill/videos-ms-go/internal/db"
)

type VideoStatus string

const (
	VideoStatusPending    VideoStatus = "pending"
	VideoStatusProcessing VideoStatus = "processing"
	VideoStatusCompleted  VideoStatus = "completed"
	VideoStatusFailed     VideoStatus = "failed"
)

// IsTerminal reports whether no further status transition is permitted.
func (s VideoStatus) IsTerminal() bool {
	return s == VideoStatusCompleted || s == VideoStatusFailed
}

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

const DefaultCategory = "General"

type Video struct {
	ID              db.UUID     `json:"id"`
	Title           string      `json:"title"`
	Description     string      `json:"description"`
	Category        string      `json:"category"`
	Visibility      Visibility  `json:"visibility"`
	OwnerID         db.UUID     `json:"owner_id"`
	AssetKey        string      `json:"asset_key"`
	SizeBytes       int64       `json:"size_bytes"`
	DurationSeconds *float64    `json:"duration_seconds"`
	Status          VideoStatus `json:"status"`
	ProgressPercent int         `json:"progress_percent"`
	Sensitivity     Sensitivity `json:"sensitivity"`
	FailureMessage  *string     `json:"failure_message,omitempty"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}
