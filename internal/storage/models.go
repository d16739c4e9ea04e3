package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a uniqueness constraint would be violated
// (profile name, tool code).
var ErrDuplicate = errors.New("already exists")

// Profile is a named processing configuration for the moulder.
type Profile struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	FeedRate    float64   `json:"feed_rate"` // m/min
	MaterialID  int64     `json:"material_id,omitempty"`
	DrawingID   string    `json:"drawing_id,omitempty"` // attachment UUID
	CreatedAt   time.Time `json:"created_at"`
}

// MaterialSize is a stock material entry in the shared size catalog.
type MaterialSize struct {
	ID          int64   `json:"id"`
	Width       float64 `json:"width"`     // mm
	Thickness   float64 `json:"thickness"` // mm
	Name        string  `json:"name"`
	Description string  `json:"description"`
}

// ProductVariant is one finished-product size a profile can produce.
type ProductVariant struct {
	ID        int64   `json:"id"`
	ProfileID int64   `json:"profile_id"`
	Width     float64 `json:"width"`
	Thickness float64 `json:"thickness"`
	Tolerance float64 `json:"tolerance"` // +/- mm
	IsDefault bool    `json:"is_default"`
	SortOrder int     `json:"sort_order"`
}

// Tool is one physical milling tool. Code is the auto-generated 6-digit
// identifier; the first five digits identify the set, the last digit the
// set number.
type Tool struct {
	ID          int64  `json:"id"`
	ProfileID   int64  `json:"profile_id"`
	Position    string `json:"position"`  // Bottom, Top, Right, Left
	Type        string `json:"tool_type"` // Straight, Profile
	SetNumber   int    `json:"set_number"`
	Code        string `json:"code"`
	KnivesCount int    `json:"knives_count"`
	Status      string `json:"status"` // ready, in_service, worn
	Notes       string `json:"notes"`
	PhotoID     string `json:"photo_id,omitempty"` // attachment UUID
}

// Assignment mounts a tool onto one of the 10 machine heads within a profile.
type Assignment struct {
	ID           int64   `json:"id"`
	ProfileID    int64   `json:"profile_id"`
	ToolID       int64   `json:"tool_id"`
	HeadNumber   int     `json:"head_number"`
	RPM          int     `json:"rpm,omitempty"`
	PassDepth    float64 `json:"pass_depth,omitempty"` // mm
	WorkMaterial string  `json:"work_material,omitempty"`
	Remarks      string  `json:"remarks,omitempty"`
	ToolCode     string  `json:"tool_code,omitempty"` // joined from tools, read-only
}

// Attachment is a binary asset (profile drawing PDF or tool photo) stored
// on disk under the data directory. Text holds extracted PDF text once the
// indexer has processed a drawing.
type Attachment struct {
	ID          string    `json:"id"`
	Kind        string    `json:"kind"` // "drawing" or "photo"
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	SHA256      string    `json:"sha256"`
	Text        string    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// Job is a queued background task (drawing text indexing).
type Job struct {
	ID          string
	Type        string
	PayloadJSON string
	Status      string // "pending", "running", "completed", "failed"
	Attempts    int
	MaxAttempts int
	RunAfter    time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastError   string
}
