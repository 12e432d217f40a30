package entity

import "time"

// Session groups the runs of one conversation for a user.
type Session struct {
	// ID is the unique session identifier.
	ID string `json:"id"`

	// UserID is the owning user identity.
	UserID string `json:"user_id"`

	// Metadata holds free-form session attributes.
	Metadata map[string]string `json:"metadata,omitempty"`

	// CreatedAt is when this session was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is bumped whenever a run mutates the session.
	UpdatedAt time.Time `json:"updated_at"`
}
