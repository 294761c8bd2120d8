package consultation

import "time"

// Entry is one free-form question put to the assistant and its answer.
type Entry struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Query     string    `json:"query"`
	Response  string    `json:"response"`
	Category  string    `json:"category,omitempty"`
}
