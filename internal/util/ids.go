package util

import "github.com/google/uuid"

// NewID returns a new random identifier for entities, relationships, and
// audit records.
func NewID() string {
	return uuid.NewString()
}
