package domain

import "github.com/google/uuid"

// NewID generates a UUIDv7 string for application-owned entities such as
// audit log rows and request correlation ids.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
