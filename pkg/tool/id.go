package tool

import "github.com/google/uuid"

// GenerateUUIDV7 returns a time-ordered id for append-mostly tables.
func GenerateUUIDV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

// GeneratePublicID returns a random v4 id. Ids handed to browsers must not
// reveal creation order.
func GeneratePublicID() string {
	return uuid.NewString()
}
