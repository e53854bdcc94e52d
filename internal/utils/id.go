package utils

import "github.com/google/uuid"

// GenerateID returns a random RFC 4122 identifier.
// uuid.NewRandom only fails when the entropy source does; the caller gets the error.
func GenerateID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", WrapError(err, "generate id")
	}
	return id.String(), nil
}
