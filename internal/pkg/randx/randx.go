/*
Package randx provides functions for generating and validating the random
identifiers used by the service.

Visitor identities are UUIDv4 strings carried in a browser cookie.
*/
package randx

import (
	"strings"

	"github.com/google/uuid"
)

// NewIdentity generates a UUIDv4 string to serve as a visitor identity token.
func NewIdentity() string {
	return uuid.New().String()
}

// ParseIdentity validates a candidate identity token taken from a cookie.
// It returns the canonical lower-case form and true when the value is a
// well-formed UUID, or "" and false otherwise.
func ParseIdentity(value string) (string, bool) {
	id, err := uuid.Parse(strings.TrimSpace(value))
	if err != nil {
		return "", false
	}
	return id.String(), true
}
