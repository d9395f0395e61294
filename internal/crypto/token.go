package crypto

import "github.com/google/uuid"

// NewAuthenticationKey issues a fresh opaque bearer credential. Keys are
// UUID-v4 strings; uniqueness is additionally enforced by the store.
func NewAuthenticationKey() string {
	return uuid.NewString()
}

// IsAuthenticationKey reports whether s has the issued key shape.
func IsAuthenticationKey(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
