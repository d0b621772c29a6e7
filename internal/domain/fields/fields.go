package fields

import "strings"

// Email is compared case-insensitively everywhere in the system; the
// store keeps whatever casing the user typed.
type Email string

// Normalized returns the canonical form used for lookups.
func (e Email) Normalized() string {
	return strings.ToLower(strings.TrimSpace(string(e)))
}
