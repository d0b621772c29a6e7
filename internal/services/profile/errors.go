package profile

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrUserNotFound = errors.New("user not found")

// InvalidInputError carries a field name to message map of everything
// the validator rejected.
type InvalidInputError struct {
	Fields map[string]string
}

func (e *InvalidInputError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return "invalid input: " + strings.Join(parts, "; ")
}
