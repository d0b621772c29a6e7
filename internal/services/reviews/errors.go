package reviews

import (
	"fmt"
	"sort"
	"strings"
)

type InvalidInputError struct {
	Fields map[string]string
}

func (e *InvalidInputError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return "invalid review: " + strings.Join(parts, "; ")
}
