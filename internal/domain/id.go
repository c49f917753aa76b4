package domain

import "strings"

// ID is an opaque record identifier. The file backend mints decimal
// integers, the mongo backend uses ObjectID hex strings; callers must
// never assume numeric ordering.
type ID string

func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the identifier is empty.
func (id ID) IsZero() bool {
	return strings.TrimSpace(string(id)) == ""
}
