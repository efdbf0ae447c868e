package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID is an entity identifier in canonical string form. Numeric identifiers are
// accepted on the wire and converted to their decimal representation.
type ID string

// Invalid identifier markers that can leak out of loosely typed clients.
const (
	undefinedMarker = "undefined"
	nullMarker      = "null"
)

// String returns the identifier as a plain string.
func (id ID) String() string {
	return string(id)
}

// Valid reports whether the identifier can be sent to the API.
func (id ID) Valid() bool {
	return ValidID(string(id))
}

// ValidID reports whether raw is a usable identifier once trimmed.
func ValidID(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	return trimmed != "" && trimmed != undefinedMarker && trimmed != nullMarker
}

// NormalizeID trims raw and reports whether it is a usable identifier.
func NormalizeID(raw string) (ID, bool) {
	trimmed := strings.TrimSpace(raw)
	if !ValidID(trimmed) {
		return "", false
	}
	return ID(trimmed), true
}

// UnmarshalJSON accepts JSON strings and numbers.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("identifier must be a string or number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// IDSet is a membership set of identifiers.
type IDSet map[ID]struct{}

// NewIDSet builds a set from the given identifiers.
func NewIDSet(ids ...ID) IDSet {
	set := make(IDSet, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// Has reports membership.
func (s IDSet) Has(id ID) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id into the set.
func (s IDSet) Add(id ID) {
	s[id] = struct{}{}
}
