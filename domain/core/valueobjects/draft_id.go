package valueobjects

import (
	"errors"

	"github.com/google/uuid"
)

// DraftID is a value object representing a unique draft session identifier
// Value objects are immutable and have no identity beyond their value
type DraftID struct {
	value string
}

// NewDraftID creates a new random DraftID
func NewDraftID() DraftID {
	return DraftID{value: uuid.New().String()}
}

// NewDraftIDFromString creates a DraftID from an existing string
func NewDraftIDFromString(id string) (DraftID, error) {
	if id == "" {
		return DraftID{}, errors.New("draft ID cannot be empty")
	}
	if !isValidUUID(id) {
		return DraftID{}, errors.New("draft ID must be a valid UUID")
	}
	return DraftID{value: id}, nil
}

// String returns the string representation of the DraftID
func (id DraftID) String() string {
	return id.value
}

// Equals checks if two DraftIDs are equal
func (id DraftID) Equals(other DraftID) bool {
	return id.value == other.value
}

// IsZero checks if the DraftID is the zero value
func (id DraftID) IsZero() bool {
	return id.value == ""
}

// MarshalJSON implements json.Marshaler
func (id DraftID) MarshalJSON() ([]byte, error) {
	return []byte(`"` + id.value + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (id *DraftID) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return errors.New("DraftID must be a string")
	}
	id.value = string(data[1 : len(data)-1])
	return nil
}

// isValidUUID validates if a string is a valid UUID
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
