package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	EventID     ID
	SignatureID ID
)

// Constructors for domain IDs
func NewEventID() EventID         { return EventID(NewID()) }
func NewSignatureID() SignatureID { return SignatureID(NewID()) }

// String conversions for domain IDs
func (id EventID) String() string     { return ID(id).String() }
func (id SignatureID) String() string { return ID(id).String() }

// IsEmpty checks for the zero identifier
func (id EventID) IsEmpty() bool     { return id == "" }
func (id SignatureID) IsEmpty() bool { return id == "" }

// ParseEventID parses a string into EventID
func ParseEventID(s string) (EventID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("event ID cannot be empty")
	}
	return EventID(s), nil
}

// ParseSignatureID parses a string into SignatureID
func ParseSignatureID(s string) (SignatureID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("signature ID cannot be empty")
	}
	return SignatureID(s), nil
}

// NormalizeEntity canonicalizes an entity name the way the loaders do:
// trimmed and lowercased. Every store and selector goes through this so
// "Alpha " and "alpha" address the same entity.
func NormalizeEntity(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeEntities maps NormalizeEntity over a selection, dropping empties.
func NormalizeEntities(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if norm := NormalizeEntity(n); norm != "" {
			out = append(out, norm)
		}
	}
	return out
}
