// Package shared holds value objects and cross-cutting domain types used by
// every aggregate in the engine: identifiers, the clock abstraction, and the
// domain event envelope.
package shared

import "github.com/google/uuid"

// ID is an opaque entity identifier shared by every aggregate in the system.
// Using a single named type (rather than a bare string) keeps call sites from
// transposing a ResourceID for a TaxonomyNodeID by accident.
type ID string

// NewID generates a fresh random identifier.
func NewID() ID {
	return ID(uuid.NewString())
}

func (id ID) String() string { return string(id) }

// Empty reports whether the id was never assigned.
func (id ID) Empty() bool { return id == "" }
