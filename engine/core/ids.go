package core

import (
	"fmt"

	"github.com/segmentio/ksuid"
)

// ID is an opaque, sortable-by-creation-time engine identifier.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) IsZero() bool { return id == "" }

// NewID generates a fresh ID. Used for sweep-run and reconciliation-run
// correlation identifiers; never persisted as node data.
func NewID() (ID, error) {
	id, err := ksuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate new id: %w", err)
	}
	return ID(id.String()), nil
}

func MustNewID() ID {
	id, err := NewID()
	if err != nil {
		panic(err)
	}
	return id
}
