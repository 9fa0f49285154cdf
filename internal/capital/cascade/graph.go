// Package cascade unwinds and deletes interlinked capital records through an explicit reference graph.
package cascade

import (
	"context"
	"fmt"

	"github.com/equity-capital-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Ref identifies a record in the reference graph
type Ref struct {
	Kind shared.DocumentKind `json:"kind"`
	ID   uuid.UUID           `json:"id"`
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/%s", r.Kind, r.ID)
}

// Direction selects which edges Load returns
type Direction int

const (
	// Forward edges are the live references a record holds to records derived from it
	Forward Direction = iota
	// Lineage edges are back-references: every record whose source is the parent, linked or not
	Lineage
)

// Node is a record with its status and its outgoing edges, in processing order
type Node struct {
	Ref    Ref
	Status shared.DocStatus
	Links  []Ref
}

// Graph adapts a concrete schema to the walker. Each mutating call must be idempotent
// and commit on its own, so a failed cascade can be retried from where it stopped.
type Graph interface {
	// Load returns shared.ErrNotFound when the record does not exist
	Load(ctx context.Context, ref Ref, dir Direction) (*Node, error)
	Cancel(ctx context.Context, ref Ref) error
	Unlink(ctx context.Context, parent, child Ref) error
	Delete(ctx context.Context, ref Ref) error
}
