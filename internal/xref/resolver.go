// Package xref resolves cross-reference edges between content records.
// Edges are stored as target ids only and resolved one hop at a time, so
// cycles (ADHD -> anxiety -> ADHD) never cause unbounded work.
package xref

import (
	"fmt"

	"github.com/standardbeagle/medcat/internal/store"
	"github.com/standardbeagle/medcat/internal/types"
)

// DanglingRef marks an edge whose target id is not in the store
type DanglingRef struct {
	SourceID types.RecordID `json:"sourceId"`
	TargetID types.RecordID `json:"targetId"`
	Label    string         `json:"label"`
}

func (d DanglingRef) String() string {
	return fmt.Sprintf("%s -> %s (%s): dangling", d.SourceID, d.TargetID, d.Label)
}

// Resolution is one resolved edge. Exactly one of Record and Dangling is set.
type Resolution struct {
	Relationship string               `json:"relationship"`
	Label        string               `json:"label"`
	Record       *types.ContentRecord `json:"record,omitempty"`
	Dangling     *DanglingRef         `json:"dangling,omitempty"`
}

// IsDangling reports whether the edge target is missing
func (r Resolution) IsDangling() bool {
	return r.Dangling != nil
}

// Resolver resolves edges against a single store
type Resolver struct {
	store *store.Store
}

func NewResolver(s *store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve returns the edges of id in declared order. A missing source id is
// a *errors.NotFoundError; a missing target is reported in place as a
// DanglingRef and is never an error.
func (r *Resolver) Resolve(id types.RecordID) ([]Resolution, error) {
	src, err := r.store.Get(id)
	if err != nil {
		return nil, err
	}
	return r.resolveRecord(src), nil
}

func (r *Resolver) resolveRecord(src *types.ContentRecord) []Resolution {
	out := make([]Resolution, 0, len(src.CrossReferences))
	for _, ref := range src.CrossReferences {
		res := Resolution{Relationship: ref.Relationship, Label: ref.Label}
		if target, err := r.store.Get(ref.TargetID); err == nil {
			res.Record = target
		} else {
			res.Dangling = &DanglingRef{SourceID: src.ID, TargetID: ref.TargetID, Label: ref.Label}
		}
		out = append(out, res)
	}
	return out
}

// Dangling lists every unresolvable edge in the store, in store order then
// edge order. Used to surface authoring warnings after a load.
func (r *Resolver) Dangling() []DanglingRef {
	var out []DanglingRef
	r.store.Each(func(_ int, rec *types.ContentRecord) bool {
		for _, ref := range rec.CrossReferences {
			if !r.store.Has(ref.TargetID) {
				out = append(out, DanglingRef{SourceID: rec.ID, TargetID: ref.TargetID, Label: ref.Label})
			}
		}
		return true
	})
	return out
}

// Inbound returns the ids of records whose edges point at id, in store order
func (r *Resolver) Inbound(id types.RecordID) []types.RecordID {
	var out []types.RecordID
	r.store.Each(func(_ int, rec *types.ContentRecord) bool {
		for _, ref := range rec.CrossReferences {
			if ref.TargetID == id {
				out = append(out, rec.ID)
				break
			}
		}
		return true
	})
	return out
}
