package category

import (
	"fmt"
	"sort"
	"strings"

	caterrors "github.com/standardbeagle/medcat/internal/errors"
	"github.com/standardbeagle/medcat/internal/store"
	"github.com/standardbeagle/medcat/internal/types"
)

// Grouping maps a category (specialty) name to the ids it lists
type Grouping map[string][]types.RecordID

// Index groups store records by category. A record may belong to zero or
// many categories, so the per-category counts need not sum to the store size.
type Index struct {
	names      []string // sorted
	members    map[string][]*types.ContentRecord
	membership map[types.RecordID][]string
}

// Build resolves every id in grouping against s. An unknown id, an empty
// category name or an id listed twice in one category is an authoring bug
// and fails the build with *errors.ValidationErrors.
func Build(s *store.Store, grouping Grouping) (*Index, error) {
	idx := &Index{
		names:      make([]string, 0, len(grouping)),
		members:    make(map[string][]*types.ContentRecord, len(grouping)),
		membership: make(map[types.RecordID][]string),
	}

	for name := range grouping {
		idx.names = append(idx.names, name)
	}
	sort.Strings(idx.names)

	var errs []*caterrors.ValidationError
	for _, name := range idx.names {
		field := "categories." + name
		if strings.TrimSpace(name) == "" {
			errs = append(errs, caterrors.NewValidationError("", "categories", "empty category name"))
			continue
		}

		ids := grouping[name]
		seen := make(map[types.RecordID]bool, len(ids))
		records := make([]*types.ContentRecord, 0, len(ids))
		for _, id := range ids {
			if seen[id] {
				errs = append(errs, caterrors.NewValidationError("", field, fmt.Sprintf("id %q listed twice", id)))
				continue
			}
			seen[id] = true

			rec, err := s.Get(id)
			if err != nil {
				errs = append(errs, caterrors.NewValidationError("", field, fmt.Sprintf("unknown id %q", id)))
				continue
			}
			records = append(records, rec)
			idx.membership[id] = append(idx.membership[id], name)
		}
		idx.members[name] = records
	}

	if err := caterrors.NewValidationErrors(errs); err != nil {
		return nil, err
	}
	return idx, nil
}

// ByCategory returns the records of name in the order the grouping lists
// them. An unknown category yields nil.
func (idx *Index) ByCategory(name string) []*types.ContentRecord {
	members, ok := idx.members[name]
	if !ok {
		return nil
	}
	out := make([]*types.ContentRecord, len(members))
	copy(out, members)
	return out
}

// Categories returns every category name, sorted
func (idx *Index) Categories() []string {
	out := make([]string, len(idx.names))
	copy(out, idx.names)
	return out
}

// Count returns the number of records in name, 0 for unknown categories
func (idx *Index) Count(name string) int {
	return len(idx.members[name])
}

// Has reports whether name is a known category
func (idx *Index) Has(name string) bool {
	_, ok := idx.members[name]
	return ok
}

// CategoriesOf returns the categories id belongs to, sorted
func (idx *Index) CategoriesOf(id types.RecordID) []string {
	names := idx.membership[id]
	out := make([]string, len(names))
	copy(out, names)
	return out
}
