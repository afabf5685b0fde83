package store

import (
	caterrors "github.com/standardbeagle/medcat/internal/errors"
	"github.com/standardbeagle/medcat/internal/schema"
	"github.com/standardbeagle/medcat/internal/types"
)

// Store is an immutable collection of validated content records keyed by
// id. It is built once by Load and is safe for concurrent readers without
// locking. Returned records must be treated as read-only.
type Store struct {
	records []*types.ContentRecord // insertion order
	index   map[types.RecordID]int
}

// Load validates every record and publishes a store only if all of them
// pass. On failure it returns a *errors.ValidationErrors listing every
// violation and no store.
func Load(records []types.ContentRecord) (*Store, error) {
	return LoadWithValidator(records, schema.NewValidator())
}

// LoadWithValidator is Load with a caller-supplied schema validator
func LoadWithValidator(records []types.ContentRecord, validator *schema.Validator) (*Store, error) {
	if validator == nil {
		validator = schema.NewValidator()
	}

	var errs []*caterrors.ValidationError
	s := &Store{
		records: make([]*types.ContentRecord, 0, len(records)),
		index:   make(map[types.RecordID]int, len(records)),
	}

	for i := range records {
		errs = append(errs, validator.Validate(&records[i])...)

		id := records[i].ID
		if id == "" {
			continue
		}
		if _, dup := s.index[id]; dup {
			errs = append(errs, caterrors.NewValidationError(id, "id", "duplicate id"))
			continue
		}

		rec := records[i].Clone()
		s.index[id] = len(s.records)
		s.records = append(s.records, &rec)
	}

	if err := caterrors.NewValidationErrors(errs); err != nil {
		return nil, err
	}
	return s, nil
}

// Get returns the record with id, or a *errors.NotFoundError
func (s *Store) Get(id types.RecordID) (*types.ContentRecord, error) {
	if i, ok := s.index[id]; ok {
		return s.records[i], nil
	}
	return nil, caterrors.NewNotFoundError(id)
}

// Has reports whether id is present
func (s *Store) Has(id types.RecordID) bool {
	_, ok := s.index[id]
	return ok
}

// All returns every record in insertion order. The slice is a copy; the
// records are shared.
func (s *Store) All() []*types.ContentRecord {
	out := make([]*types.ContentRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Len returns the number of records
func (s *Store) Len() int {
	return len(s.records)
}

// Each calls fn for every record in insertion order until fn returns false
func (s *Store) Each(fn func(i int, rec *types.ContentRecord) bool) {
	for i, rec := range s.records {
		if !fn(i, rec) {
			return
		}
	}
}
