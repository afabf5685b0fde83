// Package catalog composes the store and its derived indices into an
// immutable Snapshot, and swaps snapshots atomically on reload.
package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/gofhir/fhir/r4"

	"github.com/standardbeagle/medcat/internal/category"
	"github.com/standardbeagle/medcat/internal/codemap"
	"github.com/standardbeagle/medcat/internal/schema"
	"github.com/standardbeagle/medcat/internal/search"
	"github.com/standardbeagle/medcat/internal/store"
	"github.com/standardbeagle/medcat/internal/types"
	"github.com/standardbeagle/medcat/internal/xref"
)

// Options configure how a snapshot is built
type Options struct {
	Search    search.Options
	Validator *schema.Validator // nil uses schema.NewValidator()
}

// DefaultOptions returns the options used without configuration
func DefaultOptions() Options {
	return Options{Search: search.DefaultOptions()}
}

// Snapshot is one fully validated, read-only view of the catalog. Every
// query method is safe for concurrent use and has no side effects.
type Snapshot struct {
	store    *store.Store
	index    *category.Index
	resolver *xref.Resolver
	mapper   *codemap.Mapper
	engine   *search.Engine

	fingerprint uint64
	builtAt     time.Time
	warnings    []xref.DanglingRef
}

// Build validates records and the category grouping and derives every
// index. Any validation failure returns an error and no snapshot; dangling
// cross-references are kept as warnings.
func Build(records []types.ContentRecord, categories category.Grouping, opts Options) (*Snapshot, error) {
	fp, err := Fingerprint(records, categories)
	if err != nil {
		return nil, err
	}

	s, err := store.LoadWithValidator(records, opts.Validator)
	if err != nil {
		return nil, err
	}
	idx, err := category.Build(s, categories)
	if err != nil {
		return nil, err
	}

	resolver := xref.NewResolver(s)
	return &Snapshot{
		store:       s,
		index:       idx,
		resolver:    resolver,
		mapper:      codemap.NewMapper(s),
		engine:      search.NewEngine(s, opts.Search),
		fingerprint: fp,
		builtAt:     time.Now(),
		warnings:    resolver.Dangling(),
	}, nil
}

// Fingerprint hashes the canonical JSON of the build inputs. encoding/json
// sorts map keys, so equal inputs always hash equal.
func Fingerprint(records []types.ContentRecord, categories category.Grouping) (uint64, error) {
	h := xxhash.New()
	enc := json.NewEncoder(h)
	if err := enc.Encode(records); err != nil {
		return 0, fmt.Errorf("fingerprint records: %w", err)
	}
	if err := enc.Encode(categories); err != nil {
		return 0, fmt.Errorf("fingerprint categories: %w", err)
	}
	return h.Sum64(), nil
}

// GetEntry returns the record with id or a *errors.NotFoundError
func (s *Snapshot) GetEntry(id types.RecordID) (*types.ContentRecord, error) {
	return s.store.Get(id)
}

// SearchByKeyword returns records matching query in rank order
func (s *Snapshot) SearchByKeyword(query string) []*types.ContentRecord {
	return s.engine.SearchByKeyword(query)
}

// SearchEmergencies returns critical records matching query in rank order
func (s *Snapshot) SearchEmergencies(query string) []*types.ContentRecord {
	return s.engine.SearchEmergencies(query)
}

// Search returns ranked hits with their match tier
func (s *Snapshot) Search(query string) []search.Hit {
	return s.engine.Search(query)
}

// Limit caps hits for display, see search.Engine.Limit
func (s *Snapshot) Limit(hits []search.Hit, n int) ([]search.Hit, bool) {
	return s.engine.Limit(hits, n)
}

// Suggest returns "did you mean" candidates for query
func (s *Snapshot) Suggest(query string, limit int) []search.Suggestion {
	return s.engine.Suggest(query, limit)
}

// GetByCategory returns the records in category, nil if it is unknown
func (s *Snapshot) GetByCategory(name string) []*types.ContentRecord {
	return s.index.ByCategory(name)
}

// Categories returns every category name, sorted
func (s *Snapshot) Categories() []string {
	return s.index.Categories()
}

// HasCategory reports whether name is a registered category, even an empty one
func (s *Snapshot) HasCategory(name string) bool {
	return s.index.Has(name)
}

// CategoryCount returns the number of records in category
func (s *Snapshot) CategoryCount(name string) int {
	return s.index.Count(name)
}

// CategoriesOf returns the categories id belongs to
func (s *Snapshot) CategoriesOf(id types.RecordID) []string {
	return s.index.CategoriesOf(id)
}

// GetCount returns the number of records
func (s *Snapshot) GetCount() int {
	return s.store.Len()
}

// GetICD11Map returns id -> ICD-11 code for every mapped record
func (s *Snapshot) GetICD11Map() map[types.RecordID]string {
	return s.mapper.AsMap()
}

// ToExternalCode returns the ICD-11 code of id, ok false when unmapped
func (s *Snapshot) ToExternalCode(id types.RecordID) (string, bool) {
	return s.mapper.ToExternalCode(id)
}

// Mappings returns the mapped records in store order
func (s *Snapshot) Mappings() []codemap.Mapping {
	return s.mapper.Mappings()
}

// ValueSet exports the ICD-11 mapping as a FHIR R4 ValueSet
func (s *Snapshot) ValueSet(url string) *r4.ValueSet {
	return s.mapper.ValueSet(url)
}

// Related resolves the direct cross-references of id
func (s *Snapshot) Related(id types.RecordID) ([]xref.Resolution, error) {
	return s.resolver.Resolve(id)
}

// ReferencedBy returns the records whose cross-references point at id, in
// store order
func (s *Snapshot) ReferencedBy(id types.RecordID) []*types.ContentRecord {
	ids := s.resolver.Inbound(id)
	out := make([]*types.ContentRecord, 0, len(ids))
	for _, src := range ids {
		if rec, err := s.store.Get(src); err == nil {
			out = append(out, rec)
		}
	}
	return out
}

// All returns every record in insertion order
func (s *Snapshot) All() []*types.ContentRecord {
	return s.store.All()
}

// Fingerprint identifies the inputs this snapshot was built from
func (s *Snapshot) Fingerprint() uint64 {
	return s.fingerprint
}

// FingerprintHex is Fingerprint formatted for display
func (s *Snapshot) FingerprintHex() string {
	return strconv.FormatUint(s.fingerprint, 16)
}

func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}

// Warnings lists the dangling cross-references found at build time
func (s *Snapshot) Warnings() []xref.DanglingRef {
	out := make([]xref.DanglingRef, len(s.warnings))
	copy(out, s.warnings)
	return out
}

// Stats summarizes a snapshot
type Stats struct {
	Records     int                      `json:"records"`
	Categories  int                      `json:"categories"`
	Mapped      int                      `json:"mapped"`
	Emergencies int                      `json:"emergencies"`
	Dangling    int                      `json:"dangling"`
	ByType      map[types.RecordType]int `json:"byType"`
	ByStatus    map[types.Status]int     `json:"byStatus"`
	Fingerprint string                   `json:"fingerprint"`
	BuiltAt     time.Time                `json:"builtAt"`
}

func (s *Snapshot) Stats() Stats {
	st := Stats{
		Records:     s.store.Len(),
		Categories:  len(s.index.Categories()),
		Mapped:      s.mapper.Len(),
		Dangling:    len(s.warnings),
		ByType:      make(map[types.RecordType]int),
		ByStatus:    make(map[types.Status]int),
		Fingerprint: s.FingerprintHex(),
		BuiltAt:     s.builtAt,
	}
	s.store.Each(func(_ int, rec *types.ContentRecord) bool {
		st.ByType[rec.Type]++
		st.ByStatus[rec.Status]++
		if rec.IsEmergency() {
			st.Emergencies++
		}
		return true
	})
	return st
}
