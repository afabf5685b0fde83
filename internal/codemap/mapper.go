// Package codemap projects catalog record ids onto ICD-11 codes
package codemap

import (
	"strings"

	"github.com/gofhir/fhir/r4"

	"github.com/standardbeagle/medcat/internal/store"
	"github.com/standardbeagle/medcat/internal/types"
)

// DefaultValueSetURL is the canonical url of the exported ValueSet
const DefaultValueSetURL = "urn:medcat:valueset:icd11"

// Mapping is one mapped record, in store order
type Mapping struct {
	ID   types.RecordID `json:"id"`
	Name string         `json:"name"`
	Code string         `json:"code"`
}

// Mapper holds the id -> code projection of one store. Records without a
// code are simply absent; that is not an error.
type Mapper struct {
	mappings []Mapping
	byID     map[types.RecordID]string
	byCode   map[string][]types.RecordID
}

func NewMapper(s *store.Store) *Mapper {
	m := &Mapper{
		byID:   make(map[types.RecordID]string),
		byCode: make(map[string][]types.RecordID),
	}
	s.Each(func(_ int, rec *types.ContentRecord) bool {
		if !rec.HasExternalCode() {
			return true
		}
		code := strings.TrimSpace(rec.ICD11Code)
		m.mappings = append(m.mappings, Mapping{ID: rec.ID, Name: rec.Name, Code: code})
		m.byID[rec.ID] = code
		m.byCode[code] = append(m.byCode[code], rec.ID)
		return true
	})
	return m
}

// ToExternalCode returns the ICD-11 code of id. ok is false for unmapped or
// unknown ids.
func (m *Mapper) ToExternalCode(id types.RecordID) (code string, ok bool) {
	code, ok = m.byID[id]
	return code, ok
}

// AsMap returns a fresh id -> code map covering only mapped records
func (m *Mapper) AsMap() map[types.RecordID]string {
	out := make(map[types.RecordID]string, len(m.byID))
	for id, code := range m.byID {
		out[id] = code
	}
	return out
}

// Mappings returns the mapped records in store order
func (m *Mapper) Mappings() []Mapping {
	out := make([]Mapping, len(m.mappings))
	copy(out, m.mappings)
	return out
}

// ByCode returns the ids sharing code, in store order
func (m *Mapper) ByCode(code string) []types.RecordID {
	ids := m.byCode[strings.TrimSpace(code)]
	out := make([]types.RecordID, len(ids))
	copy(out, ids)
	return out
}

// Len returns the number of mapped records
func (m *Mapper) Len() int {
	return len(m.mappings)
}

// ValueSet exports the mapped codes as a FHIR R4 ValueSet composed from the
// ICD-11 MMS code system. Each distinct code appears once, displayed with
// the name of the first record that carries it. An empty url uses
// DefaultValueSetURL.
func (m *Mapper) ValueSet(url string) *r4.ValueSet {
	if url == "" {
		url = DefaultValueSetURL
	}
	system := types.ICD11SystemURI

	concepts := make([]r4.ValueSetComposeIncludeConcept, 0, len(m.byCode))
	seen := make(map[string]bool, len(m.byCode))
	for _, mp := range m.mappings {
		if seen[mp.Code] {
			continue
		}
		seen[mp.Code] = true

		code, display := mp.Code, mp.Name
		concepts = append(concepts, r4.ValueSetComposeIncludeConcept{Code: &code, Display: &display})
	}

	return &r4.ValueSet{
		Url: &url,
		Compose: &r4.ValueSetCompose{
			Include: []r4.ValueSetComposeInclude{
				{System: &system, Concept: concepts},
			},
		},
	}
}
