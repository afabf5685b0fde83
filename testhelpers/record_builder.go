// Package testhelpers provides shared fixtures for testing the content catalog
package testhelpers

import (
	"fmt"
	"time"

	"github.com/standardbeagle/medcat/internal/types"
)

// FixtureTime is the creation timestamp stamped on every built record
var FixtureTime = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

// RecordBuilder provides a fluent API for building valid content records.
// Usage:
//
//	rec := testhelpers.NewRecord("condition-adhd", "ADHD").
//		WithLevels(5).
//		WithKeywords("attention", "hyperactivity").
//		Build()
type RecordBuilder struct {
	rec types.ContentRecord
}

// NewRecord starts a published, moderate-relevance condition with one level
func NewRecord(id types.RecordID, name string) *RecordBuilder {
	return &RecordBuilder{rec: types.ContentRecord{
		ID:             id,
		Type:           types.RecordTypeCondition,
		Name:           name,
		AlternateNames: []string{},
		Levels:         levels(name, 1),
		Media:          []types.Media{},
		Citations:      []types.Citation{},
		Tags: types.Tags{
			Systems:           []string{},
			Topics:            []string{},
			Keywords:          []string{},
			ClinicalRelevance: types.RelevanceModerate,
		},
		CreatedAt: FixtureTime,
		UpdatedAt: FixtureTime,
		Version:   1,
		Status:    types.StatusPublished,
	}}
}

func levels(name string, n int) map[int]types.ContentLevel {
	out := make(map[int]types.ContentLevel, n)
	for i := 1; i <= n; i++ {
		out[i] = types.ContentLevel{
			Level:       i,
			Summary:     fmt.Sprintf("%s at level %d", name, i),
			Explanation: fmt.Sprintf("Level %d explanation of %s.", i, name),
			KeyTerms:    []types.KeyTerm{},
		}
	}
	return out
}

// WithType sets the record kind
func (b *RecordBuilder) WithType(t types.RecordType) *RecordBuilder {
	b.rec.Type = t
	return b
}

// WithLevels replaces the levels with a contiguous 1..n range
func (b *RecordBuilder) WithLevels(n int) *RecordBuilder {
	b.rec.Levels = levels(b.rec.Name, n)
	return b
}

// WithLevel sets or replaces a single level, allowing gaps for negative tests
func (b *RecordBuilder) WithLevel(n int, explanation string) *RecordBuilder {
	if b.rec.Levels == nil {
		b.rec.Levels = map[int]types.ContentLevel{}
	}
	b.rec.Levels[n] = types.ContentLevel{
		Level:       n,
		Summary:     fmt.Sprintf("%s at level %d", b.rec.Name, n),
		Explanation: explanation,
		KeyTerms:    []types.KeyTerm{},
	}
	return b
}

// WithoutLevel deletes level n
func (b *RecordBuilder) WithoutLevel(n int) *RecordBuilder {
	delete(b.rec.Levels, n)
	return b
}

// WithAlternateNames sets the ordered alternate names
func (b *RecordBuilder) WithAlternateNames(names ...string) *RecordBuilder {
	b.rec.AlternateNames = names
	return b
}

// WithKeywords sets tags.keywords
func (b *RecordBuilder) WithKeywords(keywords ...string) *RecordBuilder {
	b.rec.Tags.Keywords = keywords
	return b
}

// WithSystems sets tags.systems
func (b *RecordBuilder) WithSystems(systems ...string) *RecordBuilder {
	b.rec.Tags.Systems = systems
	return b
}

// WithRelevance sets tags.clinicalRelevance
func (b *RecordBuilder) WithRelevance(r types.ClinicalRelevance) *RecordBuilder {
	b.rec.Tags.ClinicalRelevance = r
	return b
}

// Critical is shorthand for WithRelevance(types.RelevanceCritical)
func (b *RecordBuilder) Critical() *RecordBuilder {
	return b.WithRelevance(types.RelevanceCritical)
}

// WithExam flags the record as relevant to board
func (b *RecordBuilder) WithExam(board types.ExamBoard) *RecordBuilder {
	if b.rec.Tags.ExamRelevance == nil {
		b.rec.Tags.ExamRelevance = types.ExamRelevance{}
	}
	b.rec.Tags.ExamRelevance[board] = true
	return b
}

// WithICD11 sets the external ICD-11 code
func (b *RecordBuilder) WithICD11(code string) *RecordBuilder {
	b.rec.ICD11Code = code
	return b
}

// WithLocalizedName sets the secondary-language name
func (b *RecordBuilder) WithLocalizedName(name string) *RecordBuilder {
	b.rec.LocalizedName = name
	return b
}

// WithCrossRef appends a cross-reference edge
func (b *RecordBuilder) WithCrossRef(target types.RecordID, relationship, label string) *RecordBuilder {
	b.rec.CrossReferences = append(b.rec.CrossReferences, types.CrossReference{
		TargetID:     target,
		TargetType:   types.RecordTypeCondition,
		Relationship: relationship,
		Label:        label,
	})
	return b
}

// WithStatus sets the editorial status
func (b *RecordBuilder) WithStatus(s types.Status) *RecordBuilder {
	b.rec.Status = s
	return b
}

// WithVersion sets the record version
func (b *RecordBuilder) WithVersion(v int) *RecordBuilder {
	b.rec.Version = v
	return b
}

// Build returns a copy of the record so the builder may be reused
func (b *RecordBuilder) Build() types.ContentRecord {
	rec := b.rec
	rec.Levels = make(map[int]types.ContentLevel, len(b.rec.Levels))
	for n, l := range b.rec.Levels {
		rec.Levels[n] = l
	}
	rec.CrossReferences = append([]types.CrossReference(nil), b.rec.CrossReferences...)
	return rec
}
