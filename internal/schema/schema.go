// Package schema checks content records against the catalog's data
// contract. Validation runs once at load time; queries never re-check.
package schema

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	caterrors "github.com/standardbeagle/medcat/internal/errors"
	"github.com/standardbeagle/medcat/internal/types"
)

// Validator checks records against the schema. The zero value is usable.
type Validator struct {
	// AllowEmptyLevels permits records with no levels at all. Off by default.
	AllowEmptyLevels bool
}

// NewValidator creates a validator with default rules
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns every violation found in rec, or nil if it is valid
func (v *Validator) Validate(rec *types.ContentRecord) []*caterrors.ValidationError {
	if rec == nil {
		return []*caterrors.ValidationError{caterrors.NewValidationError("", "", "nil record")}
	}

	var errs []*caterrors.ValidationError
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, caterrors.NewValidationError(rec.ID, field, fmt.Sprintf(format, args...)))
	}

	switch {
	case rec.ID == "":
		add("id", "must not be empty")
	case strings.IndexFunc(string(rec.ID), unicode.IsSpace) >= 0:
		add("id", "must not contain whitespace")
	}

	if !rec.Type.Valid() {
		add("type", "unknown record type %q", rec.Type)
	}
	if strings.TrimSpace(rec.Name) == "" {
		add("name", "must not be empty")
	}
	for i, alt := range rec.AlternateNames {
		if strings.TrimSpace(alt) == "" {
			add(fmt.Sprintf("alternateNames[%d]", i), "must not be blank")
		}
	}

	errs = append(errs, v.validateLevels(rec)...)

	for i, ref := range rec.CrossReferences {
		field := fmt.Sprintf("crossReferences[%d]", i)
		if ref.TargetID == "" {
			add(field+".targetId", "must not be empty")
		}
		if ref.TargetType != "" && !ref.TargetType.Valid() {
			add(field+".targetType", "unknown record type %q", ref.TargetType)
		}
		if strings.TrimSpace(ref.Relationship) == "" {
			add(field+".relationship", "must not be empty")
		}
	}

	for i, m := range rec.Media {
		if m.ID == "" {
			add(fmt.Sprintf("media[%d].id", i), "must not be empty")
		}
	}
	for i, c := range rec.Citations {
		if c.ID == "" && c.Title == "" {
			add(fmt.Sprintf("citations[%d]", i), "needs an id or a title")
		}
	}

	if !rec.Tags.ClinicalRelevance.Valid() {
		add("tags.clinicalRelevance", "unknown value %q", rec.Tags.ClinicalRelevance)
	}
	var unknownBoards []string
	for board := range rec.Tags.ExamRelevance {
		if !board.Valid() {
			unknownBoards = append(unknownBoards, string(board))
		}
	}
	sort.Strings(unknownBoards)
	for _, board := range unknownBoards {
		add("tags.examRelevance", "unknown exam flag %q", board)
	}

	if !rec.Status.Valid() {
		add("status", "unknown status %q", rec.Status)
	}
	if rec.Version < 1 {
		add("version", "must be at least 1, got %d", rec.Version)
	}
	if !rec.CreatedAt.IsZero() && !rec.UpdatedAt.IsZero() && rec.UpdatedAt.Before(rec.CreatedAt) {
		add("updatedAt", "precedes createdAt")
	}

	return errs
}

// validateLevels enforces the contiguous 1..N key range
func (v *Validator) validateLevels(rec *types.ContentRecord) []*caterrors.ValidationError {
	var errs []*caterrors.ValidationError
	if len(rec.Levels) == 0 {
		if !v.AllowEmptyLevels {
			errs = append(errs, caterrors.NewValidationError(rec.ID, "levels", "at least one level is required"))
		}
		return errs
	}

	for _, n := range rec.LevelNumbers() {
		level := rec.Levels[n]
		if n < 1 {
			errs = append(errs, caterrors.NewValidationError(rec.ID, "levels",
				fmt.Sprintf("level key %d is out of range", n)))
			continue
		}
		if level.Level != n {
			errs = append(errs, caterrors.NewValidationError(rec.ID, fmt.Sprintf("levels[%d].level", n),
				fmt.Sprintf("declares level %d", level.Level)))
		}
		errs = append(errs, v.validateKeyTerms(rec.ID, n, level.KeyTerms)...)
	}

	// a record claiming level N must define 1..N-1 as well
	maxLevel := rec.MaxLevel()
	for n := 1; n < maxLevel; n++ {
		if _, ok := rec.Levels[n]; !ok {
			errs = append(errs, caterrors.NewValidationError(rec.ID, "levels",
				fmt.Sprintf("missing level %d (record defines up to %d)", n, maxLevel)))
		}
	}
	return errs
}

// validateKeyTerms requires every term to be non-blank and unique within
// its level, compared case-insensitively
func (v *Validator) validateKeyTerms(id types.RecordID, level int, terms []types.KeyTerm) []*caterrors.ValidationError {
	var errs []*caterrors.ValidationError
	seen := make(map[string]bool, len(terms))
	for i, kt := range terms {
		field := fmt.Sprintf("levels[%d].keyTerms[%d].term", level, i)
		term := strings.ToLower(strings.TrimSpace(kt.Term))
		switch {
		case term == "":
			errs = append(errs, caterrors.NewValidationError(id, field, "must not be blank"))
		case seen[term]:
			errs = append(errs, caterrors.NewValidationError(id, field, fmt.Sprintf("duplicates key term %q", kt.Term)))
		}
		seen[term] = true
	}
	return errs
}

// LevelsContiguous reports whether rec's level keys are exactly 1..max
func LevelsContiguous(rec *types.ContentRecord) bool {
	nums := rec.LevelNumbers()
	for i, n := range nums {
		if n != i+1 {
			return false
		}
	}
	return true
}
