// Package display renders catalog records and query results for the terminal
package display

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/standardbeagle/medcat/internal/search"
	"github.com/standardbeagle/medcat/internal/types"
	"github.com/standardbeagle/medcat/internal/xref"
)

// RecordFormatter formats records, search hits and cross-references
type RecordFormatter struct {
	options FormatterOptions
}

// FormatterOptions controls formatting
type FormatterOptions struct {
	Format     string // "text", "json", "compact"
	Level      int    // print only this level's explanation; 0 = summaries of all levels
	ShowLevels bool   // include level summaries in text output
	Indent     string // indentation string
}

// NewRecordFormatter creates a new record formatter
func NewRecordFormatter(options FormatterOptions) *RecordFormatter {
	if options.Indent == "" {
		options.Indent = "  "
	}
	return &RecordFormatter{options: options}
}

// FormatRecord formats one record with the categories it belongs to
func (rf *RecordFormatter) FormatRecord(rec *types.ContentRecord, categories []string) string {
	if rec == nil {
		return "No record"
	}

	switch rf.options.Format {
	case "json":
		return rf.formatJSON(rec)
	case "compact":
		return rf.compactRecord(rec)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", rec.Name, rec.ID)
	fmt.Fprintf(&sb, "%stype: %s, status: %s, relevance: %s\n", rf.options.Indent, rec.Type, rec.Status, rec.Tags.ClinicalRelevance)
	if len(rec.AlternateNames) > 0 {
		fmt.Fprintf(&sb, "%salso: %s\n", rf.options.Indent, strings.Join(rec.AlternateNames, ", "))
	}
	if rec.LocalizedName != "" {
		fmt.Fprintf(&sb, "%slocalized: %s\n", rf.options.Indent, rec.LocalizedName)
	}
	if rec.HasExternalCode() {
		fmt.Fprintf(&sb, "%sICD-11: %s\n", rf.options.Indent, rec.ICD11Code)
	}
	if len(categories) > 0 {
		fmt.Fprintf(&sb, "%scategories: %s\n", rf.options.Indent, strings.Join(categories, ", "))
	}
	if boards := rec.Tags.ExamRelevance.Boards(); len(boards) > 0 {
		names := make([]string, len(boards))
		for i, b := range boards {
			names[i] = string(b)
		}
		fmt.Fprintf(&sb, "%sexams: %s\n", rf.options.Indent, strings.Join(names, ", "))
	}
	if rec.IsEmergency() {
		fmt.Fprintf(&sb, "%s! emergency\n", rf.options.Indent)
	}

	if rf.options.Level > 0 {
		level, ok := rec.Level(rf.options.Level)
		if !ok {
			fmt.Fprintf(&sb, "\nlevel %d not present (max %d)\n", rf.options.Level, rec.MaxLevel())
			return sb.String()
		}
		fmt.Fprintf(&sb, "\nLevel %d: %s\n\n%s\n", level.Level, level.Summary, level.Explanation)
		for _, kt := range level.KeyTerms {
			fmt.Fprintf(&sb, "%s- %s: %s\n", rf.options.Indent, kt.Term, kt.Definition)
		}
		return sb.String()
	}

	if rf.options.ShowLevels {
		sb.WriteString("\n")
		for _, n := range rec.LevelNumbers() {
			level, _ := rec.Level(n)
			fmt.Fprintf(&sb, "%s%d. %s\n", rf.options.Indent, n, level.Summary)
		}
	}
	return sb.String()
}

// FormatHits formats ranked search results. suggestions are shown only when
// there are no hits.
func (rf *RecordFormatter) FormatHits(query string, hits []search.Hit, suggestions []search.Suggestion) string {
	if rf.options.Format == "json" {
		return rf.formatJSON(struct {
			Query       string              `json:"query"`
			Results     []search.Hit        `json:"results"`
			Suggestions []search.Suggestion `json:"suggestions,omitempty"`
		}{query, nonNilHits(hits), suggestions})
	}

	var sb strings.Builder
	if len(hits) == 0 {
		fmt.Fprintf(&sb, "No results for %q\n", query)
		if len(suggestions) > 0 {
			names := make([]string, 0, len(suggestions))
			for _, s := range suggestions {
				names = append(names, fmt.Sprintf("%s (%s)", s.Matched, s.ID))
			}
			fmt.Fprintf(&sb, "Did you mean: %s\n", strings.Join(names, ", "))
		}
		return sb.String()
	}

	for _, h := range hits {
		marker := " "
		if h.Record.IsEmergency() {
			marker = "!"
		}
		fmt.Fprintf(&sb, "%s %-14s %-45s %s\n", marker, h.Tier, h.Record.ID, h.Record.Name)
	}
	fmt.Fprintf(&sb, "%d result(s)\n", len(hits))
	return sb.String()
}

// FormatRelated formats the cross-references of one record as a tree,
// followed by the records that point back at it
func (rf *RecordFormatter) FormatRelated(rec *types.ContentRecord, resolutions []xref.Resolution, referencedBy []*types.ContentRecord) string {
	if rec == nil {
		return "No record"
	}
	if rf.options.Format == "json" {
		return rf.formatJSON(struct {
			Related      []xref.Resolution       `json:"related"`
			ReferencedBy []*types.ContentRecord `json:"referencedBy"`
		}{resolutions, referencedBy})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "→ %s (%s)\n", rec.Name, rec.ID)
	if len(resolutions) == 0 {
		fmt.Fprintf(&sb, "%s(no cross-references)\n", rf.options.Indent)
	}

	for i, r := range resolutions {
		branch := "├─→ "
		if i == len(resolutions)-1 {
			branch = "└─→ "
		}
		sb.WriteString(rf.options.Indent)
		sb.WriteString(branch)
		if r.IsDangling() {
			fmt.Fprintf(&sb, "%s %s [%s] (dangling)\n", r.Relationship, r.Dangling.TargetID, r.Label)
			continue
		}
		fmt.Fprintf(&sb, "%s %s (%s)\n", r.Relationship, r.Record.Name, r.Record.ID)
	}
	for _, src := range referencedBy {
		fmt.Fprintf(&sb, "%s←── referenced by %s (%s)\n", rf.options.Indent, src.Name, src.ID)
	}
	return sb.String()
}

// compactRecord formats a record on one line
func (rf *RecordFormatter) compactRecord(rec *types.ContentRecord) string {
	parts := []string{string(rec.ID), rec.Name, string(rec.Type)}
	if rec.HasExternalCode() {
		parts = append(parts, "icd11="+rec.ICD11Code)
	}
	parts = append(parts, fmt.Sprintf("levels=%d", len(rec.Levels)))
	if rec.IsEmergency() {
		parts = append(parts, "emergency")
	}
	return strings.Join(parts, " | ")
}

// formatJSON formats v as indented JSON
func (rf *RecordFormatter) formatJSON(v interface{}) string {
	data, err := json.MarshalIndent(v, "", rf.options.Indent)
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(data)
}

func nonNilHits(hits []search.Hit) []search.Hit {
	if hits == nil {
		return []search.Hit{}
	}
	return hits
}
