package search

import (
	"sort"
	"strings"

	"github.com/hbollon/go-edlib"

	"github.com/standardbeagle/medcat/internal/types"
)

// Fuzzy matching defaults
const (
	DefaultFuzzyThreshold = 0.85
	DefaultSuggestLimit   = 5
)

// Suggestion is a "did you mean" candidate for a query that found nothing
type Suggestion struct {
	ID      types.RecordID `json:"id"`
	Name    string         `json:"name"`
	Matched string         `json:"matched"` // the name or alternate name that scored best
	Score   float64        `json:"score"`
}

// similarity returns the Jaro-Winkler similarity of two lower-case strings
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	score, err := edlib.StringsSimilarity(a, b, edlib.JaroWinkler)
	if err != nil {
		return 0.0
	}
	return float64(score)
}

// Suggest returns records whose name or an alternate name is similar to
// query, best first, ties by insertion order. limit <= 0 uses the engine's
// configured suggest limit.
func (e *Engine) Suggest(query string, limit int) []Suggestion {
	q := strings.Join(tokenize(query), " ")
	if q == "" {
		return nil
	}
	if limit <= 0 {
		limit = e.opts.SuggestLimit
	}

	var candidates []Suggestion
	for _, doc := range e.docs {
		var best Suggestion
		for i, name := range doc.names {
			if score := similarity(q, name); score > best.Score {
				best = Suggestion{
					ID:      doc.record.ID,
					Name:    doc.record.Name,
					Matched: doc.displayNames[i],
					Score:   score,
				}
			}
		}
		if best.Score >= e.opts.FuzzyThreshold {
			candidates = append(candidates, best)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}
