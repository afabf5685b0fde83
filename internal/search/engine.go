// Package search implements keyword search over an immutable content store.
//
// Ranking is tiered. A record's tier is the best field that contains every
// query token:
//
//	TierExactName      name equals the query
//	TierName           all tokens in name
//	TierAlternateName  all tokens in alternateNames
//	TierKeyword        all tokens in tags.keywords (stem-aware when enabled)
//	TierExplanation    all tokens in level explanation text
//
// Ties within a tier keep store insertion order.
package search

import (
	"sort"
	"strings"

	"github.com/standardbeagle/medcat/internal/store"
	"github.com/standardbeagle/medcat/internal/types"
)

// Tier is a match precedence level; lower values rank first
type Tier int

const (
	TierNone Tier = iota
	TierExactName
	TierName
	TierAlternateName
	TierKeyword
	TierExplanation
)

func (t Tier) String() string {
	switch t {
	case TierExactName:
		return "exact_name"
	case TierName:
		return "name"
	case TierAlternateName:
		return "alternate_name"
	case TierKeyword:
		return "keyword"
	case TierExplanation:
		return "explanation"
	}
	return "none"
}

// MarshalText renders the tier by name in JSON output
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// Options tune the engine. The zero value is usable: no result cap, no
// stemming and default fuzzy settings.
type Options struct {
	MaxResults     int // presentation cap used by Limit, 0 = unlimited
	Stemming       bool
	StemMinLength  int
	StemExclusions []string // words never stemmed, e.g. acronyms
	FuzzyThreshold float64
	SuggestLimit   int
}

// DefaultOptions returns the options used when no configuration is present
func DefaultOptions() Options {
	return Options{
		MaxResults:     0,
		Stemming:       true,
		StemMinLength:  DefaultStemMinLength,
		FuzzyThreshold: DefaultFuzzyThreshold,
		SuggestLimit:   DefaultSuggestLimit,
	}
}

// Hit is one ranked result
type Hit struct {
	Record *types.ContentRecord `json:"record"`
	Tier   Tier                 `json:"tier"`
}

// document holds the lower-cased searchable fields of one record
type document struct {
	record       *types.ContentRecord
	name         string
	altNames     []string
	keywords     []string
	keywordStems map[string]bool
	explanations []string

	// name followed by alternate names, for suggestions
	names        []string
	displayNames []string
}

// Engine answers keyword queries against one store. It is read-only after
// construction and safe for concurrent use.
type Engine struct {
	opts    Options
	stemmer *Stemmer
	docs    []document // store insertion order
}

// NewEngine indexes every record of s
func NewEngine(s *store.Store, opts Options) *Engine {
	if opts.MaxResults < 0 {
		opts.MaxResults = 0
	}
	if opts.StemMinLength <= 0 {
		opts.StemMinLength = DefaultStemMinLength
	}
	if opts.FuzzyThreshold <= 0 || opts.FuzzyThreshold > 1 {
		opts.FuzzyThreshold = DefaultFuzzyThreshold
	}
	if opts.SuggestLimit <= 0 {
		opts.SuggestLimit = DefaultSuggestLimit
	}

	e := &Engine{
		opts:    opts,
		stemmer: NewStemmer(opts.Stemming, opts.StemMinLength, opts.StemExclusions...),
		docs:    make([]document, 0, s.Len()),
	}
	s.Each(func(_ int, rec *types.ContentRecord) bool {
		e.docs = append(e.docs, e.index(rec))
		return true
	})
	return e
}

func (e *Engine) index(rec *types.ContentRecord) document {
	doc := document{
		record:       rec,
		name:         normalize(rec.Name),
		altNames:     normalizeAll(rec.AlternateNames),
		keywords:     normalizeAll(rec.Tags.Keywords),
		names:        []string{normalize(rec.Name)},
		displayNames: []string{rec.Name},
	}
	doc.keywordStems = e.stemmer.StemSet(doc.keywords)

	for _, n := range rec.LevelNumbers() {
		doc.explanations = append(doc.explanations, strings.ToLower(rec.Levels[n].Explanation))
	}
	for i, alt := range rec.AlternateNames {
		doc.names = append(doc.names, doc.altNames[i])
		doc.displayNames = append(doc.displayNames, alt)
	}
	return doc
}

// Options returns the effective options after defaults were applied
func (e *Engine) Options() Options {
	return e.opts
}

// Search returns every ranked hit for query. A blank query returns nil.
// Results are never capped here so filters see the full ranking; callers
// cap for display with Limit.
func (e *Engine) Search(query string) []Hit {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil
	}
	phrase := strings.Join(tokens, " ")

	var hits []Hit
	for i := range e.docs {
		if tier := e.match(&e.docs[i], phrase, tokens); tier != TierNone {
			hits = append(hits, Hit{Record: e.docs[i].record, Tier: tier})
		}
	}

	// docs are in insertion order, so a stable sort keeps ties in that order
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Tier < hits[j].Tier
	})
	return hits
}

// Limit caps hits at n, or at MaxResults when n <= 0. It reports
// whether anything was cut.
func (e *Engine) Limit(hits []Hit, n int) ([]Hit, bool) {
	if n <= 0 {
		n = e.opts.MaxResults
	}
	if n <= 0 || len(hits) <= n {
		return hits, false
	}
	return hits[:n], true
}

// SearchByKeyword returns the records matching query in rank order
func (e *Engine) SearchByKeyword(query string) []*types.ContentRecord {
	return records(e.Search(query))
}

// SearchEmergencies is SearchByKeyword restricted to critical records
func (e *Engine) SearchEmergencies(query string) []*types.ContentRecord {
	return records(Filter(e.Search(query), Emergency))
}

// Emergency selects records tagged with critical clinical relevance
func Emergency(rec *types.ContentRecord) bool {
	return rec.IsEmergency()
}

// Filter keeps the hits whose record satisfies keep, preserving rank order
func Filter(hits []Hit, keep func(*types.ContentRecord) bool) []Hit {
	out := make([]Hit, 0, len(hits))
	for _, h := range hits {
		if keep(h.Record) {
			out = append(out, h)
		}
	}
	return out
}

func (e *Engine) match(doc *document, phrase string, tokens []string) Tier {
	switch {
	case doc.name == phrase:
		return TierExactName
	case containsAll(tokens, func(tok string) bool { return strings.Contains(doc.name, tok) }):
		return TierName
	case containsAll(tokens, func(tok string) bool { return anyContains(doc.altNames, tok) }):
		return TierAlternateName
	case containsAll(tokens, func(tok string) bool { return e.keywordMatch(doc, tok) }):
		return TierKeyword
	case containsAll(tokens, func(tok string) bool { return anyContains(doc.explanations, tok) }):
		return TierExplanation
	}
	return TierNone
}

func (e *Engine) keywordMatch(doc *document, tok string) bool {
	if anyContains(doc.keywords, tok) {
		return true
	}
	return e.stemmer.IsEnabled() && doc.keywordStems[e.stemmer.Stem(tok)]
}

func containsAll(tokens []string, has func(string) bool) bool {
	for _, tok := range tokens {
		if !has(tok) {
			return false
		}
	}
	return true
}

func anyContains(fields []string, tok string) bool {
	for _, f := range fields {
		if strings.Contains(f, tok) {
			return true
		}
	}
	return false
}

func tokenize(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

func normalize(s string) string {
	return strings.Join(tokenize(s), " ")
}

func normalizeAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = normalize(s)
	}
	return out
}

func records(hits []Hit) []*types.ContentRecord {
	if len(hits) == 0 {
		return nil
	}
	out := make([]*types.ContentRecord, len(hits))
	for i, h := range hits {
		out[i] = h.Record
	}
	return out
}
