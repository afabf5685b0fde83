package mcp

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofhir/fhir/r4"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/medcat/internal/catalog"
	"github.com/standardbeagle/medcat/internal/search"
	"github.com/standardbeagle/medcat/internal/types"
	"github.com/standardbeagle/medcat/internal/version"
)

// Tool parameters

type IDParams struct {
	ID string `json:"id"`
}

type SearchParams struct {
	Query       string `json:"query"`
	Emergencies bool   `json:"emergencies"`
	Max         int    `json:"max"`
}

type CategoryParams struct {
	Category string `json:"category"`
}

type ICD11Params struct {
	FHIR bool   `json:"fhir"`
	URL  string `json:"url"`
}

type SuggestParams struct {
	Query string `json:"query"`
	Limit int    `json:"limit"`
}

// Tool responses

// RecordSummary is the compact form of a record used in result lists
type RecordSummary struct {
	ID        types.RecordID          `json:"id"`
	Name      string                  `json:"name"`
	Type      types.RecordType        `json:"type"`
	Status    types.Status            `json:"status"`
	Relevance types.ClinicalRelevance `json:"relevance"`
	Emergency bool                    `json:"emergency"`
	ICD11Code string                  `json:"icd11Code,omitempty"`
	Tier      string                  `json:"tier,omitempty"`
}

func summarize(rec *types.ContentRecord) RecordSummary {
	return RecordSummary{
		ID:        rec.ID,
		Name:      rec.Name,
		Type:      rec.Type,
		Status:    rec.Status,
		Relevance: rec.Tags.ClinicalRelevance,
		Emergency: rec.IsEmergency(),
		ICD11Code: rec.ICD11Code,
	}
}

func summarizeAll(records []*types.ContentRecord) []RecordSummary {
	out := make([]RecordSummary, 0, len(records))
	for _, rec := range records {
		out = append(out, summarize(rec))
	}
	return out
}

type EntryResponse struct {
	Entry      *types.ContentRecord `json:"entry"`
	Categories []string             `json:"categories"`
	Warnings   []UnknownField       `json:"warnings,omitempty"`
}

type SearchResponse struct {
	Query       string              `json:"query"`
	Emergencies bool                `json:"emergencies"`
	Count       int                 `json:"count"`
	Truncated   bool                `json:"truncated,omitempty"`
	Results     []RecordSummary     `json:"results"`
	Suggestions []search.Suggestion `json:"suggestions,omitempty"`
	Warnings    []UnknownField      `json:"warnings,omitempty"`
}

type CategoryResponse struct {
	Category string          `json:"category"`
	Known    bool            `json:"known"`
	Count    int             `json:"count"`
	Results  []RecordSummary `json:"results"`
}

type CategoryCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type CategoriesResponse struct {
	Count      int             `json:"count"`
	Categories []CategoryCount `json:"categories"`
}

type CountResponse struct {
	Count       int       `json:"count"`
	Fingerprint string    `json:"fingerprint"`
	BuiltAt     time.Time `json:"builtAt"`
}

type ICD11Response struct {
	Count    int                       `json:"count"`
	Map      map[types.RecordID]string `json:"map,omitempty"`
	ValueSet *r4.ValueSet              `json:"valueSet,omitempty"`
}

type RelatedEntry struct {
	Relationship string         `json:"relationship"`
	Label        string         `json:"label"`
	TargetID     types.RecordID `json:"targetId"`
	Dangling     bool           `json:"dangling"`
	Record       *RecordSummary `json:"record,omitempty"`
}

type RelatedResponse struct {
	ID           types.RecordID  `json:"id"`
	Count        int             `json:"count"`
	Dangling     int             `json:"dangling"`
	Related      []RelatedEntry  `json:"related"`
	ReferencedBy []RecordSummary `json:"referencedBy"`
}

type SuggestResponse struct {
	Query       string              `json:"query"`
	Suggestions []search.Suggestion `json:"suggestions"`
}

type StatsResponse struct {
	catalog.Stats
	Reloads int64         `json:"reloads"`
	Server  version.Stamp `json:"server"`
}

var (
	errIDRequired       = errors.New("id is required")
	errQueryRequired    = errors.New("query is required")
	errCategoryRequired = errors.New("category is required")
)

// Handlers. Errors returned here are turned into IsError results by
// recoverFromPanic.

func (s *Server) handleGetEntry(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p IDParams
	warnings, err := parseParams(req.Params.Arguments, &p, "id")
	if err != nil {
		return nil, err
	}
	id := types.RecordID(strings.TrimSpace(p.ID))
	if id == "" {
		return nil, errIDRequired
	}

	snap, err := s.holder.Snapshot()
	if err != nil {
		return nil, err
	}
	rec, err := snap.GetEntry(id)
	if err != nil {
		return nil, err
	}
	return createJSONResponse(EntryResponse{
		Entry:      rec,
		Categories: snap.CategoriesOf(id),
		Warnings:   warnings,
	})
}

func (s *Server) handleSearch(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p SearchParams
	warnings, err := parseParams(req.Params.Arguments, &p, "query", "emergencies", "max")
	if err != nil {
		return nil, err
	}
	query := strings.TrimSpace(p.Query)

	snap, err := s.holder.Snapshot()
	if err != nil {
		return nil, err
	}

	// a blank query is an empty result, not a failure
	hits := snap.Search(query)
	if p.Emergencies {
		hits = search.Filter(hits, search.Emergency)
	}

	resp := SearchResponse{
		Query:       query,
		Emergencies: p.Emergencies,
		Count:       len(hits),
		Warnings:    warnings,
	}
	hits, resp.Truncated = snap.Limit(hits, p.Max)

	resp.Results = make([]RecordSummary, 0, len(hits))
	for _, h := range hits {
		sum := summarize(h.Record)
		sum.Tier = h.Tier.String()
		resp.Results = append(resp.Results, sum)
	}
	if len(hits) == 0 && query != "" {
		resp.Suggestions = snap.Suggest(query, SuggestionsOnEmptySearch)
	}
	return createJSONResponse(resp)
}

func (s *Server) handleByCategory(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p CategoryParams
	if _, err := parseParams(req.Params.Arguments, &p, "category"); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(p.Category)
	if name == "" {
		return nil, errCategoryRequired
	}

	snap, err := s.holder.Snapshot()
	if err != nil {
		return nil, err
	}
	records := snap.GetByCategory(name)
	return createJSONResponse(CategoryResponse{
		Category: name,
		Known:    snap.HasCategory(name),
		Count:    len(records),
		Results:  summarizeAll(records),
	})
}

func (s *Server) handleCategories(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.holder.Snapshot()
	if err != nil {
		return nil, err
	}
	names := snap.Categories()
	resp := CategoriesResponse{Count: len(names), Categories: make([]CategoryCount, 0, len(names))}
	for _, name := range names {
		resp.Categories = append(resp.Categories, CategoryCount{Name: name, Count: snap.CategoryCount(name)})
	}
	return createJSONResponse(resp)
}

func (s *Server) handleCount(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.holder.Snapshot()
	if err != nil {
		return nil, err
	}
	return createJSONResponse(CountResponse{
		Count:       snap.GetCount(),
		Fingerprint: snap.FingerprintHex(),
		BuiltAt:     snap.BuiltAt(),
	})
}

func (s *Server) handleICD11Map(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p ICD11Params
	if _, err := parseParams(req.Params.Arguments, &p, "fhir", "url"); err != nil {
		return nil, err
	}

	snap, err := s.holder.Snapshot()
	if err != nil {
		return nil, err
	}
	m := snap.GetICD11Map()
	resp := ICD11Response{Count: len(m)}
	if p.FHIR {
		resp.ValueSet = snap.ValueSet(strings.TrimSpace(p.URL))
	} else {
		resp.Map = m
	}
	return createJSONResponse(resp)
}

func (s *Server) handleRelated(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p IDParams
	if _, err := parseParams(req.Params.Arguments, &p, "id"); err != nil {
		return nil, err
	}
	id := types.RecordID(strings.TrimSpace(p.ID))
	if id == "" {
		return nil, errIDRequired
	}

	snap, err := s.holder.Snapshot()
	if err != nil {
		return nil, err
	}
	resolutions, err := snap.Related(id)
	if err != nil {
		return nil, err
	}

	resp := RelatedResponse{ID: id, Count: len(resolutions), Related: make([]RelatedEntry, 0, len(resolutions))}
	for _, r := range resolutions {
		entry := RelatedEntry{Relationship: r.Relationship, Label: r.Label}
		if r.IsDangling() {
			entry.Dangling = true
			entry.TargetID = r.Dangling.TargetID
			resp.Dangling++
		} else {
			sum := summarize(r.Record)
			entry.TargetID = r.Record.ID
			entry.Record = &sum
		}
		resp.Related = append(resp.Related, entry)
	}
	resp.ReferencedBy = summarizeAll(snap.ReferencedBy(id))
	return createJSONResponse(resp)
}

func (s *Server) handleSuggest(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var p SuggestParams
	if _, err := parseParams(req.Params.Arguments, &p, "query", "limit"); err != nil {
		return nil, err
	}
	query := strings.TrimSpace(p.Query)
	if query == "" {
		return nil, errQueryRequired
	}

	snap, err := s.holder.Snapshot()
	if err != nil {
		return nil, err
	}
	suggestions := snap.Suggest(query, p.Limit)
	if suggestions == nil {
		suggestions = []search.Suggestion{}
	}
	return createJSONResponse(SuggestResponse{Query: query, Suggestions: suggestions})
}

func (s *Server) handleStats(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, err := s.holder.Snapshot()
	if err != nil {
		return nil, err
	}
	return createJSONResponse(StatsResponse{
		Stats:   snap.Stats(),
		Reloads: s.holder.Reloads(),
		Server:  version.Current().WithSnapshot(snap.FingerprintHex(), snap.GetCount()),
	})
}
