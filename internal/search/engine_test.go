package search

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/medcat/internal/store"
	"github.com/standardbeagle/medcat/internal/types"
	"github.com/standardbeagle/medcat/testhelpers"
)

func newEngine(t *testing.T, records []types.ContentRecord, opts Options) *Engine {
	t.Helper()
	s, err := store.Load(records)
	require.NoError(t, err)
	return NewEngine(s, opts)
}

func ids(records []*types.ContentRecord) []types.RecordID {
	out := make([]types.RecordID, 0, len(records))
	for _, rec := range records {
		out = append(out, rec.ID)
	}
	return out
}

// One record per tier, inserted worst tier first so ranking has to reorder.
func tierCatalog() []types.ContentRecord {
	return []types.ContentRecord{
		testhelpers.NewRecord("topic-shock", "Shock physiology").
			WithType(types.RecordTypeTopic).
			WithLevel(1, "Septic shock follows untreated sepsis.").
			Build(),
		testhelpers.NewRecord("condition-fever", "Fever").
			WithKeywords("sepsis", "pyrexia").
			Build(),
		testhelpers.NewRecord("condition-blood-poisoning", "Blood poisoning").
			WithAlternateNames("Sepsis syndrome").
			Build(),
		testhelpers.NewRecord("condition-sic", "Sepsis-induced coagulopathy").
			Build(),
		testhelpers.NewRecord("condition-sepsis", "Sepsis").
			Critical().
			Build(),
	}
}

func TestSearch_TierOrder(t *testing.T) {
	e := newEngine(t, tierCatalog(), Options{})

	hits := e.Search("sepsis")
	require.Len(t, hits, 5)

	want := []struct {
		id   types.RecordID
		tier Tier
	}{
		{"condition-sepsis", TierExactName},
		{"condition-sic", TierName},
		{"condition-blood-poisoning", TierAlternateName},
		{"condition-fever", TierKeyword},
		{"topic-shock", TierExplanation},
	}
	for i, w := range want {
		assert.Equal(t, w.id, hits[i].Record.ID, "position %d", i)
		assert.Equal(t, w.tier, hits[i].Tier, "position %d", i)
	}
}

func TestSearch_TiesKeepInsertionOrder(t *testing.T) {
	e := newEngine(t, testhelpers.Catalog(), Options{})

	// both are keyword matches; anaphylaxis was inserted first
	assert.Equal(t,
		[]types.RecordID{testhelpers.AnaphylaxisID, testhelpers.AsthmaID},
		ids(e.SearchByKeyword("allergy")))

	// asthma's alternate name outranks anaphylaxis's keyword despite insertion order
	assert.Equal(t,
		[]types.RecordID{testhelpers.AsthmaID, testhelpers.AnaphylaxisID},
		ids(e.SearchByKeyword("airway")))
}

func TestSearch_BlankQuery(t *testing.T) {
	e := newEngine(t, testhelpers.Catalog(), Options{})

	for _, q := range []string{"", "   ", "\t\n"} {
		assert.Empty(t, e.SearchByKeyword(q), "query %q", q)
		assert.Empty(t, e.SearchEmergencies(q), "query %q", q)
		assert.Empty(t, e.Suggest(q, 0), "query %q", q)
	}
}

func TestSearch_CaseInsensitive(t *testing.T) {
	e := newEngine(t, testhelpers.Catalog(), Options{})

	lower := e.SearchByKeyword("adhd")
	require.NotEmpty(t, lower)
	assert.Equal(t, []types.RecordID{testhelpers.ADHDID}, ids(lower))

	for _, q := range []string{"Adhd", "ADHD", "  aDhD  "} {
		assert.Equal(t, ids(lower), ids(e.SearchByKeyword(q)), "query %q", q)
	}
}

func TestSearch_AllTokensInOneField(t *testing.T) {
	e := newEngine(t, testhelpers.Catalog(), Options{})

	hits := e.Search("attention disorder")
	require.Len(t, hits, 1)
	assert.Equal(t, testhelpers.ADHDID, hits[0].Record.ID)
	assert.Equal(t, TierName, hits[0].Tier)

	hits = e.Search("heart attack")
	require.Len(t, hits, 1)
	assert.Equal(t, TierAlternateName, hits[0].Tier)

	hits = e.Search("chest pain")
	require.Len(t, hits, 1)
	assert.Equal(t, TierKeyword, hits[0].Tier)

	// tokens split across name and keywords do not match
	assert.Empty(t, e.Search("asthma inhaler chest"))
}

func TestSearch_ExactName(t *testing.T) {
	e := newEngine(t, testhelpers.Catalog(), Options{})

	hits := e.Search("  Myocardial   INFARCTION ")
	require.NotEmpty(t, hits)
	assert.Equal(t, testhelpers.MIID, hits[0].Record.ID)
	assert.Equal(t, TierExactName, hits[0].Tier)
}

func TestSearchEmergencies_SubsetOfKeyword(t *testing.T) {
	e := newEngine(t, testhelpers.Catalog(), Options{})

	for _, q := range []string{"emergency", "allergy", "airway", "adhd", "level", "explanation"} {
		all := e.SearchByKeyword(q)
		emergencies := e.SearchEmergencies(q)

		pos := 0
		for _, rec := range emergencies {
			assert.True(t, rec.IsEmergency(), "query %q returned %s", q, rec.ID)
			// same relative order as the unfiltered ranking
			for pos < len(all) && all[pos].ID != rec.ID {
				pos++
			}
			assert.Less(t, pos, len(all), "query %q: %s not in keyword results", q, rec.ID)
		}
	}
}

func TestSearchEmergencies(t *testing.T) {
	e := newEngine(t, testhelpers.Catalog(), Options{})

	assert.Equal(t,
		[]types.RecordID{testhelpers.MIID, testhelpers.AnaphylaxisID, testhelpers.AsthmaID},
		ids(e.SearchByKeyword("emergency")))
	assert.Equal(t,
		[]types.RecordID{testhelpers.MIID, testhelpers.AnaphylaxisID},
		ids(e.SearchEmergencies("emergency")))
	assert.Empty(t, e.SearchEmergencies("adhd"))
}

func TestSearch_Stemming(t *testing.T) {
	plain := newEngine(t, testhelpers.Catalog(), Options{})
	assert.Empty(t, plain.SearchByKeyword("stimulants"))

	stemmed := newEngine(t, testhelpers.Catalog(), Options{Stemming: true})
	hits := stemmed.Search("stimulants")
	require.Len(t, hits, 1)
	assert.Equal(t, testhelpers.ADHDID, hits[0].Record.ID)
	assert.Equal(t, TierKeyword, hits[0].Tier)
}

func TestSearch_StemExclusions(t *testing.T) {
	e := newEngine(t, testhelpers.Catalog(), Options{Stemming: true, StemExclusions: []string{"Stimulants"}})
	assert.Empty(t, e.SearchByKeyword("stimulants"), "excluded words match literally only")
	assert.Equal(t, []types.RecordID{testhelpers.ADHDID}, ids(e.SearchByKeyword("stimulant")))
}

func TestLimit(t *testing.T) {
	e := newEngine(t, tierCatalog(), Options{MaxResults: 2})

	all := e.Search("sepsis")
	require.Len(t, all, 5, "search itself is never capped")

	hits, truncated := e.Limit(all, 0)
	assert.True(t, truncated)
	require.Len(t, hits, 2)
	assert.Equal(t, types.RecordID("condition-sepsis"), hits[0].Record.ID)
	assert.Equal(t, types.RecordID("condition-sic"), hits[1].Record.ID)

	hits, truncated = e.Limit(all, 4)
	assert.True(t, truncated)
	assert.Len(t, hits, 4, "an explicit max overrides MaxResults")

	hits, truncated = e.Limit(all, 10)
	assert.False(t, truncated)
	assert.Len(t, hits, 5)

	unlimited := newEngine(t, tierCatalog(), Options{})
	hits, truncated = unlimited.Limit(all, 0)
	assert.False(t, truncated)
	assert.Len(t, hits, 5)
}

func TestSearchEmergencies_CriticalRankedPastCap(t *testing.T) {
	var records []types.ContentRecord
	for _, id := range []types.RecordID{"condition-pain-0", "condition-pain-1", "condition-pain-2"} {
		records = append(records, testhelpers.NewRecord(id, "Pain syndrome "+string(id[len(id)-1])).Build())
	}
	records = append(records, testhelpers.NewRecord("condition-aortic-dissection", "Aortic dissection").
		WithKeywords("pain", "tearing").
		Critical().
		Build())

	e := newEngine(t, records, Options{MaxResults: 2})

	assert.Len(t, e.SearchByKeyword("pain"), 4)
	assert.Equal(t,
		[]types.RecordID{"condition-aortic-dissection"},
		ids(e.SearchEmergencies("pain")))
}

func TestSearch_NoMatch(t *testing.T) {
	e := newEngine(t, testhelpers.Catalog(), Options{})
	assert.Nil(t, e.SearchByKeyword("pancreatitis"))
}

func TestFilter(t *testing.T) {
	e := newEngine(t, tierCatalog(), Options{})

	hits := Filter(e.Search("sepsis"), Emergency)
	require.Len(t, hits, 1)
	assert.Equal(t, types.RecordID("condition-sepsis"), hits[0].Record.ID)
	assert.Equal(t, TierExactName, hits[0].Tier)
}

func TestNewEngine_Defaults(t *testing.T) {
	e := newEngine(t, nil, Options{MaxResults: -3})

	opts := e.Options()
	assert.Equal(t, 0, opts.MaxResults)
	assert.Equal(t, DefaultStemMinLength, opts.StemMinLength)
	assert.Equal(t, DefaultFuzzyThreshold, opts.FuzzyThreshold)
	assert.Equal(t, DefaultSuggestLimit, opts.SuggestLimit)
	assert.Empty(t, e.Search("anything"))
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "exact_name", TierExactName.String())
	assert.Equal(t, "explanation", TierExplanation.String())
	assert.Equal(t, "none", Tier(42).String())
}

func TestTier_MarshalText(t *testing.T) {
	out, err := json.Marshal(Hit{Tier: TierKeyword})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"tier":"keyword"`)
}
