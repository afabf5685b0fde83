package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/medcat/testhelpers"
)

func TestSuggest_Typo(t *testing.T) {
	e := newEngine(t, testhelpers.Catalog(), Options{})

	got := e.Suggest("asthmaa", 0)
	require.NotEmpty(t, got)
	assert.Equal(t, testhelpers.AsthmaID, got[0].ID)
	assert.Equal(t, "Asthma", got[0].Matched)
	assert.Greater(t, got[0].Score, DefaultFuzzyThreshold)
}

func TestSuggest_MatchesAlternateName(t *testing.T) {
	e := newEngine(t, testhelpers.Catalog(), Options{})

	got := e.Suggest("hart attack", 0)
	require.NotEmpty(t, got)
	assert.Equal(t, testhelpers.MIID, got[0].ID)
	assert.Equal(t, "Myocardial Infarction", got[0].Name)
	assert.Equal(t, "Heart attack", got[0].Matched)
}

func TestSuggest_SortedAndLimited(t *testing.T) {
	e := newEngine(t, testhelpers.Catalog(), Options{FuzzyThreshold: 0.01})

	got := e.Suggest("hypertensoin", 2)
	require.Len(t, got, 2)
	assert.Equal(t, testhelpers.HypertensionID, got[0].ID)
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
}

func TestSuggest_NothingClose(t *testing.T) {
	e := newEngine(t, testhelpers.Catalog(), Options{FuzzyThreshold: 0.99})
	assert.Empty(t, e.Suggest("zzzz", 0))
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("mi", "mi"))
	assert.Equal(t, 0.0, similarity("", "mi"))
	assert.Greater(t, similarity("anaphylaxsis", "anaphylaxis"), similarity("anaphylaxsis", "asthma"))
}

func TestStemmer(t *testing.T) {
	s := NewStemmer(true, 4, "ssri")

	assert.Equal(t, "stimul", s.Stem("stimulants"))
	assert.Equal(t, s.Stem("stimulant"), s.Stem("stimulants"))
	assert.Equal(t, "ssri", s.Stem("ssri"), "excluded words are not stemmed")
	assert.Equal(t, "gad", s.Stem("gad"), "short words are not stemmed")

	off := NewStemmer(false, 4)
	assert.False(t, off.IsEnabled())
	assert.Equal(t, "stimulants", off.Stem("stimulants"))

	var nilStemmer *Stemmer
	assert.Equal(t, "running", nilStemmer.Stem("running"))

	set := s.StemSet([]string{"chest pain", "troponins"})
	assert.True(t, set["chest"])
	assert.True(t, set["pain"])
	assert.True(t, set["troponin"])
}
