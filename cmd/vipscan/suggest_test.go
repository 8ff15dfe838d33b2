package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ── levenshtein tests ────────────────────────────────────────────────

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"abc", "abc", 0},
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"cat", "car", 1},
		{"cat", "cats", 1},
		{"cats", "cat", 1},
		{"kitten", "sitting", 3},
		{"abc", "xyz", 3},
		{"plugnis", "plugins", 2},
		{"café", "cafe", 1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, levenshtein(tt.a, tt.b))
		})
	}
}

func TestLevenshtein_Symmetric(t *testing.T) {
	assert.Equal(t, levenshtein("akismet", "jetpack"), levenshtein("jetpack", "akismet"))
}

// ── suggest tests ────────────────────────────────────────────────────

func TestSuggest_CloseMatch(t *testing.T) {
	identities := []string{"wordfence", "wp-rocket", "woocommerce", "akismet"}

	suggestions := suggest("wordfense", identities)
	assert.Equal(t, []string{"wordfence"}, suggestions)
}

func TestSuggest_NoMatch(t *testing.T) {
	assert.Empty(t, suggest("zzzzzzzzzzzzzzzzzzz", []string{"wordfence", "wp-rocket"}))
}

func TestSuggest_MaxThree(t *testing.T) {
	suggestions := suggest("aax", []string{"aaa", "aab", "aac", "aad", "aae"})
	assert.Len(t, suggestions, maxSuggestions)
}

func TestSuggest_ExactMatchExcluded(t *testing.T) {
	assert.Empty(t, suggest("akismet", []string{"akismet"}))
}

func TestSuggest_SortedByDistanceThenName(t *testing.T) {
	suggestions := suggest("theme", []string{"themes", "them", "theme-x", "general"})
	assert.Equal(t, []string{"them", "themes", "theme-x"}, suggestions)
}

func TestSuggest_Deduplicates(t *testing.T) {
	assert.Equal(t, []string{"plugins"}, suggest("plugin", []string{"plugins", "plugins"}))
}

func TestSuggest_EmptyCandidates(t *testing.T) {
	assert.Empty(t, suggest("wordfence", nil))
}
