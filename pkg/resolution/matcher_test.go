package resolution

import (
	"testing"

	"receipt-resolver-backend/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeItemName(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected string
	}{
		{"abbreviation expansion", "ORG BAN 2.49", "organic ban"},
		{"unit tokens dropped", "KRGR MLK 1GL", "krgr mlk"},
		{"price and units stripped", "Bananas 3 lb $1.99", "bananas"},
		{"punctuation removed", "Ben & Jerry's", "ben jerry s"},
		{"empty", "", ""},
		{"only noise", "2.49 ea", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeItemName(tt.raw))
		})
	}
}

func TestScore(t *testing.T) {
	m := NewFuzzyMatcher(DefaultMatchThreshold)

	assert.Equal(t, 1.0, m.Score("organic bananas", "organic bananas"))
	assert.Equal(t, 0.0, m.Score("", "organic bananas"))
	assert.Equal(t, 0.0, m.Score("organic bananas", ""))

	high := m.Score("organic banana", "organic bananas")
	low := m.Score("organic banana", "frozen pizza")
	assert.Greater(t, high, low)
	assert.Greater(t, high, 0.5)
	assert.Less(t, low, 0.5)
}

func TestBestMatch_AcceptsAboveThreshold(t *testing.T) {
	m := NewFuzzyMatcher(DefaultMatchThreshold)
	candidates := []*entities.FoodItem{
		{Name: "Organic Bananas"},
		{Name: "Frozen Pizza"},
	}

	best := m.BestMatch("ORG BAN 2.49", candidates)
	require.NotNil(t, best)
	assert.Equal(t, "Organic Bananas", best.Item.Name)
	assert.GreaterOrEqual(t, best.Score, DefaultMatchThreshold)
}

func TestBestMatch_RejectsBelowThreshold(t *testing.T) {
	m := NewFuzzyMatcher(DefaultMatchThreshold)
	candidates := []*entities.FoodItem{
		{Name: "Organic Bananas"},
	}

	assert.Nil(t, m.BestMatch("MOTOR OIL 5W30", candidates))
	assert.Nil(t, m.BestMatch("", candidates))
	assert.Nil(t, m.BestMatch("ORG BAN", nil))
}

func TestBestMatch_TieBreaksLexically(t *testing.T) {
	m := NewFuzzyMatcher(0.3)
	// Equal scores against "apple": same token overlap, same edit
	// distance, same length. Lexical order decides.
	candidates := []*entities.FoodItem{
		{Name: "apple pie"},
		{Name: "apple pia"},
	}

	best := m.BestMatch("apple", candidates)
	require.NotNil(t, best)
	assert.Equal(t, "apple pia", best.Item.Name)
}

func TestBestMatch_Deterministic(t *testing.T) {
	m := NewFuzzyMatcher(DefaultMatchThreshold)
	candidates := []*entities.FoodItem{
		{Name: "Whole Milk"},
		{Name: "Whole Milk Gallon"},
		{Name: "Chocolate Milk"},
	}

	first := m.BestMatch("WHOLE MILK", candidates)
	require.NotNil(t, first)
	for i := 0; i < 10; i++ {
		again := m.BestMatch("WHOLE MILK", candidates)
		require.NotNil(t, again)
		assert.Equal(t, first.Item.Name, again.Item.Name)
		assert.Equal(t, first.Score, again.Score)
	}
}
