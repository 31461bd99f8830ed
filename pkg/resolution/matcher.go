package resolution

import (
	"regexp"
	"sort"
	"strings"

	"receipt-resolver-backend/entities"

	"github.com/agnivade/levenshtein"
)

// DefaultMatchThreshold is the minimum similarity score accepted as a
// fuzzy match.
const DefaultMatchThreshold = 0.5

var (
	abbreviationExpansions = map[string]string{
		"org": "organic",
	}

	// Quantity and unit tokens carry no product identity and only hurt
	// similarity scores.
	unitTokens = map[string]struct{}{
		"qty": {}, "qy": {}, "ea": {}, "each": {},
		"lb": {}, "lbs": {}, "oz": {}, "ounce": {},
		"gal": {}, "gl": {}, "ct": {}, "pk": {},
	}

	pricePattern   = regexp.MustCompile(`\$?\d+\.?\d*`)
	nonWordPattern = regexp.MustCompile(`[^a-z0-9\s]`)
)

type (
	// MatchCandidate pairs a catalog item with its similarity score.
	MatchCandidate struct {
		Item  *entities.FoodItem
		Score float64
	}

	FuzzyMatcher struct {
		threshold float64
	}
)

func NewFuzzyMatcher(threshold float64) *FuzzyMatcher {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultMatchThreshold
	}
	return &FuzzyMatcher{threshold: threshold}
}

func (m *FuzzyMatcher) Threshold() float64 {
	return m.threshold
}

// BestMatch returns the highest-scoring catalog item at or above the
// acceptance threshold, or nil. Ties break to the shorter catalog name
// (more canonical), then lexical order, so repeated calls with the same
// input are always identical.
func (m *FuzzyMatcher) BestMatch(name string, candidates []*entities.FoodItem) *MatchCandidate {
	normalized := NormalizeItemName(name)
	if normalized == "" || len(candidates) == 0 {
		return nil
	}

	scored := make([]MatchCandidate, 0, len(candidates))
	for _, item := range candidates {
		score := m.Score(normalized, NormalizeItemName(item.Name))
		if score >= m.threshold {
			scored = append(scored, MatchCandidate{Item: item, Score: score})
		}
	}
	if len(scored) == 0 {
		return nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		ni, nj := scored[i].Item.Name, scored[j].Item.Name
		if len(ni) != len(nj) {
			return len(ni) < len(nj)
		}
		return ni < nj
	})

	best := scored[0]
	return &best
}

// Score blends token-set overlap with an edit-distance ratio, both over
// normalized names. Pure function of its inputs.
func (m *FuzzyMatcher) Score(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}
	return 0.5*tokenSetOverlap(a, b) + 0.5*editDistanceRatio(a, b)
}

func tokenSetOverlap(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func editDistanceRatio(a, b string) float64 {
	maxLen := len([]rune(a))
	if l := len([]rune(b)); l > maxLen {
		maxLen = l
	}
	if maxLen == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(maxLen)
}

func tokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		set[tok] = struct{}{}
	}
	return set
}

// NormalizeItemName cleans a receipt or catalog name for comparison:
// case-fold, expand known abbreviations, drop quantity/unit tokens and
// price patterns, collapse whitespace.
func NormalizeItemName(name string) string {
	name = strings.ToLower(name)
	name = pricePattern.ReplaceAllString(name, " ")
	name = nonWordPattern.ReplaceAllString(name, " ")

	var kept []string
	for _, tok := range strings.Fields(name) {
		if expanded, ok := abbreviationExpansions[tok]; ok {
			tok = expanded
		}
		if _, drop := unitTokens[tok]; drop {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}
