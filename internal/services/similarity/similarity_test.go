package similarity

import (
	"math"
	"strings"
	"testing"
	"unicode/utf8"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestScoreIdentity(t *testing.T) {
	scorer := NewScorer(DefaultOptions(), nil)

	texts := []string{
		"a",
		"The quick brown fox jumps over the lazy dog.",
		strings.Repeat("This agreement is made between the parties. ", 50),
	}

	for _, text := range texts {
		if got := scorer.Score(text, text); got != 1.0 {
			t.Errorf("Score(text, text) = %v, want 1.0 for %q...", got, text[:min(len(text), 30)])
		}
	}
}

func TestScoreSymmetry(t *testing.T) {
	scorer := NewScorer(DefaultOptions(), nil)

	pairs := [][2]string{
		{"the quick brown fox", "the quick brown cat"},
		{"short", strings.Repeat("a very long document body with many words ", 100)},
		{"hello world", ""},
		{"identical text", "identical text"},
		{"Services Agreement between Acme Corp and Widget LLC", "Services Agreement between Acme Corp and Gadget LLC"},
	}

	for _, pair := range pairs {
		ab := scorer.Score(pair[0], pair[1])
		ba := scorer.Score(pair[1], pair[0])
		if !almostEqual(ab, ba) {
			t.Errorf("Score not symmetric: Score(a,b)=%v Score(b,a)=%v", ab, ba)
		}
	}
}

func TestScoreEmptyConventions(t *testing.T) {
	scorer := NewScorer(DefaultOptions(), nil)

	// Both empty is identity by convention
	if got := scorer.Score("", ""); got != 1.0 {
		t.Errorf("Score(\"\", \"\") = %v, want 1.0", got)
	}

	// Exactly one empty side scores zero
	if got := scorer.Score("some text", ""); got != 0.0 {
		t.Errorf("Score(a, \"\") = %v, want 0.0", got)
	}
	if got := scorer.Score("", "some text"); got != 0.0 {
		t.Errorf("Score(\"\", b) = %v, want 0.0", got)
	}
}

func TestScoreRange(t *testing.T) {
	scorer := NewScorer(DefaultOptions(), nil)

	pairs := [][2]string{
		{"abc", "xyz"},
		{"contract terms and conditions", "wholly unrelated grocery list"},
		{strings.Repeat("legal boilerplate ", 100), strings.Repeat("legal boilerplate ", 100) + "one extra clause"},
	}

	for _, pair := range pairs {
		got := scorer.Score(pair[0], pair[1])
		if got < 0.0 || got > 1.0 {
			t.Errorf("Score out of range: %v for %q vs %q", got, pair[0][:10], pair[1][:10])
		}
	}
}

func TestScoreNearIdenticalLongText(t *testing.T) {
	scorer := NewScorer(DefaultOptions(), nil)

	base := strings.Repeat("Whereas the parties agree to the following terms and conditions. ", 40)
	modified := base + "One additional closing sentence."

	got := scorer.Score(base, modified)
	if got < 0.95 {
		t.Errorf("near-identical long texts scored %v, want >= 0.95", got)
	}
}

func TestWeightProfilesSumToOne(t *testing.T) {
	for name, profile := range map[string]WeightProfile{"long": LongProfile, "short": ShortProfile} {
		sum := profile.Sequence + profile.Edit + profile.Jaccard + profile.Cosine + profile.Length
		if !almostEqual(sum, 1.0) {
			t.Errorf("%s profile weights sum to %v, want 1.0", name, sum)
		}
	}
}

func TestProfileSwitchByLength(t *testing.T) {
	// Two profiles that produce obviously different scores for the same
	// breakdown: one weighs only the sequence metric, one only jaccard.
	opts := Options{
		LengthThreshold: 100,
		Long:            WeightProfile{Sequence: 1.0},
		Short:           WeightProfile{Jaccard: 1.0},
	}
	scorer := NewScorer(opts, nil)

	breakdown := scorer.Breakdown("shared words entirely reordered here", "reordered here shared words entirely")

	shortScore := scorer.Combine(breakdown, 50, 50)
	longScore := scorer.Combine(breakdown, 500, 500)

	if !almostEqual(shortScore, breakdown.Jaccard) {
		t.Errorf("short profile score = %v, want jaccard %v", shortScore, breakdown.Jaccard)
	}
	if !almostEqual(longScore, breakdown.SequenceRatio) {
		t.Errorf("long profile score = %v, want sequence ratio %v", longScore, breakdown.SequenceRatio)
	}
	if almostEqual(shortScore, longScore) {
		t.Error("profiles did not differentiate: same-word reordered texts should score differently")
	}
}

func TestTruncationBoundsComparison(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxCompareLength = 100
	scorer := NewScorer(opts, nil)

	// Identical prefixes, divergent tails beyond the cap: truncation makes
	// the compared portions identical
	prefix := strings.Repeat("x", 100)
	a := prefix + strings.Repeat("a", 1000)
	b := prefix + strings.Repeat("b", 1000)

	breakdown := scorer.Breakdown(a, b)
	if breakdown.SequenceRatio != 1.0 {
		t.Errorf("sequence ratio after truncation = %v, want 1.0", breakdown.SequenceRatio)
	}
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxCompareLength = 5
	scorer := NewScorer(opts, nil)

	// "néné" is six bytes; a five-byte cap lands inside the final "é" and
	// must back off to the previous rune boundary
	got := scorer.truncate("néné")
	if got != "nén" {
		t.Errorf("truncate(néné) = %q, want %q", got, "nén")
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	}

	// Both sides cap identically, so the capped score stays exact
	if score := scorer.Score("néné", "néné"); score != 1.0 {
		t.Errorf("score of identical capped text = %v, want 1.0", score)
	}
}
