package similarity

import (
	"unicode/utf8"

	"github.com/ternarybob/arbor"

	"github.com/lexhold/lexhold/internal/models"
)

// WeightProfile weights the individual metrics into a combined score.
// Weights must sum to 1.0.
type WeightProfile struct {
	Sequence float64
	Edit     float64
	Jaccard  float64
	Cosine   float64
	Length   float64
}

// LongProfile favors structural similarity for longer documents
var LongProfile = WeightProfile{
	Sequence: 0.35,
	Edit:     0.20,
	Jaccard:  0.20,
	Cosine:   0.15,
	Length:   0.10,
}

// ShortProfile favors lexical overlap for shorter, noisier texts
var ShortProfile = WeightProfile{
	Sequence: 0.25,
	Edit:     0.30,
	Jaccard:  0.25,
	Cosine:   0.10,
	Length:   0.10,
}

// Options configures a Scorer
type Options struct {
	// LengthThreshold is the max(len_a, len_b) above which LongProfile
	// applies instead of ShortProfile
	LengthThreshold int

	// MaxCompareLength truncates both texts before alignment to bound the
	// O(n*m) worst case. Zero disables truncation.
	MaxCompareLength int

	Long  WeightProfile
	Short WeightProfile
}

// DefaultOptions returns the standard metric weighting
func DefaultOptions() Options {
	return Options{
		LengthThreshold:  1000,
		MaxCompareLength: 50000,
		Long:             LongProfile,
		Short:            ShortProfile,
	}
}

// Scorer computes composite text similarity from four independent metrics
// plus a length ratio. Scores are symmetric and in [0,1].
type Scorer struct {
	opts   Options
	logger arbor.ILogger
}

// NewScorer creates a scorer with the given options
func NewScorer(opts Options, logger arbor.ILogger) *Scorer {
	if opts.LengthThreshold <= 0 {
		opts.LengthThreshold = 1000
	}
	if opts.Long == (WeightProfile{}) {
		opts.Long = LongProfile
	}
	if opts.Short == (WeightProfile{}) {
		opts.Short = ShortProfile
	}
	return &Scorer{opts: opts, logger: logger}
}

// Score returns the combined similarity of two texts.
// Identical texts score 1.0. Two empty texts score 1.0 by convention;
// when exactly one side is empty the score is 0.0.
func (s *Scorer) Score(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	breakdown := s.Breakdown(a, b)
	return s.combine(breakdown, len(a), len(b))
}

// Breakdown computes every individual metric for two non-empty texts.
// A metric that fails contributes zero instead of aborting the comparison.
func (s *Scorer) Breakdown(a, b string) models.SimilarityBreakdown {
	a, b = s.truncate(a), s.truncate(b)
	ra, rb := []rune(a), []rune(b)

	return models.SimilarityBreakdown{
		SequenceRatio: s.safeMetric("sequence_ratio", func() float64 { return matchRatio(ra, rb) }),
		EditRatio:     s.safeMetric("edit_ratio", func() float64 { return editRatio(ra, rb) }),
		Jaccard:       s.safeMetric("jaccard", func() float64 { return jaccard(a, b) }),
		TrigramCosine: s.safeMetric("trigram_cosine", func() float64 { return ngramCosine(a, b, 3) }),
		LengthRatio:   lengthRatio(len(ra), len(rb)),
	}
}

// Combine applies the length-keyed weight profile to a breakdown
func (s *Scorer) Combine(breakdown models.SimilarityBreakdown, lenA, lenB int) float64 {
	return s.combine(breakdown, lenA, lenB)
}

func (s *Scorer) combine(m models.SimilarityBreakdown, lenA, lenB int) float64 {
	profile := s.opts.Short
	if max(lenA, lenB) > s.opts.LengthThreshold {
		profile = s.opts.Long
	}

	return profile.Sequence*m.SequenceRatio +
		profile.Edit*m.EditRatio +
		profile.Jaccard*m.Jaccard +
		profile.Cosine*m.TrigramCosine +
		profile.Length*m.LengthRatio
}

func (s *Scorer) truncate(text string) string {
	if s.opts.MaxCompareLength <= 0 || len(text) <= s.opts.MaxCompareLength {
		return text
	}

	// Back off to a rune boundary so the cut never splits a multi-byte
	// character and feeds U+FFFD into the metrics
	cut := s.opts.MaxCompareLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// safeMetric guards a metric computation; a panic inside one metric degrades
// that metric to zero with a warning instead of failing the whole score
func (s *Scorer) safeMetric(name string, fn func() float64) (score float64) {
	defer func() {
		if r := recover(); r != nil {
			score = 0
			if s.logger != nil {
				s.logger.Warn().Str("metric", name).Msgf("similarity metric failed: %v", r)
			}
		}
	}()
	return fn()
}
