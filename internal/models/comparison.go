package models

// SimilarityBreakdown holds the individual metric values behind a combined
// similarity score.
type SimilarityBreakdown struct {
	SequenceRatio float64 `json:"sequence_ratio"`
	EditRatio     float64 `json:"edit_ratio"`
	Jaccard       float64 `json:"jaccard"`
	TrigramCosine float64 `json:"trigram_cosine"`
	LengthRatio   float64 `json:"length_ratio"`
}

// DocumentComparison is the structured result of comparing two documents.
// NearDuplicate and FuzzyMatch use two distinct thresholds; fuzzy is a looser
// advisory flag that never triggers automatic versioning.
type DocumentComparison struct {
	HashMatch          bool                `json:"hash_match"`
	ExactDuplicate     bool                `json:"exact_duplicate"`
	NearDuplicate      bool                `json:"near_duplicate"`
	FuzzyMatch         bool                `json:"fuzzy_match"`
	SimilarityScore    float64             `json:"similarity_score"`
	TextSimilarity     float64             `json:"text_similarity"`
	LengthRatio        float64             `json:"length_ratio"`
	Breakdown          SimilarityBreakdown `json:"similarity_breakdown"`
	MetadataSimilarity float64             `json:"metadata_similarity"`
}

// ScoredDocument pairs a document with its similarity score to a query text
type ScoredDocument struct {
	Document *Document `json:"document"`
	Score    float64   `json:"score"`
}
