package similarity

import (
	"path/filepath"
	"strings"
)

// FilenameSimilarity compares two filenames by the sequence-alignment ratio
// of their lowercased stems. Used as the second guard before version-linking
// textually similar documents.
func FilenameSimilarity(a, b string) float64 {
	stemA := stem(a)
	stemB := stem(b)
	if stemA == stemB {
		return 1.0
	}
	if stemA == "" || stemB == "" {
		return 0.0
	}
	return matchRatio([]rune(stemA), []rune(stemB))
}

func stem(name string) string {
	base := filepath.Base(name)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}
