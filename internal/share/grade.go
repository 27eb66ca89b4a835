package share

import (
	"github.com/tidwall/gjson"
)

// Score weights per counted item.
const (
	buzzwordWeight   = 4
	vagueClaimWeight = 5
	ctaWeight        = 2
)

// maxCount caps each count before weighting; any weight of at least 1 already saturates the score.
const maxCount = 100

// Grades in order of increasing score.
const (
	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
	GradeD = "D"
	GradeF = "F"
)

// Score computes the 0-100 fluff score from an analysis results document.
// Malformed or missing data counts as zero.
func Score(results []byte) int {
	score := buzzwordWeight*count(results, "buzzwordCount", "buzzwords") +
		vagueClaimWeight*count(results, "vagueClaimCount", "vagueClaims") +
		ctaWeight*count(results, "ctaCount", "callsToAction")
	return min(max(score, 0), 100)
}

// GradeForScore buckets a score into A-F.
func GradeForScore(score int) string {
	switch {
	case score < 20:
		return GradeA
	case score < 40:
		return GradeB
	case score < 60:
		return GradeC
	case score < 80:
		return GradeD
	default:
		return GradeF
	}
}

// Grade grades an analysis results document.
func Grade(results []byte) string {
	return GradeForScore(Score(results))
}

// count reads a numeric field, falling back to the length of a list field.
// The result is within [0, maxCount].
func count(results []byte, numberField, listField string) int {
	if len(results) == 0 || !gjson.ValidBytes(results) {
		return 0
	}
	if n := gjson.GetBytes(results, numberField); n.Type == gjson.Number {
		f := n.Float()
		switch {
		case f <= 0:
			return 0
		case f >= maxCount:
			return maxCount
		}
		return int(f)
	}
	if list := gjson.GetBytes(results, listField); list.IsArray() {
		return min(len(list.Array()), maxCount)
	}
	return 0
}
