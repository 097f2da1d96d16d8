package parse

// Thresholds are the minimum populated-field counts for each rating.
type Thresholds struct {
	High   int
	Medium int
}

var (
	// StructuredThresholds apply to the columnar order-history detector.
	StructuredThresholds = Thresholds{High: 4, Medium: 3}
	// GenericThresholds apply to the keyword fallback, which is rated more leniently.
	GenericThresholds = Thresholds{High: 4, Medium: 2}
)

// Score rates a candidate from the number of its five scored fields that were found.
func Score(populated int, t Thresholds) Confidence {
	switch {
	case populated >= t.High:
		return High
	case populated >= t.Medium:
		return Medium
	default:
		return Low
	}
}

func countPresent(present ...bool) int {
	n := 0
	for _, p := range present {
		if p {
			n++
		}
	}
	return n
}
