// Package parse turns noisy text from trade confirmations into a
// confidence-rated transaction candidate. Everything here is pure.
package parse

// Detector recognizes one slip layout.
type Detector struct {
	Name    string
	Match   func(text string) bool
	Extract func(text string) Candidate
	// AcceptLow lets a low-confidence result stand; only the last detector sets it.
	AcceptLow bool
}

const (
	DetectorColumnar = "columnar-order-history"
	DetectorGeneric  = "generic"
)

// Detectors in priority order.
var Detectors = []Detector{
	{Name: DetectorColumnar, Match: matchColumnar, Extract: extractColumnar},
	{Name: DetectorGeneric, Match: matchAny, Extract: extractGeneric, AcceptLow: true},
}

// ParseTransactionFromText normalizes text and returns the first accepted
// detector result. A low-confidence structured result is discarded, not merged.
func ParseTransactionFromText(text string) Candidate {
	return ParseWith(Detectors, text)
}

// ParseWith runs detectors in order over the normalized text.
func ParseWith(detectors []Detector, text string) Candidate {
	normalized := NormalizeText(text)
	for _, d := range detectors {
		if !d.Match(normalized) {
			continue
		}
		c := d.Extract(normalized)
		if c.Confidence == Low && !d.AcceptLow {
			continue
		}
		c.Detector = d.Name
		c.RawText = text
		return c
	}
	return Candidate{Confidence: Low, RawText: text}
}
