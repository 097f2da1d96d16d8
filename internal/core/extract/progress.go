package extract

import "math"

// band is the slice of [0,100] a phase reports into.
type band struct {
	start, end float64
}

var (
	bandTextLayer = band{0, 10}
	bandRasterize = band{10, 30}
	bandPDFOCR    = band{30, 100}
	bandImageOCR  = band{0, 100}
)

// percent maps a phase-local fraction into the band, rounded.
func (b band) percent(fraction float64) int {
	if fraction < 0 || math.IsNaN(fraction) {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	return int(math.Round(b.start + fraction*(b.end-b.start)))
}

func pageFraction(p PageProgress) float64 {
	if p.TotalPages <= 0 {
		return 0
	}
	return float64(p.CurrentPage) / float64(p.TotalPages)
}

// reporter forwards progress to the caller and never lets Percent go backwards.
type reporter struct {
	fn   ProgressFunc
	last int
}

func newReporter(fn ProgressFunc) *reporter {
	return &reporter{fn: fn, last: -1}
}

func (r *reporter) emit(stage string, percent int) {
	if percent < r.last {
		return
	}
	r.last = percent
	if r.fn != nil {
		r.fn(Progress{Stage: stage, Percent: percent})
	}
}

// finish guarantees the run ends on 100.
func (r *reporter) finish() {
	if r.last < 100 {
		r.emit("done", 100)
	}
}
