package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBandPercent(t *testing.T) {
	assert.Equal(t, 0, bandTextLayer.percent(0))
	assert.Equal(t, 10, bandTextLayer.percent(1))
	assert.Equal(t, 20, bandRasterize.percent(0.5))
	assert.Equal(t, 65, bandPDFOCR.percent(0.5))
	assert.Equal(t, 100, bandPDFOCR.percent(1))
	assert.Equal(t, 33, bandImageOCR.percent(0.333))
	assert.Equal(t, 30, bandPDFOCR.percent(-1))
	assert.Equal(t, 100, bandPDFOCR.percent(7))
}

func TestPageFraction(t *testing.T) {
	assert.Equal(t, 0.0, pageFraction(PageProgress{}))
	assert.Equal(t, 0.5, pageFraction(PageProgress{CurrentPage: 1, TotalPages: 2}))
}

func TestReporterDropsRegressions(t *testing.T) {
	var rec progressRecorder
	r := newReporter(rec.record)

	r.emit("a", 10)
	r.emit("b", 5)
	r.emit("c", 10)
	r.emit("d", 40)
	r.finish()
	r.finish()

	assert.Equal(t, []int{10, 10, 40, 100}, rec.percents())
}

func TestReporterNilCallback(t *testing.T) {
	r := newReporter(nil)
	assert.NotPanics(t, func() {
		r.emit("a", 50)
		r.finish()
	})
}
