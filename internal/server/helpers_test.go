package server

import (
	"context"
	"io"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/joseph-ayodele/tradeslip/internal/core"
	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

const slipText = "AAPL Kjøp 10 150,50 kr Dato: 01.06.2024"

// scriptedExtractor replays progress events, then returns text or err.
type scriptedExtractor struct {
	events []extract.Progress
	text   string
	err    error
}

func (s scriptedExtractor) Extract(_ context.Context, doc extract.RawDocument, onProgress extract.ProgressFunc) (extract.Result, error) {
	if s.err != nil {
		return extract.Result{}, s.err
	}
	for _, e := range s.events {
		if onProgress != nil {
			onProgress(e)
		}
	}
	return extract.Result{Text: s.text, Method: extract.MethodImageOCR, Pages: 1}, nil
}

func newPipeline(ext scriptedExtractor) *core.Processor {
	return core.NewProcessor(quietLogger, ext)
}

func unsupportedErr() error {
	return &extract.Error{
		Kind:    extract.ErrUnsupportedMediaType,
		Message: "Ugyldig filtype.",
		Cause:   errors.New("media type text/plain"),
	}
}

func ocrFailedErr() error {
	return &extract.Error{
		Kind:    extract.ErrOCREngineFailed,
		Message: "Kunne ikke lese tekst fra bildet.",
		Cause:   errors.New("tesseract exit 1"),
	}
}

// stalledExtractor blocks until the request context ends, then fails the way
// an exec collaborator does when its process is killed by that context.
type stalledExtractor struct{}

func (stalledExtractor) Extract(ctx context.Context, _ extract.RawDocument, _ extract.ProgressFunc) (extract.Result, error) {
	<-ctx.Done()
	return extract.Result{}, &extract.Error{
		Kind:    extract.ErrOCREngineFailed,
		Message: "Kunne ikke lese tekst fra bildet.",
		Cause:   errors.New("tesseract: signal: killed"),
	}
}
