package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cockroachdb/errors"

	"github.com/joseph-ayodele/tradeslip/constants"
)

const (
	// minTextLayerRunes is the length a PDF text layer must exceed to skip OCR.
	// It counts runes of the text after trimming surrounding whitespace, and
	// that trimmed text is what gets returned, so padding alone never lets a
	// thin layer through.
	minTextLayerRunes = 20
	// DefaultScale renders PDF pages at twice their nominal size for OCR.
	DefaultScale = 2.0
)

// Orchestrator picks an extraction strategy for a document and sequences the
// collaborators, falling back from the PDF text layer to OCR of page 1.
// It holds no per-run state and is safe for concurrent use.
type Orchestrator struct {
	textLayer  TextLayerReader
	rasterizer Rasterizer
	ocr        OCREngine
	scale      float64
	logger     *slog.Logger
}

type Option func(*Orchestrator)

// WithScale overrides the rasterization scale.
func WithScale(scale float64) Option {
	return func(o *Orchestrator) {
		if scale > 0 {
			o.scale = scale
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func NewOrchestrator(textLayer TextLayerReader, rasterizer Rasterizer, ocr OCREngine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		textLayer:  textLayer,
		rasterizer: rasterizer,
		ocr:        ocr,
		scale:      DefaultScale,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Extract returns the text of doc. onProgress may be nil.
// Failures are *Error values; see ErrUnsupportedMediaType and ErrExtractionFailed.
func (o *Orchestrator) Extract(ctx context.Context, doc RawDocument, onProgress ProgressFunc) (Result, error) {
	start := time.Now()
	m := newMachine()
	rep := newReporter(onProgress)
	logger := o.logger.With("filename", doc.Filename, "media_type", doc.MediaType, "bytes", len(doc.Data))

	var (
		res Result
		err error
	)
	switch constants.MapMediaType(doc.MediaType, doc.Filename) {
	case constants.PDF:
		res, err = o.extractPDF(ctx, doc, m, rep, logger)
	case constants.IMAGE:
		res, err = o.extractImage(ctx, doc, m, rep)
	default:
		m.to(StateFailed)
		logger.Warn("unsupported media type")
		return Result{}, &Error{
			Kind:    ErrUnsupportedMediaType,
			Message: msgUnsupported,
			Cause:   errors.Newf("media type %q, filename %q", doc.MediaType, doc.Filename),
			Trace:   m.snapshot(),
		}
	}
	if err != nil {
		m.to(StateFailed)
		var e *Error
		if errors.As(err, &e) {
			e.Trace = m.snapshot()
		}
		logger.Error("extraction failed", "state_trace", m.snapshot(), "duration_ms", time.Since(start).Milliseconds(), "error", err)
		return Result{}, err
	}

	m.to(StateDone)
	rep.finish()
	res.Duration = time.Since(start)
	res.Trace = m.snapshot()
	logger.Info("extraction ok",
		"method", res.Method,
		"pages", res.Pages,
		"text_len", utf8.RuneCountInString(res.Text),
		"duration_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

func (o *Orchestrator) extractImage(ctx context.Context, doc RawDocument, m *machine, rep *reporter) (Result, error) {
	m.to(StateRunningOCR)
	text, err := o.recognize(ctx, Image{Data: doc.Data, MediaType: doc.MediaType}, bandImageOCR, rep)
	if err != nil {
		return Result{}, &Error{Kind: ErrOCREngineFailed, Message: msgImageFailed, Cause: err}
	}
	return Result{Text: text, Method: MethodImageOCR, Pages: 1}, nil
}

func (o *Orchestrator) extractPDF(ctx context.Context, doc RawDocument, m *machine, rep *reporter, logger *slog.Logger) (Result, error) {
	m.to(StateReadingTextLayer)
	rep.emit("reading text layer", bandTextLayer.percent(0))

	text, pageCount, err := o.readTextLayer(ctx, doc.Data, rep)
	switch {
	case err == nil:
		return Result{Text: text, Method: MethodPDFText, Pages: pageCount}, nil
	case errors.Is(err, errTextLayerInsufficient):
		logger.Debug("text layer too short, falling back to ocr", "text_len", utf8.RuneCountInString(text))
	default:
		return Result{}, &Error{Kind: ErrPDFLoadFailed, Message: msgPDFFailed, Cause: err}
	}

	m.to(StateRasterizing)
	pages, err := o.rasterizer.Rasterize(ctx, doc.Data, o.scale, func(p PageProgress) {
		rep.emit(fmt.Sprintf("rasterizing page %d of %d", p.CurrentPage, p.TotalPages), bandRasterize.percent(pageFraction(p)))
	})
	if err != nil {
		return Result{}, &Error{Kind: ErrRasterizationFailed, Message: msgPDFFailed, Cause: errors.Wrap(err, "rasterize pdf")}
	}
	if len(pages) == 0 {
		return Result{}, &Error{Kind: ErrRasterizationFailed, Message: msgPDFFailed, Cause: errors.New("rasterizer returned no pages")}
	}
	rep.emit("rasterized", bandRasterize.percent(1))

	// Only the first page carries the trade line.
	m.to(StateRunningOCR)
	text, err = o.recognize(ctx, pages[0], bandPDFOCR, rep)
	if err != nil {
		return Result{}, &Error{Kind: ErrOCREngineFailed, Message: msgPDFFailed, Cause: err}
	}
	return Result{Text: text, Method: MethodPDFOCR, Pages: len(pages)}, nil
}

// readTextLayer returns errTextLayerInsufficient (with the short text) when the
// layer is too thin to parse.
func (o *Orchestrator) readTextLayer(ctx context.Context, pdf []byte, rep *reporter) (string, int, error) {
	pageCount := 0
	text, err := o.textLayer.ReadText(ctx, pdf, func(p PageProgress) {
		pageCount = p.TotalPages
		rep.emit(fmt.Sprintf("reading text layer page %d of %d", p.CurrentPage, p.TotalPages), bandTextLayer.percent(pageFraction(p)))
	})
	if err != nil {
		return "", 0, errors.Wrap(err, "read text layer")
	}
	text = strings.TrimSpace(text)
	if utf8.RuneCountInString(text) <= minTextLayerRunes {
		return text, pageCount, errTextLayerInsufficient
	}
	return text, pageCount, nil
}

func (o *Orchestrator) recognize(ctx context.Context, img Image, b band, rep *reporter) (string, error) {
	text, err := o.ocr.Recognize(ctx, img, func(p OCRProgress) {
		rep.emit(p.Stage, b.percent(p.Fraction))
	})
	if err != nil {
		return "", errors.Wrap(err, "recognize")
	}
	return text, nil
}
