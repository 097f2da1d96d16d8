package extract

import (
	"context"
	"time"
)

// RawDocument is one upload as received: bytes plus what the client declared.
type RawDocument struct {
	Data      []byte
	MediaType string
	Filename  string
}

// Progress is a user-facing progress event. Percent is in [0,100].
type Progress struct {
	Stage   string `json:"stage"`
	Percent int    `json:"percent"`
}

// ProgressFunc receives progress events. It may be nil.
type ProgressFunc func(Progress)

// PageProgress is reported by page-oriented collaborators.
type PageProgress struct {
	CurrentPage int
	TotalPages  int
}

// OCRProgress is reported by the OCR engine. Fraction is in [0,1] and non-decreasing.
type OCRProgress struct {
	Stage    string
	Fraction float64
}

// Image is one encoded raster image (PNG or JPEG bytes).
type Image struct {
	Data      []byte
	MediaType string
	Page      int // 1-based page of the source PDF; 0 for uploaded images
}

// TextLayerReader returns the embedded text of a PDF without rasterizing it.
// Items on a page are joined by single spaces and pages by newlines.
type TextLayerReader interface {
	ReadText(ctx context.Context, pdf []byte, onPage func(PageProgress)) (string, error)
}

// Rasterizer renders every page of a PDF to an image at the given scale.
type Rasterizer interface {
	Rasterize(ctx context.Context, pdf []byte, scale float64, onPage func(PageProgress)) ([]Image, error)
}

// OCREngine recognizes text in a single image.
type OCREngine interface {
	Recognize(ctx context.Context, img Image, onProgress func(OCRProgress)) (string, error)
}

// Result is a successful extraction.
type Result struct {
	Text     string
	Method   string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Pages    int
	Duration time.Duration
	Trace    []State
}

const (
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodImageOCR = "image-ocr"
)
