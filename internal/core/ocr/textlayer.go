package ocr

import (
	"bytes"
	"context"
	"log/slog"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ledongthuc/pdf"

	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
)

// PDFTextReader reads the embedded text layer of a PDF in-process.
type PDFTextReader struct {
	logger *slog.Logger
}

func NewPDFTextReader(logger *slog.Logger) *PDFTextReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &PDFTextReader{logger: logger}
}

var _ extract.TextLayerReader = (*PDFTextReader)(nil)

// ReadText joins the text runs of each row with spaces and pages with newlines.
// Image-only PDFs yield empty text, not an error.
func (r *PDFTextReader) ReadText(ctx context.Context, data []byte, onPage func(extract.PageProgress)) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Newf("pdf parser panic: %v", rec)
		}
	}()

	rd, err := openPDF(data)
	if err != nil {
		return "", err
	}
	total := rd.NumPage()
	pages := make([]string, 0, total)
	for i := 1; i <= total; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := rd.Page(i)
		if !page.V.IsNull() {
			t, perr := pageText(page)
			if perr != nil {
				r.logger.Warn("skipping unreadable pdf page", "page", i, "error", perr)
			}
			pages = append(pages, t)
		}
		if onPage != nil {
			onPage(extract.PageProgress{CurrentPage: i, TotalPages: total})
		}
	}
	return strings.Join(pages, "\n"), nil
}

func openPDF(data []byte) (*pdf.Reader, error) {
	if len(data) == 0 {
		return nil, errors.New("empty pdf content")
	}
	rd, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errors.Wrap(err, "open pdf")
	}
	return rd, nil
}

func pageText(page pdf.Page) (string, error) {
	rows, err := page.GetTextByRow()
	if err != nil {
		return "", err
	}
	var items []string
	for _, row := range rows {
		for _, t := range row.Content {
			if s := strings.TrimSpace(t.S); s != "" {
				items = append(items, s)
			}
		}
	}
	return strings.Join(items, " "), nil
}

// pdfPageCount returns the number of pages, recovering from parser panics.
func pdfPageCount(data []byte) (n int, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.Newf("pdf parser panic: %v", rec)
		}
	}()
	rd, err := openPDF(data)
	if err != nil {
		return 0, err
	}
	return rd.NumPage(), nil
}
