package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/cockroachdb/errors"

	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
)

// pointsPerInch is the PDF user-space resolution; scale 1.0 renders at 72 DPI.
const pointsPerInch = 72

// Pdftoppm renders PDF pages to PNG with poppler's pdftoppm.
type Pdftoppm struct {
	bin        string
	runner     Runner
	logger     *slog.Logger
	countPages func([]byte) (int, error)
}

func NewPdftoppm(cfg Config, opts ...Option) *Pdftoppm {
	cfg = cfg.withDefaults()
	o := buildOptions(opts)
	return &Pdftoppm{bin: cfg.Pdftoppm, runner: o.runner, logger: o.logger, countPages: pdfPageCount}
}

var _ extract.Rasterizer = (*Pdftoppm)(nil)

// Rasterize renders one page per pdftoppm call so progress can be reported.
// When the page count cannot be read in-process it renders all pages in one call.
func (p *Pdftoppm) Rasterize(ctx context.Context, data []byte, scale float64, onPage func(extract.PageProgress)) ([]extract.Image, error) {
	if onPage == nil {
		onPage = func(extract.PageProgress) {}
	}
	dpi := strconv.Itoa(int(math.Round(pointsPerInch * scale)))

	tmpDir, err := os.MkdirTemp("", "tradeslip-pp-*")
	if err != nil {
		return nil, errors.Wrap(err, "create temp dir")
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			p.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	in := filepath.Join(tmpDir, "in.pdf")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		return nil, errors.Wrap(err, "write pdf")
	}

	total, err := p.countPages(data)
	if err != nil || total <= 0 {
		p.logger.Debug("page count unavailable, rendering all pages at once", "error", err)
		return p.renderAll(ctx, in, tmpDir, dpi, onPage)
	}

	images := make([]extract.Image, 0, total)
	for i := 1; i <= total; i++ {
		prefix := filepath.Join(tmpDir, fmt.Sprintf("page-%d", i))
		page := strconv.Itoa(i)
		// pdftoppm -r <dpi> -png -f <i> -l <i> -singlefile <in.pdf> <prefix>
		inv := Invocation{Tool: p.bin, Step: stepRasterize, Page: i, Args: []string{"-r", dpi, "-png", "-f", page, "-l", page, "-singlefile", in, prefix}}
		if _, err := p.runner.Run(ctx, inv); err != nil {
			return nil, errors.Wrap(err, "rasterize")
		}
		img, err := os.ReadFile(prefix + ".png")
		if err != nil {
			return nil, errors.Wrapf(err, "read rendered page %d", i)
		}
		images = append(images, extract.Image{Data: img, MediaType: "image/png", Page: i})
		onPage(extract.PageProgress{CurrentPage: i, TotalPages: total})
	}
	return images, nil
}

func (p *Pdftoppm) renderAll(ctx context.Context, in, tmpDir, dpi string, onPage func(extract.PageProgress)) ([]extract.Image, error) {
	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	if _, err := p.runner.Run(ctx, Invocation{Tool: p.bin, Step: stepRasterize, Args: []string{"-r", dpi, "-png", in, prefix}}); err != nil {
		return nil, errors.Wrap(err, "rasterize")
	}

	// prefix-1.png, prefix-2.png, ... zero-padded to a common width
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return nil, errors.New("pdftoppm produced no images")
	}

	images := make([]extract.Image, 0, len(matches))
	for i, path := range matches {
		img, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "read rendered page %d", i+1)
		}
		images = append(images, extract.Image{Data: img, MediaType: "image/png", Page: i + 1})
		onPage(extract.PageProgress{CurrentPage: i + 1, TotalPages: len(matches)})
	}
	return images, nil
}
