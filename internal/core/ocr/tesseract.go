package ocr

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/gabriel-vasile/mimetype"

	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
)

// Tesseract recognizes Norwegian and English text with the tesseract CLI.
// The caller owns it; one instance can serve concurrent requests.
type Tesseract struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewTesseract(cfg Config, opts ...Option) *Tesseract {
	o := buildOptions(opts)
	return &Tesseract{cfg: cfg.withDefaults(), runner: o.runner, logger: o.logger}
}

var _ extract.OCREngine = (*Tesseract)(nil)

// Recognize reports "preparing image", "converting image" (HEIC only),
// "recognizing text" and "done".
func (t *Tesseract) Recognize(ctx context.Context, img extract.Image, onProgress func(extract.OCRProgress)) (string, error) {
	if onProgress == nil {
		onProgress = func(extract.OCRProgress) {}
	}
	if len(img.Data) == 0 {
		return "", errors.New("empty image")
	}
	onProgress(extract.OCRProgress{Stage: "preparing image", Fraction: 0})

	tmpDir, err := os.MkdirTemp("", "tradeslip-ocr-*")
	if err != nil {
		return "", errors.Wrap(err, "create temp dir")
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			t.logger.Warn("failed to remove temp dir", "dir", tmpDir, "error", err)
		}
	}()

	in := filepath.Join(tmpDir, "input"+mimetype.Detect(img.Data).Extension())
	if err := os.WriteFile(in, img.Data, 0o600); err != nil {
		return "", errors.Wrap(err, "write image")
	}

	if isHEIC(img.MediaType, img.Data) {
		onProgress(extract.OCRProgress{Stage: "converting image", Fraction: 0.05})
		out := filepath.Join(tmpDir, "converted.png")
		if err := convertHEICtoPNG(ctx, t.runner, t.cfg.HeicConverter, img.Page, in, out); err != nil {
			return "", err
		}
		in = out
	}

	onProgress(extract.OCRProgress{Stage: "recognizing text", Fraction: 0.1})
	// tesseract <file> stdout -l <lang> [--psm n] [--tessdata-dir d]
	args := []string{in, "stdout", "-l", t.cfg.Languages}
	if t.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(t.cfg.PSM))
	}
	if t.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", t.cfg.TessdataDir)
	}
	out, err := t.runner.Run(ctx, Invocation{Tool: t.cfg.Tesseract, Step: stepRecognize, Page: img.Page, Args: args})
	if err != nil {
		return "", errors.Wrap(err, "ocr image")
	}

	text := Normalize(string(out))
	onProgress(extract.OCRProgress{Stage: "done", Fraction: 1})
	return text, nil
}
