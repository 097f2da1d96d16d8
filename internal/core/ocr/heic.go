package ocr

import (
	"context"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gabriel-vasile/mimetype"
)

// isHEIC checks the declared type first, then sniffs the bytes.
func isHEIC(declared string, data []byte) bool {
	d := strings.ToLower(declared)
	if strings.Contains(d, "heic") || strings.Contains(d, "heif") {
		return true
	}
	mt := mimetype.Detect(data)
	return mt.Is("image/heic") || mt.Is("image/heic-sequence") || mt.Is("image/heif") || mt.Is("image/heif-sequence")
}

// convertHEICtoPNG converts the HEIC/HEIF file at in to a PNG at out.
func convertHEICtoPNG(ctx context.Context, r Runner, converter string, page int, in, out string) error {
	inv := Invocation{Tool: converter, Step: stepConvertHEIC, Page: page}
	switch converter {
	case "heif-convert", "magick":
		inv.Args = []string{in, out}
	case "sips":
		inv.Args = []string{"-s", "format", "png", in, "--out", out}
	default:
		return errors.WithHint(
			errors.New("HEIC not supported"),
			"set ocr.heic_converter to one of: heif-convert | magick | sips",
		)
	}
	if _, err := r.Run(ctx, inv); err != nil {
		return errors.Wrap(err, "convert heic")
	}
	if _, statErr := os.Stat(out); statErr != nil {
		return errors.Wrap(statErr, "HEIC conversion produced no output")
	}
	return nil
}
