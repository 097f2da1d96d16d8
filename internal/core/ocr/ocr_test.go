package ocr

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestNormalize(t *testing.T) {
	in := "Noram  Drilling\t\tKjop\r\n-----\r\n\r\n\r\n\r\n6000 25,000   \r\nO0 stays"
	assert.Equal(t, "Noram Drilling Kjop\n\n6000 25,000\nO0 stays", Normalize(in))
	assert.Equal(t, "", Normalize(""))
}

func TestTesseractRecognize(t *testing.T) {
	r := &stubRunner{fn: func(Invocation) ([]byte, error) {
		return []byte("AAPL\tKjøp  10 150,50 kr\r\n"), nil
	}}
	eng := NewTesseract(Config{TessdataDir: "/opt/tessdata", PSM: 6}, WithRunner(r))

	var fractions []float64
	text, err := eng.Recognize(context.Background(), extract.Image{Data: pngHeader, MediaType: "image/png", Page: 1}, func(p extract.OCRProgress) {
		fractions = append(fractions, p.Fraction)
	})
	require.NoError(t, err)

	assert.Equal(t, "AAPL Kjøp 10 150,50 kr", text)
	assert.Equal(t, []float64{0, 0.1, 1}, fractions)
	require.Len(t, r.calls, 1)
	c := r.calls[0]
	assert.Equal(t, "tesseract", c.Tool)
	assert.Equal(t, stepRecognize, c.Step)
	assert.Equal(t, 1, c.Page)
	assert.Equal(t, ".png", filepath.Ext(c.Args[0]))
	assert.Equal(t, []string{"stdout", "-l", "nor+eng", "--psm", "6", "--tessdata-dir", "/opt/tessdata"}, c.Args[1:])
}

func TestTesseractFailure(t *testing.T) {
	boom := errors.New("exit status 1")
	r := &stubRunner{fn: func(inv Invocation) ([]byte, error) {
		return nil, &ToolError{Invocation: inv, Stderr: "Error opening data file", Err: boom}
	}}
	eng := NewTesseract(Config{}, WithRunner(r))

	_, err := eng.Recognize(context.Background(), extract.Image{Data: pngHeader}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "Error opening data file")
}

func TestTesseractRejectsEmptyImage(t *testing.T) {
	r := &stubRunner{}
	_, err := NewTesseract(Config{}, WithRunner(r)).Recognize(context.Background(), extract.Image{}, nil)
	require.Error(t, err)
	assert.Empty(t, r.calls)
}

func TestTesseractConvertsHEIC(t *testing.T) {
	r := &stubRunner{fn: func(inv Invocation) ([]byte, error) {
		if inv.Tool == "magick" {
			return nil, os.WriteFile(inv.Args[1], pngHeader, 0o600)
		}
		return []byte("text"), nil
	}}
	eng := NewTesseract(Config{HeicConverter: "magick"}, WithRunner(r))

	text, err := eng.Recognize(context.Background(), extract.Image{Data: []byte("not really heic"), MediaType: "image/heic"}, nil)
	require.NoError(t, err)

	assert.Equal(t, "text", text)
	require.Len(t, r.calls, 2)
	assert.Equal(t, "magick", r.calls[0].Tool)
	assert.Equal(t, stepConvertHEIC, r.calls[0].Step)
	assert.Equal(t, "converted.png", filepath.Base(r.calls[1].Args[0]))
}

func TestTesseractHEICWithoutConverter(t *testing.T) {
	r := &stubRunner{}
	eng := NewTesseract(Config{}, WithRunner(r))

	_, err := eng.Recognize(context.Background(), extract.Image{Data: []byte("x"), MediaType: "image/heif"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HEIC not supported")
	assert.Empty(t, r.calls)
}

func TestPdftoppmRendersPageByPage(t *testing.T) {
	r := &stubRunner{fn: func(inv Invocation) ([]byte, error) {
		prefix := inv.Args[len(inv.Args)-1]
		return nil, os.WriteFile(prefix+".png", []byte(filepath.Base(prefix)), 0o600)
	}}
	rast := NewPdftoppm(Config{}, WithRunner(r))
	rast.countPages = func([]byte) (int, error) { return 2, nil }

	var pages []extract.PageProgress
	imgs, err := rast.Rasterize(context.Background(), []byte("%PDF"), 2.0, func(p extract.PageProgress) { pages = append(pages, p) })
	require.NoError(t, err)

	require.Len(t, imgs, 2)
	assert.Equal(t, "page-1", string(imgs[0].Data))
	assert.Equal(t, "page-2", string(imgs[1].Data))
	assert.Equal(t, "image/png", imgs[0].MediaType)
	assert.Equal(t, []extract.PageProgress{{CurrentPage: 1, TotalPages: 2}, {CurrentPage: 2, TotalPages: 2}}, pages)

	assert.Equal(t, 2, imgs[1].Page)

	require.Len(t, r.calls, 2)
	assert.Equal(t, 2, r.calls[1].Page)
	assert.Equal(t, []string{"-r", "144", "-png", "-f", "2", "-l", "2", "-singlefile"}, r.calls[1].Args[:8])
}

func TestPdftoppmFallsBackToSingleRun(t *testing.T) {
	r := &stubRunner{fn: func(inv Invocation) ([]byte, error) {
		prefix := inv.Args[len(inv.Args)-1]
		for _, n := range []string{"1", "2", "3"} {
			if err := os.WriteFile(prefix+"-"+n+".png", []byte(n), 0o600); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}}
	rast := NewPdftoppm(Config{Pdftoppm: "/usr/bin/pdftoppm"}, WithRunner(r))

	imgs, err := rast.Rasterize(context.Background(), []byte("not a pdf"), 1.0, nil)
	require.NoError(t, err)

	require.Len(t, imgs, 3)
	assert.Equal(t, "1", string(imgs[0].Data))
	require.Len(t, r.calls, 1)
	assert.Equal(t, "/usr/bin/pdftoppm", r.calls[0].Tool)
	assert.Zero(t, r.calls[0].Page)
	assert.Equal(t, []string{"-r", "72", "-png"}, r.calls[0].Args[:3])
}

func TestPdftoppmNoOutput(t *testing.T) {
	rast := NewPdftoppm(Config{}, WithRunner(&stubRunner{}))
	_, err := rast.Rasterize(context.Background(), []byte("not a pdf"), 2.0, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no images")
}

func TestPDFTextReaderRejectsGarbage(t *testing.T) {
	reader := NewPDFTextReader(nil)

	_, err := reader.ReadText(context.Background(), []byte("definitely not a pdf"), nil)
	assert.Error(t, err)

	_, err = reader.ReadText(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestIsHEIC(t *testing.T) {
	assert.True(t, isHEIC("image/HEIC", nil))
	assert.True(t, isHEIC("", []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic")))
	assert.False(t, isHEIC("image/png", pngHeader))
}
