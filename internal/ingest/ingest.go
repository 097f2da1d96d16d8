// Package ingest turns files on disk (or uploaded bytes) into documents for the pipeline.
package ingest

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gabriel-vasile/mimetype"

	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
)

// DefaultMaxBytes caps how much of a single file is read.
const DefaultMaxBytes = 20 << 20

var ErrTooLarge = errors.New("file too large")

// LoadDocument reads path and sniffs its media type from the content.
func LoadDocument(path string, maxBytes int64) (extract.RawDocument, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	f, err := os.Open(path)
	if err != nil {
		return extract.RawDocument{}, errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return extract.RawDocument{}, errors.Wrapf(err, "read %s", path)
	}
	if int64(len(data)) > maxBytes {
		return extract.RawDocument{}, errors.WithDetailf(ErrTooLarge, "%s exceeds %d bytes", path, maxBytes)
	}
	return FromBytes(data, "", filepath.Base(path)), nil
}

// genericMediaType is what browsers and multipart writers send when they do not know.
const genericMediaType = "application/octet-stream"

// FromBytes builds a document. The declared type is kept as is unless it is
// empty or generic, in which case the content is sniffed. A declared type the
// pipeline does not support passes through and is rejected downstream.
func FromBytes(data []byte, declared, filename string) extract.RawDocument {
	mediaType := strings.TrimSpace(declared)
	if base, _, _ := strings.Cut(mediaType, ";"); mediaType == "" || strings.EqualFold(strings.TrimSpace(base), genericMediaType) {
		mediaType = mimetype.Detect(data).String()
	}
	return extract.RawDocument{Data: data, MediaType: mediaType, Filename: filename}
}
