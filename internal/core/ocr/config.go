package ocr

import "log/slog"

// Config names the external tools and their settings.
type Config struct {
	Pdftoppm      string // default "pdftoppm"
	Tesseract     string // default "tesseract"
	Languages     string // default "nor+eng"
	TessdataDir   string // optional
	HeicConverter string // heif-convert | magick | sips; empty disables HEIC input
	PSM           int    // tesseract page segmentation mode; 0 keeps the tool default
}

func (c Config) withDefaults() Config {
	if c.Pdftoppm == "" {
		c.Pdftoppm = "pdftoppm"
	}
	if c.Tesseract == "" {
		c.Tesseract = "tesseract"
	}
	if c.Languages == "" {
		c.Languages = "nor+eng"
	}
	return c
}

// Option customizes a collaborator.
type Option func(*options)

type options struct {
	runner Runner
	logger *slog.Logger
}

// WithRunner replaces the exec runner, mainly for tests.
func WithRunner(r Runner) Option {
	return func(o *options) { o.runner = r }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.runner == nil {
		o.runner = execRunner{logger: o.logger}
	}
	return o
}
