package extract

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

var (
	// ErrUnsupportedMediaType is returned before any collaborator is called.
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	// ErrExtractionFailed matches every collaborator failure.
	ErrExtractionFailed    = errors.New("extraction failed")
	ErrPDFLoadFailed       = errors.New("pdf load failed")
	ErrRasterizationFailed = errors.New("rasterization failed")
	ErrOCREngineFailed     = errors.New("ocr engine failed")

	// errTextLayerInsufficient never leaves the package; it selects the OCR fallback.
	errTextLayerInsufficient = errors.New("text layer insufficient")
)

// User-facing messages.
const (
	msgUnsupported = "Ugyldig filtype. Vennligst last opp et bilde (JPG/PNG) eller PDF."
	msgImageFailed = "Kunne ikke lese tekst fra bildet. Vennligst prøv igjen eller fyll ut manuelt."
	msgPDFFailed   = "Kunne ikke lese PDF-filen. Prøv å ta et skjermbilde av sluttseddelen og last opp som bilde."
)

// Error is the failure returned by Orchestrator.Extract.
// errors.Is matches both Kind and, for collaborator failures, ErrExtractionFailed.
type Error struct {
	Kind    error
	Message string
	Cause   error
	Trace   []State
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

func (e *Error) Is(target error) bool {
	if target == e.Kind {
		return true
	}
	return target == ErrExtractionFailed && e.Kind != ErrUnsupportedMediaType
}

// UserMessage returns the message to show the end user for err, or "" if err
// did not come from the orchestrator.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	for _, h := range errors.GetAllHints(err) {
		return h
	}
	return ""
}
