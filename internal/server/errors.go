package server

import (
	"context"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/joseph-ayodele/tradeslip/internal/common"
	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
	"github.com/joseph-ayodele/tradeslip/internal/ingest"
)

// toStatus maps pipeline failures to gRPC statuses carrying the end-user message.
// A done request context wins over the error kind: collaborators killed by
// the deadline surface as extraction failures ("signal: killed").
func toStatus(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return common.DeadlineExceededError("processing timed out")
	case ctx.Err() != nil, errors.Is(err, context.Canceled):
		return common.CanceledError("request canceled")
	case errors.Is(err, extract.ErrUnsupportedMediaType):
		return common.InvalidArgumentError(extract.UserMessage(err))
	case errors.Is(err, extract.ErrExtractionFailed):
		return common.FailedPreconditionError(extract.UserMessage(err))
	case errors.Is(err, ingest.ErrTooLarge):
		return common.ResourceExhaustedError("file too large")
	default:
		return common.InternalError("processing failed")
	}
}

// httpStatus is the HTTP twin of toStatus.
func httpStatus(ctx context.Context, err error) (int, string, string) {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT", "processing timed out"
	case errors.Is(err, extract.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", extract.UserMessage(err)
	case errors.Is(err, extract.ErrExtractionFailed):
		return http.StatusUnprocessableEntity, "EXTRACTION_FAILED", extract.UserMessage(err)
	case errors.Is(err, ingest.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "file exceeds maximum allowed size"
	default:
		return http.StatusInternalServerError, "INTERNAL", "processing failed"
	}
}
