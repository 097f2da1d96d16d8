package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
)

func expiredContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	t.Cleanup(cancel)
	return ctx
}

func TestToStatusPrefersExpiredDeadline(t *testing.T) {
	killed := &extract.Error{Kind: extract.ErrRasterizationFailed, Message: "Kunne ikke lese PDF-filen.", Cause: errors.New("pdftoppm: signal: killed")}

	assert.Equal(t, codes.DeadlineExceeded, status.Code(toStatus(expiredContext(t), killed)))
	assert.Equal(t, codes.FailedPrecondition, status.Code(toStatus(context.Background(), killed)))
}

func TestToStatusCanceledRequest(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, codes.Canceled, status.Code(toStatus(ctx, ocrFailedErr())))
	assert.NoError(t, toStatus(ctx, nil))
}

func TestToStatusKinds(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, codes.InvalidArgument, status.Code(toStatus(ctx, unsupportedErr())))
	assert.Equal(t, codes.DeadlineExceeded, status.Code(toStatus(ctx, errors.Wrap(context.DeadlineExceeded, "ocr"))))
	assert.Equal(t, codes.Internal, status.Code(toStatus(ctx, errors.New("boom"))))
}

func TestHTTPStatusPrefersExpiredDeadline(t *testing.T) {
	code, apiCode, _ := httpStatus(expiredContext(t), ocrFailedErr())
	assert.Equal(t, http.StatusGatewayTimeout, code)
	assert.Equal(t, "TIMEOUT", apiCode)

	code, _, _ = httpStatus(context.Background(), ocrFailedErr())
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}
