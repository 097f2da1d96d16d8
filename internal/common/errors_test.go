package common

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestAppError(t *testing.T) {
	err := NewAppError(CodeConfig, "ocr.scale must be positive", ErrInvalidInput)
	assert.Equal(t, "CONFIG_ERROR: ocr.scale must be positive: invalid input", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidInput))

	bare := NewAppError(CodeConfig, "missing dsn", nil)
	assert.Equal(t, "CONFIG_ERROR: missing dsn", bare.Error())
	assert.Nil(t, bare.Unwrap())
}

func TestStatusHelpers(t *testing.T) {
	cases := map[codes.Code]error{
		codes.InvalidArgument:    InvalidArgumentError("Ugyldig filtype."),
		codes.FailedPrecondition: FailedPreconditionError("Kunne ikke lese PDF-filen."),
		codes.ResourceExhausted:  ResourceExhaustedError("file too large"),
		codes.DeadlineExceeded:   DeadlineExceededError("processing timed out"),
		codes.Canceled:           CanceledError("request canceled"),
		codes.Internal:           InternalError("processing failed"),
	}
	for code, err := range cases {
		st, ok := status.FromError(err)
		assert.True(t, ok)
		assert.Equal(t, code, st.Code())
	}
}
