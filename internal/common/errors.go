package common

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CodeConfig tags configuration failures raised while starting the CLI or daemon.
const CodeConfig = "CONFIG_ERROR"

// AppError is a startup or storage failure with a stable code for operators.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause == nil {
		return e.Code + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Marks for the job store and config validation. Compare with errors.Is from
// cockroachdb/errors; marked errors do not match the stdlib errors.Is.
var (
	ErrNotFound     = errors.New("extract job not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrDatabase     = errors.New("job store error")
)

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// The gRPC helpers below carry only end-user text; causes stay in the logs.

func InvalidArgumentError(message string) error {
	return status.Error(codes.InvalidArgument, message)
}

func FailedPreconditionError(message string) error {
	return status.Error(codes.FailedPrecondition, message)
}

func ResourceExhaustedError(message string) error {
	return status.Error(codes.ResourceExhausted, message)
}

func DeadlineExceededError(message string) error {
	return status.Error(codes.DeadlineExceeded, message)
}

func CanceledError(message string) error {
	return status.Error(codes.Canceled, message)
}

func InternalError(message string) error {
	return status.Error(codes.Internal, message)
}
