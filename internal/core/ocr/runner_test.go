package ocr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRunner records invocations and delegates to fn for side effects.
type stubRunner struct {
	mu    sync.Mutex
	calls []Invocation
	fn    func(inv Invocation) ([]byte, error)
}

func (s *stubRunner) Run(_ context.Context, inv Invocation) ([]byte, error) {
	s.mu.Lock()
	inv.Args = append([]string(nil), inv.Args...)
	s.calls = append(s.calls, inv)
	s.mu.Unlock()
	if s.fn == nil {
		return nil, nil
	}
	return s.fn(inv)
}

func TestExecRunnerReportsContextDeadline(t *testing.T) {
	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()
	r := execRunner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	_, err := r.Run(ctx, Invocation{Tool: "tesseract", Step: stepRecognize, Page: 1, Args: []string{"in.png", "stdout"}})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, 1, toolErr.Invocation.Page)
}

func TestToolErrorMessage(t *testing.T) {
	err := &ToolError{
		Invocation: Invocation{Tool: "pdftoppm", Step: stepRasterize, Page: 2},
		Stderr:     "Syntax Error: Couldn't read xref table\n",
		Err:        errors.New("exit status 1"),
	}
	assert.Equal(t, "pdftoppm page 2: exit status 1: Syntax Error: Couldn't read xref table", err.Error())

	err.Invocation.Page = 0
	err.Stderr = ""
	assert.Equal(t, "pdftoppm: exit status 1", err.Error())
}

func TestInvocationLogAttrs(t *testing.T) {
	assert.Equal(t, []any{"tool", "magick", "step", stepConvertHEIC}, Invocation{Tool: "magick", Step: stepConvertHEIC}.logAttrs())
	assert.Equal(t, []any{"tool", "pdftoppm", "step", stepRasterize, "page", 3}, Invocation{Tool: "pdftoppm", Step: stepRasterize, Page: 3}.logAttrs())
}
