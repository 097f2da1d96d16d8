package ocr

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"
)

// Steps a tool can run for.
const (
	stepRasterize   = "rasterize"
	stepRecognize   = "recognize"
	stepConvertHEIC = "convert-heic"
)

// maxStderr bounds how much tool output ends up in errors and logs.
const maxStderr = 512

// Invocation is one external tool run on behalf of a slip.
type Invocation struct {
	Tool string // binary name or path
	Step string
	Page int // 1-based; 0 when the run covers the whole document
	Args []string
}

func (inv Invocation) logAttrs() []any {
	attrs := []any{"tool", inv.Tool, "step", inv.Step}
	if inv.Page > 0 {
		attrs = append(attrs, "page", inv.Page)
	}
	return attrs
}

// ToolError is a failed tool run. Err is the context error when the run was
// cut short by its context, so errors.Is sees deadlines through it.
type ToolError struct {
	Invocation Invocation
	Stderr     string
	Err        error
}

func (e *ToolError) Error() string {
	var b strings.Builder
	b.WriteString(e.Invocation.Tool)
	if e.Invocation.Page > 0 {
		fmt.Fprintf(&b, " page %d", e.Invocation.Page)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		b.WriteString(": ")
		b.WriteString(s)
	}
	return b.String()
}

func (e *ToolError) Unwrap() error { return e.Err }

// Runner runs external tools; tests swap in a stub.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (stdout []byte, err error)
}

type execRunner struct {
	logger *slog.Logger
}

func (r execRunner) Run(ctx context.Context, inv Invocation) ([]byte, error) {
	logger := r.logger.With(inv.logAttrs()...)
	logger.Debug("tool start", "args", strings.Join(inv.Args, " "))

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, inv.Tool, inv.Args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	elapsed := time.Since(start).Milliseconds()

	if err == nil {
		logger.Debug("tool done", "duration_ms", elapsed, "stdout_bytes", stdout.Len())
		return stdout.Bytes(), nil
	}
	// A killed process reports "signal: killed"; the context says why.
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}
	toolErr := &ToolError{Invocation: inv, Stderr: truncate(stderr.String(), maxStderr), Err: err}
	logger.Warn("tool failed", "duration_ms", elapsed, "error", toolErr)
	return nil, toolErr
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
