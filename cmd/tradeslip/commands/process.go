package commands

import (
	"context"

	"github.com/joseph-ayodele/tradeslip/internal/core"
	"github.com/joseph-ayodele/tradeslip/internal/core/parse"
	"github.com/joseph-ayodele/tradeslip/internal/export"
	"github.com/joseph-ayodele/tradeslip/internal/ingest"
)

// processPath runs one file through the pipeline. The row is usable even when err is set.
func processPath(ctx context.Context, proc *core.Processor, path string, maxBytes int64) (export.Row, error) {
	doc, err := ingest.LoadDocument(path, maxBytes)
	if err != nil {
		return export.RowFromCandidate(path, parse.Candidate{}, err), err
	}
	out, err := proc.Process(ctx, doc, nil)
	if err != nil {
		return export.RowFromCandidate(path, parse.Candidate{}, err), err
	}
	return export.RowFromCandidate(path, out.Candidate, nil), nil
}
