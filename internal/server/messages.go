package server

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/tradeslip/internal/core"
	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
	"github.com/joseph-ayodele/tradeslip/internal/core/parse"
)

type ParseTextRequest struct {
	Text string `json:"text" binding:"required"`
}

type ParseTextResponse struct {
	Candidate   parse.Candidate `json:"candidate"`
	NeedsReview bool            `json:"needs_review"`
}

// ScanDocumentRequest carries one upload. Data is base64 in JSON.
type ScanDocumentRequest struct {
	Filename  string `json:"filename"`
	MediaType string `json:"media_type"`
	Data      []byte `json:"data"`
}

// ScanEvent is one message of the ScanDocument stream: progress events, then exactly one result.
type ScanEvent struct {
	Progress *extract.Progress `json:"progress,omitempty"`
	Result   *ScanResult       `json:"result,omitempty"`
}

type ScanResult struct {
	JobID       string          `json:"job_id,omitempty"`
	ContentHash string          `json:"content_hash"`
	Method      string          `json:"method"`
	Pages       int             `json:"pages"`
	DurationMS  int64           `json:"duration_ms"`
	Text        string          `json:"text"`
	Candidate   parse.Candidate `json:"candidate"`
	NeedsReview bool            `json:"needs_review"`
}

// NewScanResult flattens a processing outcome for the wire.
func NewScanResult(out *core.Outcome) *ScanResult {
	res := &ScanResult{
		ContentHash: out.ContentHash,
		Method:      out.Extraction.Method,
		Pages:       out.Extraction.Pages,
		DurationMS:  out.Extraction.Duration.Round(time.Millisecond).Milliseconds(),
		Text:        out.Extraction.Text,
		Candidate:   out.Candidate,
		NeedsReview: out.Candidate.NeedsReview(),
	}
	if out.JobID != uuid.Nil {
		res.JobID = out.JobID.String()
	}
	return res
}
