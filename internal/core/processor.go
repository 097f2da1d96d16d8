package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/joseph-ayodele/tradeslip/constants"
	"github.com/joseph-ayodele/tradeslip/internal/core/extract"
	"github.com/joseph-ayodele/tradeslip/internal/core/parse"
	"github.com/joseph-ayodele/tradeslip/internal/metrics"
	"github.com/joseph-ayodele/tradeslip/internal/repository"
)

// Extractor turns a raw document into text. *extract.Orchestrator implements it.
type Extractor interface {
	Extract(ctx context.Context, doc extract.RawDocument, onProgress extract.ProgressFunc) (extract.Result, error)
}

// Outcome is what one document produced. JobID is uuid.Nil when no audit row was written.
type Outcome struct {
	JobID         uuid.UUID
	ContentHash   string
	Extraction    extract.Result
	Candidate     parse.Candidate
	CandidateJSON []byte
}

// Processor coordinates text extraction then parsing, auditing each run when a job repository is set.
type Processor struct {
	logger    *slog.Logger
	extractor Extractor
	jobs      repository.ExtractJobRepository
	metrics   *metrics.Metrics
	detectors []parse.Detector
}

type ProcessorOption func(*Processor)

func WithJobs(jobs repository.ExtractJobRepository) ProcessorOption {
	return func(p *Processor) { p.jobs = jobs }
}

func WithMetrics(m *metrics.Metrics) ProcessorOption {
	return func(p *Processor) { p.metrics = m }
}

func WithDetectors(d []parse.Detector) ProcessorOption {
	return func(p *Processor) {
		if len(d) > 0 {
			p.detectors = d
		}
	}
}

func NewProcessor(logger *slog.Logger, extractor Extractor, opts ...ProcessorOption) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{logger: logger, extractor: extractor, detectors: parse.Detectors}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process extracts the text of doc and parses a candidate from it.
// Audit failures are logged and never fail the run.
func (p *Processor) Process(ctx context.Context, doc extract.RawDocument, onProgress extract.ProgressFunc) (*Outcome, error) {
	out := &Outcome{ContentHash: ContentHash(doc.Data)}
	logger := p.logger.With("filename", doc.Filename, "content_hash", out.ContentHash)

	out.JobID = p.startJob(ctx, doc, out.ContentHash, logger)

	res, err := p.ExtractText(ctx, doc, onProgress)
	if err != nil {
		p.audit(logger, "finish failure", func() error {
			return p.jobs.FinishFailure(ctx, out.JobID, failureMessage(err))
		}, out.JobID)
		return out, err
	}
	out.Extraction = res
	p.audit(logger, "finish text", func() error {
		return p.jobs.FinishText(ctx, out.JobID, repository.TextOutcome{Method: res.Method, Pages: res.Pages, Text: res.Text})
	}, out.JobID)

	cand, data, err := p.ParseText(res.Text)
	if err != nil {
		p.audit(logger, "finish failure", func() error {
			return p.jobs.FinishFailure(ctx, out.JobID, err.Error())
		}, out.JobID)
		return out, err
	}
	out.Candidate, out.CandidateJSON = cand, data
	p.audit(logger, "finish parse", func() error {
		return p.jobs.FinishParse(ctx, out.JobID, repository.ParseOutcome{
			CandidateJSON: data,
			Confidence:    string(cand.Confidence),
			Detector:      cand.Detector,
			NeedsReview:   cand.NeedsReview(),
		})
	}, out.JobID)

	logger.Info("slip processed",
		"job_id", out.JobID,
		"method", res.Method,
		"detector", cand.Detector,
		"confidence", cand.Confidence,
		"needs_review", cand.NeedsReview(),
	)
	return out, nil
}

// ExtractText runs extraction only.
func (p *Processor) ExtractText(ctx context.Context, doc extract.RawDocument, onProgress extract.ProgressFunc) (extract.Result, error) {
	res, err := p.extractor.Extract(ctx, doc, onProgress)
	p.metrics.ObserveExtraction(res.Method, res.Duration, err)
	return res, err
}

// ParseText parses text into a candidate and its schema-validated JSON.
func (p *Processor) ParseText(text string) (parse.Candidate, []byte, error) {
	cand := parse.ParseWith(p.detectors, text)
	p.metrics.ObserveCandidate(cand.Detector, string(cand.Confidence))
	data, err := parse.MarshalValidated(cand)
	if err != nil {
		return cand, nil, errors.Wrap(err, "candidate json")
	}
	return cand, data, nil
}

func (p *Processor) startJob(ctx context.Context, doc extract.RawDocument, hash string, logger *slog.Logger) uuid.UUID {
	if p.jobs == nil {
		return uuid.Nil
	}
	job, err := p.jobs.Start(ctx, repository.StartJob{
		Filename:    doc.Filename,
		MediaType:   doc.MediaType,
		Format:      constants.MapMediaType(doc.MediaType, doc.Filename),
		ContentHash: hash,
	})
	if err != nil {
		logger.Warn("audit start failed; continuing without job", "err", err)
		return uuid.Nil
	}
	return job.ID
}

func (p *Processor) audit(logger *slog.Logger, step string, fn func() error, jobID uuid.UUID) {
	if p.jobs == nil || jobID == uuid.Nil {
		return
	}
	if err := fn(); err != nil {
		logger.Warn("audit "+step+" failed", "job_id", jobID, "err", err)
	}
}

func failureMessage(err error) string {
	if msg := extract.UserMessage(err); msg != "" {
		return msg + " (" + err.Error() + ")"
	}
	return err.Error()
}

// ContentHash is the hex sha256 of data.
func ContentHash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
