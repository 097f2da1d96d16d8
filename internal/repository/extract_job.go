package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/joseph-ayodele/tradeslip/constants"
	"github.com/joseph-ayodele/tradeslip/internal/common"
	"github.com/joseph-ayodele/tradeslip/internal/entity"
)

// StartJob describes a document entering the pipeline.
type StartJob struct {
	Filename    string
	MediaType   string
	Format      constants.MediaKind
	ContentHash string
}

// TextOutcome is the result of the extraction stage.
type TextOutcome struct {
	Method string
	Pages  int
	Text   string
}

// ParseOutcome is the result of the parsing stage.
type ParseOutcome struct {
	CandidateJSON []byte
	Confidence    string
	Detector      string
	NeedsReview   bool
}

type ExtractJobRepository interface {
	Start(ctx context.Context, in StartJob) (*entity.ExtractJob, error)
	FinishText(ctx context.Context, jobID uuid.UUID, out TextOutcome) error
	FinishParse(ctx context.Context, jobID uuid.UUID, out ParseOutcome) error
	FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error
	Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error)
	ListRecent(ctx context.Context, limit int) ([]entity.ExtractJob, error)
	FindLatestByHash(ctx context.Context, contentHash string) (*entity.ExtractJob, error)
}

type extractJobRepo struct {
	db  *sqlx.DB
	log *slog.Logger
	now func() time.Time
}

func NewExtractJobRepository(db *sqlx.DB, log *slog.Logger) ExtractJobRepository {
	if log == nil {
		log = slog.Default()
	}
	return &extractJobRepo{db: db, log: log, now: func() time.Time { return time.Now().UTC() }}
}

const jobColumns = `id, filename, media_type, format, content_hash, status, method, pages,
	extracted_text, extracted_json, confidence, detector, needs_review, error_message, started_at, finished_at`

func (r *extractJobRepo) Start(ctx context.Context, in StartJob) (*entity.ExtractJob, error) {
	job := &entity.ExtractJob{
		ID:          uuid.New(),
		Filename:    in.Filename,
		MediaType:   in.MediaType,
		Format:      string(in.Format),
		ContentHash: in.ContentHash,
		Status:      string(constants.JobStatusRunning),
		StartedAt:   r.now(),
	}
	q := r.db.Rebind(`INSERT INTO extract_jobs (id, filename, media_type, format, content_hash, status, needs_review, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if _, err := r.db.ExecContext(ctx, q, job.ID, job.Filename, job.MediaType, job.Format, job.ContentHash, job.Status, false, job.StartedAt); err != nil {
		r.log.Error("extract_job start failed", "filename", in.Filename, "err", err)
		return nil, errors.Mark(errors.Wrap(err, "insert extract_job"), common.ErrDatabase)
	}
	r.log.Info("extract_job started", "job_id", job.ID, "filename", in.Filename, "format", job.Format)
	return job, nil
}

func (r *extractJobRepo) FinishText(ctx context.Context, jobID uuid.UUID, out TextOutcome) error {
	q := r.db.Rebind(`UPDATE extract_jobs SET status = ?, method = ?, pages = ?, extracted_text = ? WHERE id = ?`)
	if err := r.execOne(ctx, q, string(constants.JobStatusTextOK), out.Method, out.Pages, out.Text, jobID); err != nil {
		r.log.Error("extract_job finish(TEXT_OK) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job text stored", "job_id", jobID, "method", out.Method, "pages", out.Pages)
	return nil
}

func (r *extractJobRepo) FinishParse(ctx context.Context, jobID uuid.UUID, out ParseOutcome) error {
	q := r.db.Rebind(`UPDATE extract_jobs SET status = ?, extracted_json = ?, confidence = ?, detector = ?, needs_review = ?, finished_at = ? WHERE id = ?`)
	if err := r.execOne(ctx, q, string(constants.JobStatusParsed), string(out.CandidateJSON), out.Confidence, out.Detector, out.NeedsReview, r.now(), jobID); err != nil {
		r.log.Error("extract_job finish(PARSED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Info("extract_job finished (PARSED)", "job_id", jobID, "confidence", out.Confidence, "needs_review", out.NeedsReview)
	return nil
}

func (r *extractJobRepo) FinishFailure(ctx context.Context, jobID uuid.UUID, message string) error {
	q := r.db.Rebind(`UPDATE extract_jobs SET status = ?, error_message = ?, needs_review = ?, finished_at = ? WHERE id = ?`)
	if err := r.execOne(ctx, q, string(constants.JobStatusFailed), message, true, r.now(), jobID); err != nil {
		r.log.Error("extract_job finish(FAILED) failed", "job_id", jobID, "err", err)
		return err
	}
	r.log.Warn("extract_job finished (FAILED)", "job_id", jobID, "error", message)
	return nil
}

func (r *extractJobRepo) Get(ctx context.Context, jobID uuid.UUID) (*entity.ExtractJob, error) {
	var job entity.ExtractJob
	q := r.db.Rebind(`SELECT ` + jobColumns + ` FROM extract_jobs WHERE id = ?`)
	if err := r.db.GetContext(ctx, &job, q, jobID); err != nil {
		return nil, notFoundOr(err, "get extract_job")
	}
	return &job, nil
}

func (r *extractJobRepo) ListRecent(ctx context.Context, limit int) ([]entity.ExtractJob, error) {
	if limit <= 0 {
		limit = 50
	}
	jobs := []entity.ExtractJob{}
	q := r.db.Rebind(`SELECT ` + jobColumns + ` FROM extract_jobs ORDER BY started_at DESC LIMIT ?`)
	if err := r.db.SelectContext(ctx, &jobs, q, limit); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "list extract_jobs"), common.ErrDatabase)
	}
	return jobs, nil
}

// FindLatestByHash returns the most recent parsed job for identical content.
func (r *extractJobRepo) FindLatestByHash(ctx context.Context, contentHash string) (*entity.ExtractJob, error) {
	var job entity.ExtractJob
	q := r.db.Rebind(`SELECT ` + jobColumns + ` FROM extract_jobs WHERE content_hash = ? AND status = ? ORDER BY started_at DESC LIMIT 1`)
	if err := r.db.GetContext(ctx, &job, q, contentHash, string(constants.JobStatusParsed)); err != nil {
		return nil, notFoundOr(err, "find extract_job by hash")
	}
	return &job, nil
}

func (r *extractJobRepo) execOne(ctx context.Context, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return errors.Mark(errors.Wrap(err, "update extract_job"), common.ErrDatabase)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Mark(errors.Wrap(err, "rows affected"), common.ErrDatabase)
	}
	if n == 0 {
		return errors.Mark(errors.New("extract_job not found"), common.ErrNotFound)
	}
	return nil
}

func notFoundOr(err error, msg string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return errors.Mark(errors.Wrap(err, msg), common.ErrNotFound)
	}
	return errors.Mark(errors.Wrap(err, msg), common.ErrDatabase)
}
