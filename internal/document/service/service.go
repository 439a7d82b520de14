package service

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/jargoyle/jargoyle/internal/document"
	"github.com/jargoyle/jargoyle/internal/document/repository"
	"github.com/jargoyle/jargoyle/internal/summarize"
	"github.com/jargoyle/jargoyle/pkg/logger"
)

// Uploader keeps the original uploaded bytes. Satisfied by storage.MinIOStorage.
type Uploader interface {
	UploadFile(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	DeleteFile(ctx context.Context, key string) error
}

// Summarizer is the opaque summarization collaborator. The pipeline itself
// (text extraction, LLM calls) lives elsewhere; this service only consumes
// its structured result.
type Summarizer interface {
	Summarize(ctx context.Context, d *document.Document) (*document.SummaryResult, error)
}

// JobRecorder keeps an audit trail of summarization attempts.
// Satisfied by summarize.Store, whose nil value is a no-op.
type JobRecorder interface {
	SaveJob(ctx context.Context, j *summarize.PersistedJob) error
}

const processTimeout = 5 * time.Minute

// Service implements the user-scoped document operations. Storage and
// summarizer are optional: without storage originals are not retained, and
// without a summarizer documents stay pending.
type Service struct {
	repo       repository.Repository
	storage    Uploader
	summarizer Summarizer
	jobs       JobRecorder
}

func New(repo repository.Repository, storage Uploader, summarizer Summarizer) *Service {
	var jobs *summarize.Store
	return &Service{repo: repo, storage: storage, summarizer: summarizer, jobs: jobs}
}

// WithJobRecorder attaches the summarization audit trail.
func (s *Service) WithJobRecorder(jobs JobRecorder) *Service {
	s.jobs = jobs
	return s
}

// Upload registers a new document for the user, stores the original bytes and
// kicks off summarization when a collaborator is wired.
func (s *Service) Upload(ctx context.Context, userID, title, filename, contentType string, r io.Reader, size int64) (*document.Document, error) {
	if title == "" {
		title = filename
	}
	d := &document.Document{
		ID:               uuid.NewString(),
		UserID:           userID,
		Title:            title,
		InputType:        "file",
		OriginalFilename: filename,
		Status:           document.StatusPending,
	}
	if s.storage != nil {
		d.StorageKey = fmt.Sprintf("uploads/%s/%s", userID, d.ID)
		if err := s.storage.UploadFile(ctx, d.StorageKey, r, size, contentType); err != nil {
			return nil, fmt.Errorf("store original: %w", err)
		}
	}
	if _, err := s.repo.Create(ctx, d); err != nil {
		return nil, err
	}
	if s.summarizer != nil {
		go s.process(d)
	}
	return d, nil
}

// process runs one summarization attempt and records the outcome on the
// document. Runs detached from the upload request.
func (s *Service) process(d *document.Document) {
	ctx, cancel := context.WithTimeout(context.Background(), processTimeout)
	defer cancel()

	job := &summarize.PersistedJob{
		JobID:      uuid.NewString(),
		DocumentID: d.ID,
		Status:     document.StatusProcessing,
		StartedAt:  time.Now().UTC(),
	}
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		logger.Warnf("document %s: record job %s: %v", d.ID, job.JobID, err)
	}

	if err := s.repo.SetStatus(ctx, d.ID, document.StatusProcessing, ""); err != nil {
		logger.Errorf("document %s: mark processing: %v", d.ID, err)
		return
	}
	res, err := s.summarizer.Summarize(ctx, d)
	if err != nil {
		logger.Warnf("document %s: summarization failed: %v", d.ID, err)
		_ = s.repo.SetStatus(ctx, d.ID, document.StatusFailed, err.Error())
		s.finishJob(ctx, job, document.StatusFailed, err.Error())
		return
	}
	sum := &document.Summary{
		DocumentID:   d.ID,
		PlainSummary: res.PlainSummary,
		KeyFacts:     res.KeyFacts,
		FlaggedTerms: res.FlaggedTerms,
		GeneratedAt:  time.Now().UTC(),
	}
	if err := s.repo.SaveSummary(ctx, sum); err != nil {
		logger.Errorf("document %s: save summary: %v", d.ID, err)
		_ = s.repo.SetStatus(ctx, d.ID, document.StatusFailed, "failed to persist summary")
		s.finishJob(ctx, job, document.StatusFailed, "failed to persist summary")
		return
	}
	var title, docType *string
	if res.Title != "" {
		title = &res.Title
	}
	if res.DocumentType != "" {
		docType = &res.DocumentType
	}
	if title != nil || docType != nil {
		_ = s.repo.UpdateMeta(ctx, d.ID, d.UserID, title, docType)
	}
	_ = s.repo.SetStatus(ctx, d.ID, document.StatusCompleted, "")
	s.finishJob(ctx, job, document.StatusCompleted, "")
}

func (s *Service) finishJob(ctx context.Context, job *summarize.PersistedJob, status, errMsg string) {
	job.Status = status
	job.Error = errMsg
	job.FinishedAt = time.Now().UTC()
	if err := s.jobs.SaveJob(ctx, job); err != nil {
		logger.Warnf("document %s: record job %s: %v", job.DocumentID, job.JobID, err)
	}
}

func (s *Service) ListByUser(ctx context.Context, userID string, page, size int) ([]*document.Document, int64, error) {
	return s.repo.ListByUser(ctx, userID, page, size)
}

// Get returns a document and, when generated, its summary.
func (s *Service) Get(ctx context.Context, id, userID string) (*document.Document, *document.Summary, error) {
	d, err := s.repo.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return nil, nil, err
	}
	sum, err := s.repo.GetSummary(ctx, d.ID)
	if err != nil {
		return nil, nil, err
	}
	return d, sum, nil
}

func (s *Service) UpdateMeta(ctx context.Context, id, userID string, title, documentType *string) error {
	return s.repo.UpdateMeta(ctx, id, userID, title, documentType)
}

// Delete removes the document, its summary and the stored original. A failed
// object removal is logged but does not keep the record alive.
func (s *Service) Delete(ctx context.Context, id, userID string) error {
	d, err := s.repo.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteByIDAndUser(ctx, id, userID); err != nil {
		return err
	}
	if s.storage != nil && d.StorageKey != "" {
		if err := s.storage.DeleteFile(ctx, d.StorageKey); err != nil {
			logger.Warnf("document %s: remove original %s: %v", id, d.StorageKey, err)
		}
	}
	return nil
}
