package dispatch

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/agriflow/reporting/internal/domain/models"
	"github.com/agriflow/reporting/internal/render"
	"github.com/agriflow/reporting/internal/repository/artifacts"
	"github.com/agriflow/reporting/internal/repository/mongodb"
)

// Assembler produces the finished document for one report request.
type Assembler interface {
	Generate(ctx context.Context, req models.ReportRequest) (*render.Document, error)
}

// Renderer serializes a document into one artifact format.
type Renderer interface {
	Extension() string
	Render(doc *render.Document) ([]byte, error)
}

// Runner executes report jobs in the background, one goroutine per job. The
// HTTP layer enqueues and returns immediately; outcomes land in the artifact
// store and the job registry, never in the HTTP response. A failed job leaves
// no artifact behind: every renderer output is produced before the first byte
// is saved.
type Runner struct {
	assembler Assembler
	renderers []Renderer
	store     artifacts.Store
	jobs      mongodb.JobStore
	timeout   time.Duration
	logger    *zap.Logger
	wg        sync.WaitGroup
}

// NewRunner wires a background job runner.
func NewRunner(assembler Assembler, renderers []Renderer, store artifacts.Store, jobs mongodb.JobStore, timeout time.Duration, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	if jobs == nil {
		jobs = mongodb.NopStore{}
	}
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &Runner{
		assembler: assembler,
		renderers: renderers,
		store:     store,
		jobs:      jobs,
		timeout:   timeout,
		logger:    logger,
	}
}

// Enqueue registers the job and starts it on its own goroutine.
func (r *Runner) Enqueue(req models.ReportRequest) {
	now := time.Now().UTC()
	if err := r.jobs.Insert(context.Background(), models.JobRecord{
		ReportID:  req.ReportID,
		UserID:    req.UserID,
		Kind:      req.Kind,
		Status:    models.JobQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		r.logger.Warn("failed to register report job", zap.String("report_id", req.ReportID), zap.Error(err))
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(req)
	}()
}

// Wait blocks until every enqueued job finished. Used during shutdown and in
// tests; new jobs must not be enqueued concurrently.
func (r *Runner) Wait() {
	r.wg.Wait()
}

func (r *Runner) run(req models.ReportRequest) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("report job panicked",
				zap.String("report_id", req.ReportID),
				zap.Any("panic", rec))
			r.markFailed(req.ReportID, "internal error while generating the report")
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	started := time.Now()
	doc, err := r.assembler.Generate(ctx, req)
	if err != nil {
		r.logger.Error("report generation failed",
			zap.String("report_id", req.ReportID),
			zap.String("kind", string(req.Kind)),
			zap.Error(err))
		r.markFailed(req.ReportID, failureReason(err))
		return
	}

	type artifact struct {
		ext  string
		data []byte
	}
	outputs := make([]artifact, 0, len(r.renderers))
	for _, renderer := range r.renderers {
		data, err := renderer.Render(doc)
		if err != nil {
			r.logger.Error("report rendering failed",
				zap.String("report_id", req.ReportID),
				zap.String("format", renderer.Extension()),
				zap.Error(err))
			r.markFailed(req.ReportID, failureReason(err))
			return
		}
		outputs = append(outputs, artifact{ext: renderer.Extension(), data: data})
	}

	for _, out := range outputs {
		if err := r.store.Save(req.UserID, req.ReportID, out.ext, out.data); err != nil {
			r.logger.Error("report artifact save failed",
				zap.String("report_id", req.ReportID),
				zap.String("format", out.ext),
				zap.Error(err))
			r.markFailed(req.ReportID, failureReason(err))
			return
		}
	}

	if err := r.jobs.MarkCompleted(context.Background(), req.ReportID); err != nil {
		r.logger.Warn("failed to mark report job completed", zap.String("report_id", req.ReportID), zap.Error(err))
	}
	r.logger.Info("report generated",
		zap.String("report_id", req.ReportID),
		zap.String("kind", string(req.Kind)),
		zap.Duration("duration", time.Since(started)))
}

func (r *Runner) markFailed(reportID, reason string) {
	if err := r.jobs.MarkFailed(context.Background(), reportID, reason); err != nil {
		r.logger.Warn("failed to mark report job failed", zap.String("report_id", reportID), zap.Error(err))
	}
}

// failureReason is what the job registry records. Malformed input keeps its
// detail so the caller can learn what was wrong with the records; anything
// else collapses to a generic message, with the full error left to the logs.
func failureReason(err error) string {
	if models.IsValidation(err) {
		return err.Error()
	}
	return "report generation failed"
}
