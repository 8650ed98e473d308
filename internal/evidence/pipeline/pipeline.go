// Package pipeline scores uploaded images in the background. Jobs travel a
// bounded queue to a fixed worker pool; each job ends with the evidence in a
// terminal score state.
package pipeline

//go:generate mockgen -source=pipeline.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	complaintmodels "safedesk/internal/complaint/models"
	"safedesk/internal/evidence/metrics"
	"safedesk/internal/evidence/models"
	messagingmodels "safedesk/internal/messaging/models"
	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
	"safedesk/pkg/platform/audit"
	"safedesk/pkg/platform/sentinel"
	"safedesk/pkg/platform/tx"
	"safedesk/pkg/requestcontext"
)

const (
	defaultWorkers    = 2
	defaultQueueSize  = 64
	defaultJobTimeout = 20 * time.Second
	drainTimeout      = 5 * time.Second
	// maxImageBytes caps what is read into memory for one classifier call.
	maxImageBytes = 32 << 20
)

type Store interface {
	Execute(ctx context.Context, evidenceID id.EvidenceID, validate func(*models.Evidence) error, mutate func(*models.Evidence)) (*models.Evidence, error)
}

type Blobs interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

type Classifier interface {
	Classify(ctx context.Context, image []byte, ext string) (*models.Verdict, error)
}

type Cases interface {
	Resolve(ctx context.Context, ref string) (*complaintmodels.Complaint, error)
}

type Notifier interface {
	PostSystemNotice(ctx context.Context, complaintID id.ComplaintID, body string) (*messagingmodels.Message, error)
}

type AuditRecorder interface {
	AppendSync(ctx context.Context, entry audit.Entry) error
}

// Job identifies one stored image awaiting a verdict.
type Job struct {
	EvidenceID  id.EvidenceID
	ComplaintID id.ComplaintID
	StorageKey  string
	FileName    string
	Extension   string
	RequestID   string
}

type Pipeline struct {
	store      Store
	blobs      Blobs
	classifier Classifier
	cases      Cases
	notifier   Notifier
	audit      AuditRecorder
	tx         tx.Runner
	logger     *slog.Logger
	metrics    *metrics.Metrics

	queue      chan Job
	workers    int
	jobTimeout time.Duration

	mu      sync.RWMutex
	stopped bool
}

type Option func(*Pipeline)

func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.queue = make(chan Job, n)
		}
	}
}

func WithJobTimeout(d time.Duration) Option {
	return func(p *Pipeline) {
		if d > 0 {
			p.jobTimeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

func WithAuditRecorder(a AuditRecorder) Option {
	return func(p *Pipeline) {
		p.audit = a
	}
}

func New(store Store, blobs Blobs, classifier Classifier, cases Cases, notifier Notifier, runner tx.Runner, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:      store,
		blobs:      blobs,
		classifier: classifier,
		cases:      cases,
		notifier:   notifier,
		tx:         runner,
		logger:     slog.Default(),
		queue:      make(chan Job, defaultQueueSize),
		workers:    defaultWorkers,
		jobTimeout: defaultJobTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enqueue hands a job to the worker pool without blocking. A full queue or a
// stopped pipeline returns sentinel.ErrQueueFull.
func (p *Pipeline) Enqueue(ctx context.Context, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return sentinel.ErrQueueFull
	}
	if job.RequestID == "" {
		job.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case p.queue <- job:
		p.reportDepth()
		return nil
	default:
		return sentinel.ErrQueueFull
	}
}

// Run starts the workers and blocks until ctx is cancelled. Jobs still
// queued at shutdown are marked failed so no record stays pending.
func (p *Pipeline) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	for range p.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-p.queue:
					p.reportDepth()
					p.Process(ctx, job)
				}
			}
		}()
	}
	<-ctx.Done()
	wg.Wait()

	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.drain()
	return nil
}

func (p *Pipeline) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case job := <-p.queue:
			p.logger.WarnContext(ctx, "evidence job abandoned at shutdown",
				"request_id", job.RequestID,
				"evidence_id", job.EvidenceID.String(),
			)
			p.MarkFailed(ctx, job.EvidenceID)
			p.metrics.IncrementAssessment("dropped")
		default:
			p.reportDepth()
			return
		}
	}
}

// Process scores one job synchronously.
func (p *Pipeline) Process(ctx context.Context, job Job) {
	ctx, cancel := context.WithTimeout(ctx, p.jobTimeout)
	defer cancel()
	ctx = requestcontext.WithRequestID(ctx, job.RequestID)

	ctx, span := otel.Tracer("safedesk/evidence").Start(ctx, "pipeline.Process",
		trace.WithAttributes(
			attribute.String("evidence.id", job.EvidenceID.String()),
			attribute.String("complaint.id", job.ComplaintID.String()),
		),
	)
	defer span.End()

	verdict, err := p.classify(ctx, job)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "classification failed")
		p.logger.WarnContext(ctx, "evidence classification failed",
			"request_id", job.RequestID,
			"evidence_id", job.EvidenceID.String(),
			"error", err,
		)
		p.MarkFailed(context.WithoutCancel(ctx), job.EvidenceID)
		p.metrics.IncrementAssessment("failed")
		return
	}

	outcome, err := p.resolve(ctx, job, verdict)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "recording verdict failed")
		p.logger.ErrorContext(ctx, "failed to record evidence verdict",
			"request_id", job.RequestID,
			"evidence_id", job.EvidenceID.String(),
			"error", err,
		)
		p.MarkFailed(context.WithoutCancel(ctx), job.EvidenceID)
		p.metrics.IncrementAssessment("failed")
		return
	}
	span.SetAttributes(attribute.String("evidence.outcome", outcome))
	p.metrics.IncrementAssessment(outcome)
}

func (p *Pipeline) classify(ctx context.Context, job Job) (*models.Verdict, error) {
	rc, err := p.blobs.Open(ctx, job.StorageKey)
	if err != nil {
		return nil, fmt.Errorf("open blob: %w", err)
	}
	defer rc.Close()

	image, err := io.ReadAll(io.LimitReader(rc, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read blob: %w", err)
	}
	return p.classifier.Classify(ctx, image, job.Extension)
}

// resolve writes the verdict, the case notice and, for suspect images, the
// audit entry in one transaction. A case or record deleted while the job
// was queued makes this a no-op.
func (p *Pipeline) resolve(ctx context.Context, job Job, verdict *models.Verdict) (string, error) {
	outcome := "genuine"
	if verdict.Flagged() {
		outcome = "flagged"
	}

	err := p.tx.RunInTx(tx.WithShardKey(ctx, job.EvidenceID.String()), func(txCtx context.Context) error {
		if _, err := p.cases.Resolve(txCtx, job.ComplaintID.String()); err != nil {
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				outcome = "dropped"
				return nil
			}
			return err
		}

		now := requestcontext.Now(txCtx)
		_, err := p.store.Execute(txCtx, job.EvidenceID,
			func(e *models.Evidence) error { return e.CanResolve() },
			func(e *models.Evidence) { e.ApplyVerdict(*verdict, now) },
		)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				outcome = "dropped"
				return nil
			}
			return err
		}

		if _, err := p.notifier.PostSystemNotice(txCtx, job.ComplaintID, noticeFor(job.FileName, verdict)); err != nil {
			return err
		}
		if !verdict.Flagged() || p.audit == nil {
			return nil
		}
		return p.audit.AppendSync(txCtx, audit.Entry{
			Action:      audit.ActionEvidenceFlagged,
			ComplaintID: job.ComplaintID,
			Details: map[string]any{
				"evidenceId": job.EvidenceID.String(),
				"fileName":   job.FileName,
				"aiScore":    scoreValue(verdict.Score),
				"aiDetails":  verdict.Details,
			},
		})
	})
	return outcome, err
}

// MarkFailed moves a pending record to failed. Records already terminal or
// gone are left alone.
func (p *Pipeline) MarkFailed(ctx context.Context, evidenceID id.EvidenceID) {
	_, err := p.store.Execute(ctx, evidenceID,
		func(e *models.Evidence) error { return e.CanResolve() },
		func(e *models.Evidence) { e.MarkFailed() },
	)
	if err == nil || errors.Is(err, sentinel.ErrNotFound) || dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
		return
	}
	p.logger.ErrorContext(ctx, "failed to mark evidence as failed",
		"request_id", requestcontext.RequestID(ctx),
		"evidence_id", evidenceID.String(),
		"error", err,
	)
}

func (p *Pipeline) reportDepth() {
	p.metrics.SetQueueDepth(len(p.queue))
}

func noticeFor(fileName string, v *models.Verdict) string {
	if v.Flagged() {
		return fmt.Sprintf("AI flagged uploaded evidence '%s' as potentially manipulated.", fileName)
	}
	return fmt.Sprintf("The uploaded image '%s' appears genuine, but you should still review it manually.", fileName)
}

func scoreValue(score *float64) any {
	if score == nil {
		return nil
	}
	return *score
}
