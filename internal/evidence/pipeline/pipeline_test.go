package pipeline

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	complaintmodels "safedesk/internal/complaint/models"
	complaintservice "safedesk/internal/complaint/service"
	complaintstore "safedesk/internal/complaint/store"
	"safedesk/internal/evidence/blob"
	"safedesk/internal/evidence/models"
	"safedesk/internal/evidence/pipeline/mocks"
	evidencestore "safedesk/internal/evidence/store"
	"safedesk/internal/identity"
	"safedesk/internal/identity/sequence"
	messagingmodels "safedesk/internal/messaging/models"
	messagingservice "safedesk/internal/messaging/service"
	messagestore "safedesk/internal/messaging/store"
	id "safedesk/pkg/domain"
	"safedesk/pkg/platform/audit"
	"safedesk/pkg/platform/sentinel"
	"safedesk/pkg/platform/tx"
	"safedesk/pkg/requestcontext"
	"safedesk/pkg/secrets"
	"safedesk/pkg/testutil"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n-image-body")

type PipelineSuite struct {
	suite.Suite
	ctx        context.Context
	ctrl       *gomock.Controller
	classifier *mocks.MockClassifier
	auditor    *mocks.MockAuditRecorder
	evidence   *evidencestore.InMemory
	messages   *messagestore.InMemory
	blobs      *blob.Disk
	pipeline   *Pipeline
	complaint  id.ComplaintID
	now        time.Time
}

func TestPipelineSuite(t *testing.T) {
	suite.Run(t, new(PipelineSuite))
}

func (s *PipelineSuite) SetupTest() {
	s.now = time.Date(2025, 6, 3, 14, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.ctrl = gomock.NewController(s.T())
	s.classifier = mocks.NewMockClassifier(s.ctrl)
	s.auditor = mocks.NewMockAuditRecorder(s.ctrl)

	issuer := identity.NewIssuer(sequence.NewInMemory(), identity.WithHashCost(secrets.MinCost))
	cases := complaintservice.New(complaintstore.NewInMemory(), issuer)
	s.messages = messagestore.NewInMemory()
	notices := messagingservice.New(s.messages, cases)
	s.evidence = evidencestore.NewInMemory()

	var err error
	s.blobs, err = blob.NewDisk(s.T().TempDir(), "/uploads")
	s.Require().NoError(err)

	s.pipeline = New(s.evidence, s.blobs, s.classifier, cases, notices, tx.NewLockRunner(),
		WithAuditRecorder(s.auditor),
		WithQueueSize(1),
	)

	res, err := cases.Submit(s.ctx, complaintservice.SubmitCommand{
		OrganizationID: testutil.NewOrganizationID(),
		Incident: complaintmodels.Incident{
			Type:        complaintmodels.IncidentOther,
			Date:        "2025-06-01",
			Location:    "Warehouse",
			Description: "Photo of the notice board",
			AccusedRole: "Supervisor",
		},
		IsAnonymous: true,
	})
	s.Require().NoError(err)
	s.complaint = res.ComplaintID
}

func (s *PipelineSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *PipelineSuite) storeImage(name string) Job {
	key := blob.NewKey(".png")
	s.Require().NoError(s.blobs.Put(s.ctx, key, bytes.NewReader(pngBytes), "image/png"))
	e, err := models.NewEvidence(id.NewEvidenceID(), s.complaint, key, s.blobs.URL(key), name, "image/png", "sum", int64(len(pngBytes)), s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.evidence.Create(s.ctx, e))
	return Job{EvidenceID: e.ID, ComplaintID: s.complaint, StorageKey: key, FileName: name, Extension: "png"}
}

func (s *PipelineSuite) notices() []*messagingmodels.Message {
	msgs, err := s.messages.ListByComplaint(s.ctx, s.complaint)
	s.Require().NoError(err)
	return msgs
}

func (s *PipelineSuite) stateOf(evidenceID id.EvidenceID) *models.Evidence {
	e, err := s.evidence.FindByID(s.ctx, evidenceID)
	s.Require().NoError(err)
	return e
}

func (s *PipelineSuite) TestFlaggedImage() {
	job := s.storeImage("desk.png")
	score := 0.2
	s.classifier.EXPECT().Classify(gomock.Any(), pngBytes, "png").
		Return(&models.Verdict{Score: &score, Details: map[string]any{"isAI": false, "aiScore": 0.2}}, nil)

	var recorded audit.Entry
	s.auditor.EXPECT().AppendSync(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, entry audit.Entry) error {
			recorded = entry
			return nil
		})

	s.pipeline.Process(s.ctx, job)

	e := s.stateOf(job.EvidenceID)
	s.Equal(models.ScoreScored, e.ScoreState)
	s.Require().NotNil(e.Assessment)
	s.False(e.Assessment.IsAuthentic)
	s.Equal(s.now, e.Assessment.AssessedAt)

	msgs := s.notices()
	s.Require().Len(msgs, 1)
	s.Equal(messagingmodels.SenderReviewer, msgs[0].SenderRole)
	s.Equal("AI flagged uploaded evidence 'desk.png' as potentially manipulated.", msgs[0].Body)

	s.Equal(audit.ActionEvidenceFlagged, recorded.Action)
	s.Equal(s.complaint, recorded.ComplaintID)
	s.Equal(job.EvidenceID.String(), recorded.Details["evidenceId"])
	s.Equal("desk.png", recorded.Details["fileName"])
	s.Equal(0.2, recorded.Details["aiScore"])
}

func (s *PipelineSuite) TestGenuineImage() {
	job := s.storeImage("receipt.png")
	score := 0.93
	s.classifier.EXPECT().Classify(gomock.Any(), pngBytes, "png").
		Return(&models.Verdict{Score: &score}, nil)

	s.pipeline.Process(s.ctx, job)

	e := s.stateOf(job.EvidenceID)
	s.Equal(models.ScoreScored, e.ScoreState)
	s.True(e.Assessment.IsAuthentic)

	msgs := s.notices()
	s.Require().Len(msgs, 1)
	s.True(strings.HasPrefix(msgs[0].Body, "The uploaded image 'receipt.png' appears genuine"))
}

func (s *PipelineSuite) TestSyntheticFlagWinsOverHighScore() {
	job := s.storeImage("render.png")
	score := 0.99
	s.classifier.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.Verdict{IsSynthetic: true, Score: &score}, nil)
	s.auditor.EXPECT().AppendSync(gomock.Any(), gomock.Any()).Return(nil)

	s.pipeline.Process(s.ctx, job)

	s.False(s.stateOf(job.EvidenceID).Assessment.IsAuthentic)
}

func (s *PipelineSuite) TestClassifierFailureMarksFailed() {
	job := s.storeImage("broken.png")
	s.classifier.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, sentinel.ErrUnavailable)

	s.pipeline.Process(s.ctx, job)

	e := s.stateOf(job.EvidenceID)
	s.Equal(models.ScoreFailed, e.ScoreState)
	s.Nil(e.Assessment)
	s.Empty(s.notices())
}

func (s *PipelineSuite) TestJobTimeoutBoundsClassifier() {
	bounded := New(s.evidence, s.blobs, s.classifier, s.pipeline.cases, s.pipeline.notifier, tx.NewLockRunner(),
		WithJobTimeout(50*time.Millisecond),
	)
	job := s.storeImage("slow.png")
	s.classifier.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ []byte, _ string) (*models.Verdict, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	start := time.Now()
	bounded.Process(s.ctx, job)

	s.Less(time.Since(start), 2*time.Second)
	e := s.stateOf(job.EvidenceID)
	s.Equal(models.ScoreFailed, e.ScoreState)
	s.Nil(e.Assessment)
	s.Empty(s.notices())
}

func (s *PipelineSuite) TestMissingBlobMarksFailed() {
	job := s.storeImage("gone.png")
	s.Require().NoError(s.blobs.Delete(s.ctx, job.StorageKey))

	s.pipeline.Process(s.ctx, job)

	s.Equal(models.ScoreFailed, s.stateOf(job.EvidenceID).ScoreState)
}

func (s *PipelineSuite) TestDeletedRecordIsNoOp() {
	job := s.storeImage("orphan.png")
	job.EvidenceID = id.NewEvidenceID()
	score := 0.1
	s.classifier.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.Verdict{Score: &score}, nil)

	s.pipeline.Process(s.ctx, job)

	s.Empty(s.notices())
}

func (s *PipelineSuite) TestVerdictAppliesOnce() {
	job := s.storeImage("twice.png")
	score := 0.8
	s.classifier.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.Verdict{Score: &score}, nil).Times(2)

	s.pipeline.Process(s.ctx, job)
	s.pipeline.Process(s.ctx, job)

	s.Len(s.notices(), 1)
	s.Equal(models.ScoreScored, s.stateOf(job.EvidenceID).ScoreState)
}

func (s *PipelineSuite) TestQueue() {
	queued := s.storeImage("a.png")

	s.Run("full queue rejects without blocking", func() {
		s.Require().NoError(s.pipeline.Enqueue(s.ctx, queued))
		s.ErrorIs(s.pipeline.Enqueue(s.ctx, s.storeImage("b.png")), sentinel.ErrQueueFull)
	})

	s.Run("queued jobs fail at shutdown", func() {
		s.pipeline.drain()

		s.Equal(models.ScoreFailed, s.stateOf(queued.EvidenceID).ScoreState)
		s.Empty(s.notices())
	})

	s.Run("stopped pipeline rejects", func() {
		ctx, cancel := context.WithCancel(s.ctx)
		cancel()
		s.Require().NoError(s.pipeline.Run(ctx))
		s.ErrorIs(s.pipeline.Enqueue(s.ctx, s.storeImage("c.png")), sentinel.ErrQueueFull)
	})
}

func (s *PipelineSuite) TestRunScoresQueuedJobs() {
	job := s.storeImage("async.png")
	score := 0.7
	s.classifier.EXPECT().Classify(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(&models.Verdict{Score: &score}, nil)

	ctx, cancel := context.WithCancel(s.ctx)
	done := make(chan error, 1)
	go func() { done <- s.pipeline.Run(ctx) }()

	s.Require().NoError(s.pipeline.Enqueue(s.ctx, job))
	s.Eventually(func() bool {
		e, err := s.evidence.FindByID(s.ctx, job.EvidenceID)
		return err == nil && e.ScoreState == models.ScoreScored
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	s.Require().NoError(<-done)
}
