package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	complaintmodels "safedesk/internal/complaint/models"
	complaintservice "safedesk/internal/complaint/service"
	complaintstore "safedesk/internal/complaint/store"
	"safedesk/internal/identity"
	"safedesk/internal/identity/sequence"
	"safedesk/internal/messaging/models"
	"safedesk/internal/messaging/service/mocks"
	messagestore "safedesk/internal/messaging/store"
	id "safedesk/pkg/domain"
	dErrors "safedesk/pkg/domain-errors"
	"safedesk/pkg/requestcontext"
	"safedesk/pkg/secrets"
	"safedesk/pkg/testutil"
)

type MessagingSuite struct {
	suite.Suite
	ctx      context.Context
	cases    *complaintservice.Service
	store    *messagestore.InMemory
	service  *Service
	org      id.OrganizationID
	reviewer models.Proof
	caseRef  string
	pin      string
}

func TestMessagingSuite(t *testing.T) {
	suite.Run(t, new(MessagingSuite))
}

func (s *MessagingSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	s.org = testutil.NewOrganizationID()
	s.reviewer = models.SessionProof(id.NewReviewerID(), s.org)

	issuer := identity.NewIssuer(sequence.NewInMemory(), identity.WithHashCost(secrets.MinCost))
	s.cases = complaintservice.New(complaintstore.NewInMemory(), issuer)
	s.store = messagestore.NewInMemory()
	s.service = New(s.store, s.cases)

	res, err := s.cases.Submit(s.ctx, complaintservice.SubmitCommand{
		OrganizationID: s.org,
		Incident: complaintmodels.Incident{
			Type:        complaintmodels.IncidentVerbalAbuse,
			Date:        "2025-05-30",
			Location:    "Floor 3",
			Description: "Shouting",
			AccusedRole: "Manager",
		},
		IsAnonymous: true,
	})
	s.Require().NoError(err)
	s.caseRef = res.CaseNumber.String()
	s.pin = res.PIN
}

func (s *MessagingSuite) wrongPIN() string {
	if s.pin == "111111" {
		return "222222"
	}
	return "111111"
}

func (s *MessagingSuite) closeCase() {
	closed := complaintmodels.StatusClosed
	_, err := s.cases.UpdateStatus(s.ctx, s.caseRef, s.org, s.reviewer.Reviewer.ID,
		complaintmodels.StatusUpdate{Status: &closed})
	s.Require().NoError(err)
}

func (s *MessagingSuite) TestReporterAccess() {
	s.Run("correct pin posts and reads", func() {
		msg, err := s.service.Post(s.ctx, s.caseRef, models.SenderReporter, "  <b>hello</b>  ", models.PINProof(s.pin))
		s.Require().NoError(err)
		s.Equal("hello", msg.Body)
		s.Equal(models.SenderReporter, msg.SenderRole)

		msgs, err := s.service.List(s.ctx, s.caseRef, models.PINProof(s.pin))
		s.Require().NoError(err)
		s.Require().Len(msgs, 1)
		s.Equal(msg.ID, msgs[0].ID)
	})

	s.Run("wrong pin is unauthorized for read and write", func() {
		_, err := s.service.Post(s.ctx, s.caseRef, models.SenderReporter, "hi", models.PINProof(s.wrongPIN()))
		s.ErrorIs(err, errVerificationFailed)
		_, err = s.service.List(s.ctx, s.caseRef, models.PINProof(s.wrongPIN()))
		s.ErrorIs(err, errVerificationFailed)
	})

	s.Run("unknown case looks the same as a wrong pin", func() {
		_, err := s.service.List(s.ctx, "SD-2025-9999", models.PINProof(s.pin))
		s.ErrorIs(err, errVerificationFailed)
	})

	s.Run("no proof at all", func() {
		_, err := s.service.List(s.ctx, s.caseRef, models.Proof{})
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("reporter cannot post with only a session", func() {
		_, err := s.service.Post(s.ctx, s.caseRef, models.SenderReporter, "hi", s.reviewer)
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *MessagingSuite) TestClosedCase() {
	_, err := s.service.Post(s.ctx, s.caseRef, models.SenderReporter, "before close", models.PINProof(s.pin))
	s.Require().NoError(err)

	s.closeCase()

	s.Run("reporter is forbidden even with the right pin", func() {
		_, err := s.service.Post(s.ctx, s.caseRef, models.SenderReporter, "after close", models.PINProof(s.pin))
		s.ErrorIs(err, errCaseClosed)
	})

	s.Run("reporter can still read", func() {
		msgs, err := s.service.List(s.ctx, s.caseRef, models.PINProof(s.pin))
		s.Require().NoError(err)
		s.Len(msgs, 1)
	})

	s.Run("reviewer may post by default", func() {
		_, err := s.service.Post(s.ctx, s.caseRef, models.SenderReviewer, "closing note", s.reviewer)
		s.NoError(err)
	})

	s.Run("reviewer closed writes can be disabled", func() {
		strict := New(s.store, s.cases, WithReviewerClosedWrites(false))
		_, err := strict.Post(s.ctx, s.caseRef, models.SenderReviewer, "late", s.reviewer)
		s.ErrorIs(err, errCaseClosed)
	})
}

func (s *MessagingSuite) TestReviewerScope() {
	s.Run("own organization", func() {
		_, err := s.service.Post(s.ctx, s.caseRef, models.SenderReviewer, "We are looking into it", s.reviewer)
		s.Require().NoError(err)
	})

	s.Run("other organization sees not found", func() {
		outsider := models.SessionProof(id.NewReviewerID(), testutil.NewOrganizationID())
		_, err := s.service.List(s.ctx, s.caseRef, outsider)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		_, err = s.service.Post(s.ctx, s.caseRef, models.SenderReviewer, "hi", outsider)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("pin cannot speak as reviewer", func() {
		_, err := s.service.Post(s.ctx, s.caseRef, models.SenderReviewer, "hi", models.PINProof(s.pin))
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func (s *MessagingSuite) TestBodyValidation() {
	s.Run("markup only", func() {
		_, err := s.service.Post(s.ctx, s.caseRef, models.SenderReporter, "<p></p>", models.PINProof(s.pin))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("too long", func() {
		_, err := s.service.Post(s.ctx, s.caseRef, models.SenderReporter, strings.Repeat("a", defaultMaxLength+1), models.PINProof(s.pin))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *MessagingSuite) TestOrderingUnderConcurrency() {
	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.service.Post(s.ctx, s.caseRef, models.SenderReviewer, "note", s.reviewer)
			s.NoError(err)
		}()
	}
	wg.Wait()

	msgs, err := s.service.List(s.ctx, s.caseRef, s.reviewer)
	s.Require().NoError(err)
	s.Len(msgs, n)

	seen := make(map[id.MessageID]bool, n)
	for _, m := range msgs {
		s.False(seen[m.ID], "duplicate message")
		seen[m.ID] = true
	}
}

func (s *MessagingSuite) TestSequentialPostsKeepCallOrder() {
	bodies := []string{"first", "second", "third"}
	for _, b := range bodies {
		_, err := s.service.Post(s.ctx, s.caseRef, models.SenderReporter, b, models.PINProof(s.pin))
		s.Require().NoError(err)
	}
	msgs, err := s.service.List(s.ctx, s.caseRef, models.PINProof(s.pin))
	s.Require().NoError(err)
	s.Require().Len(msgs, len(bodies))
	for i, b := range bodies {
		s.Equal(b, msgs[i].Body)
	}
}

func (s *MessagingSuite) TestPostSystemNotice() {
	complaint, err := s.cases.Resolve(s.ctx, s.caseRef)
	s.Require().NoError(err)

	msg, err := s.service.PostSystemNotice(s.ctx, complaint.ID, "The uploaded image 'a.png' appears genuine, but you should still review it manually.")
	s.Require().NoError(err)
	s.Equal(models.SenderReviewer, msg.SenderRole)

	msgs, err := s.service.List(s.ctx, s.caseRef, models.PINProof(s.pin))
	s.Require().NoError(err)
	s.Len(msgs, 1)
}

func TestStoreFailureIsInternal(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := mocks.NewMockStore(ctrl)
	cases := mocks.NewMockCases(ctrl)
	svc := New(store, cases)

	org := testutil.NewOrganizationID()
	complaint := &complaintmodels.Complaint{ID: id.NewComplaintID(), OrganizationID: org, Status: complaintmodels.StatusSubmitted}
	cases.EXPECT().Resolve(gomock.Any(), "SD-2025-0001").Return(complaint, nil)
	store.EXPECT().Append(gomock.Any(), gomock.Any()).Return(context.DeadlineExceeded)

	_, err := svc.Post(context.Background(), "SD-2025-0001", models.SenderReviewer, "hi",
		models.SessionProof(id.NewReviewerID(), org))
	if !dErrors.HasCode(err, dErrors.CodeInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
