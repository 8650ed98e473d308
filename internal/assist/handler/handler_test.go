package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"safedesk/internal/assist/handler/mocks"
	"safedesk/internal/assist/service"
	complaintmodels "safedesk/internal/complaint/models"
	dErrors "safedesk/pkg/domain-errors"
	"safedesk/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	service *mocks.MockService
	router  chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.service = mocks.NewMockService(s.ctrl)
	h := New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	h.RegisterImprove(r)
	h.RegisterGuidance(r)
	s.router = r
}

func (s *HandlerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *HandlerSuite) TestImprove() {
	s.Run("returns improvement", func() {
		s.service.EXPECT().Improve(gomock.Any(), "a long enough description of events").
			Return(&service.Improvement{
				ImprovedText:     "A clear description.",
				DetectedSeverity: complaintmodels.SeverityHigh,
				GuidanceMessage:  "Thank you.",
			}, nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/ai/improve",
			map[string]string{"description": "  a long enough description of events "}))
		testutil.AssertStatusOK(s.T(), rr)

		resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
		s.Equal("A clear description.", (*resp)["improvedText"])
		s.Equal("High", (*resp)["detectedSeverity"])
	})

	s.Run("assistant down is 503", func() {
		s.service.EXPECT().Improve(gomock.Any(), gomock.Any()).
			Return(nil, dErrors.New(dErrors.CodeDependencyUnavailable, "Assistant is unavailable"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/ai/improve",
			map[string]string{"description": "a long enough description of events"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusServiceUnavailable, string(dErrors.CodeDependencyUnavailable))
	})

	s.Run("short description is 400", func() {
		s.service.EXPECT().Improve(gomock.Any(), "short").
			Return(nil, dErrors.New(dErrors.CodeValidation, "Description too short"))

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/ai/improve",
			map[string]string{"description": "short"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeValidation))
	})
}

func (s *HandlerSuite) TestGuidance() {
	s.service.EXPECT().Guidance(gomock.Any(), "Who sits on the committee?").
		Return(&service.Answer{Response: "At least four members."}, nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, "/ai/guidance",
		map[string]string{"question": "Who sits on the committee?"}))
	testutil.AssertStatusOK(s.T(), rr)

	resp := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	s.Equal("At least four members.", (*resp)["response"])
}
