//go:build unit

package api_test

import (
	"encoding/json"
	"net/http"
	"testing"

	domrequest "bloodconnect/internal/domain/request"
	"bloodconnect/internal/handler/api"
	resdto "bloodconnect/internal/handler/dto/response"
	"bloodconnect/internal/pkg/errs"
	"bloodconnect/internal/usecase/queries"
	"bloodconnect/tests/common/builder"
	"bloodconnect/tests/common/httptest"
	"bloodconnect/tests/common/testutil"
	commandsmock "bloodconnect/tests/mock/commands"
	queriesmock "bloodconnect/tests/mock/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type RequestHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockRequestCommands
	mockQueries  *queriesmock.MockRequestQueries
	handler      *api.RequestHandler
	callerID     uuid.UUID
}

func (s *RequestHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockRequestCommands(s.mockCtrl)
	s.mockQueries = queriesmock.NewMockRequestQueries(s.mockCtrl)
	s.handler = api.NewRequestHandler(s.mockCommands, s.mockQueries)
	s.callerID = uuid.New()

	// Mock authentication middleware for testing
	authMiddleware := func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": gin.H{"message": "Unauthorized"}})
			return
		}
		c.Set("user_id", s.callerID)
		c.Set("user_role", "user")
		c.Next()
	}

	s.router.POST("/requests", authMiddleware, s.handler.CreateRequest)
	s.router.GET("/requests", authMiddleware, s.handler.SearchRequests)
	s.router.GET("/requests/:id", authMiddleware, s.handler.GetRequest)
	s.router.POST("/requests/:id/responses", authMiddleware, s.handler.RespondToRequest)
	s.router.PATCH("/requests/:id/responses/:donorId", authMiddleware, s.handler.AdvanceResponse)
}

func (s *RequestHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestRequestHandlerSuite(t *testing.T) {
	suite.Run(t, new(RequestHandlerTestSuite))
}

type testCaseRequest struct {
	name       string
	mutate     func(m map[string]any)
	expectCode int
}

// ================================================================================
// TestCreateRequest
// ================================================================================

func (s *RequestHandlerTestSuite) TestCreateRequest() {
	url := "/requests"

	reqBody := builder.NewRequestBuilder().BuildCreateRequestDTO()
	returnView := builder.NewRequestBuilder().BuildView()

	s.Run("success: returns 201 Created for valid request", func() {
		s.mockCommands.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(returnView, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
		s.Equal(http.StatusCreated, rec.Code)

		var got resdto.RequestResponse
		_ = httptest.DecodeResponseBody(s.T(), rec.Body, &got)
		s.Equal(returnView.ID, got.ID)
		s.Equal("open", got.Status)
	})

	s.Run("missing required fields return 400", func() {
		cases := []testCaseRequest{
			{name: "missing patientName", mutate: testutil.Field("patientName", nil), expectCode: http.StatusBadRequest},
			{name: "missing bloodType", mutate: testutil.Field("bloodType", nil), expectCode: http.StatusBadRequest},
			{name: "missing unitsRequired", mutate: testutil.Field("unitsRequired", nil), expectCode: http.StatusBadRequest},
			{name: "missing urgency", mutate: testutil.Field("urgency", nil), expectCode: http.StatusBadRequest},
			{name: "missing hospital", mutate: testutil.Field("hospital", nil), expectCode: http.StatusBadRequest},
			{name: "missing contact", mutate: testutil.Field("contact", nil), expectCode: http.StatusBadRequest},
			{name: "missing requiredDate", mutate: testutil.Field("requiredDate", nil), expectCode: http.StatusBadRequest},
		}
		for _, c := range cases {
			s.Run(c.name, func() {
				body := testutil.DtoMap(s.T(), reqBody, c.mutate)
				rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, body, "bearer-token")
				s.Equal(c.expectCode, rec.Code)
			})
		}
	})

	s.Run("domain validation failure returns 422 with the failing field", func() {
		s.mockCommands.EXPECT().Create(gomock.Any(), gomock.Any()).
			Return(nil, errs.Mark(domrequest.NewValidationError("bloodType", "invalid"), errs.ErrDomainValidation)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "bearer-token")
		s.Equal(http.StatusUnprocessableEntity, rec.Code)

		var body struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
			Detail map[string]any `json:"detail"`
		}
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
		s.Equal("Validation failed", body.Error.Message)
		s.Equal("bloodType", body.Detail["field"])
	})

	s.Run("unauthenticated returns 401", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, reqBody, "")
		s.Equal(http.StatusUnauthorized, rec.Code)
	})
}

// ================================================================================
// TestSearchRequests
// ================================================================================

func (s *RequestHandlerTestSuite) TestSearchRequests() {
	url := "/requests"

	s.Run("success: returns page with items", func() {
		item := builder.NewRequestBuilder().BuildListItem()
		page := &queries.SearchPage{Items: []*queries.RequestListItem{item}}
		s.mockQueries.EXPECT().Search(gomock.Any(), gomock.Any(), "", gomock.Any()).
			Return(page, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url, nil, "bearer-token")
		s.Equal(http.StatusOK, rec.Code)

		var got resdto.SearchResponse
		_ = httptest.DecodeResponseBody(s.T(), rec.Body, &got)
		s.Len(got.Data, 1)
		s.Equal(item.ID, got.Data[0].ID)
	})

	s.Run("invalid cursor returns 400", func() {
		s.mockQueries.EXPECT().Search(gomock.Any(), gomock.Any(), "junk", gomock.Any()).
			Return(nil, errs.Mark(errs.New("bad cursor"), queries.ErrInvalidCursor)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?cursor=junk", nil, "bearer-token")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("non numeric limit returns 400", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, url+"?limit=abc", nil, "bearer-token")
		s.Equal(http.StatusBadRequest, rec.Code)
	})
}

// ================================================================================
// TestGetRequest
// ================================================================================

func (s *RequestHandlerTestSuite) TestGetRequest() {
	returnView := builder.NewRequestBuilder().BuildView()

	s.Run("success: returns the request document", func() {
		s.mockQueries.EXPECT().GetByID(gomock.Any(), returnView.ID).
			Return(returnView, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/requests/"+returnView.ID.String(), nil, "bearer-token")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("malformed id returns 400", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/requests/not-a-uuid", nil, "bearer-token")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("unknown id returns 404", func() {
		id := uuid.New()
		s.mockQueries.EXPECT().GetByID(gomock.Any(), id).
			Return(nil, errs.Mark(errs.New("no rows"), errs.ErrRequestNotFound)).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/requests/"+id.String(), nil, "bearer-token")
		s.Equal(http.StatusNotFound, rec.Code)
	})
}

// ================================================================================
// TestRespondToRequest
// ================================================================================

func (s *RequestHandlerTestSuite) TestRespondToRequest() {
	returnView := builder.NewRequestBuilder().BuildView()
	url := "/requests/" + returnView.ID.String() + "/responses"

	s.Run("success: records the caller as a donor", func() {
		s.mockCommands.EXPECT().Respond(gomock.Any(), returnView.ID, s.callerID).
			Return(returnView, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("duplicate response returns 409", func() {
		s.mockCommands.EXPECT().Respond(gomock.Any(), returnView.ID, s.callerID).
			Return(nil, domrequest.ErrDuplicateResponse).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("closed request returns 409", func() {
		s.mockCommands.EXPECT().Respond(gomock.Any(), returnView.ID, s.callerID).
			Return(nil, domrequest.ErrRequestNotOpen).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPost, url, nil, "bearer-token")
		s.Equal(http.StatusConflict, rec.Code)
	})
}

// ================================================================================
// TestAdvanceResponse
// ================================================================================

func (s *RequestHandlerTestSuite) TestAdvanceResponse() {
	returnView := builder.NewRequestBuilder().BuildView()
	donorID := uuid.New()
	url := "/requests/" + returnView.ID.String() + "/responses/" + donorID.String()
	body := map[string]any{"status": "accepted"}

	s.Run("success: advances the donor response", func() {
		s.mockCommands.EXPECT().Advance(gomock.Any(), returnView.ID, s.callerID, "user", donorID, "accepted").
			Return(returnView, nil).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, body, "bearer-token")
		s.Equal(http.StatusOK, rec.Code)
	})

	s.Run("missing status returns 400", func() {
		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{}, "bearer-token")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("non requester returns 403", func() {
		s.mockCommands.EXPECT().Advance(gomock.Any(), returnView.ID, s.callerID, "user", donorID, "accepted").
			Return(nil, errs.ErrNotRequestOwner).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, body, "bearer-token")
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("capacity exhaustion returns 409", func() {
		s.mockCommands.EXPECT().Advance(gomock.Any(), returnView.ID, s.callerID, "user", donorID, "accepted").
			Return(nil, domrequest.ErrCapacityExceeded).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, body, "bearer-token")
		s.Equal(http.StatusConflict, rec.Code)
	})

	s.Run("invalid target status returns 400", func() {
		s.mockCommands.EXPECT().Advance(gomock.Any(), returnView.ID, s.callerID, "user", donorID, "cancelled").
			Return(nil, errs.ErrInvalidTargetStatus).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, map[string]any{"status": "cancelled"}, "bearer-token")
		s.Equal(http.StatusBadRequest, rec.Code)
	})

	s.Run("disallowed transition returns 409", func() {
		s.mockCommands.EXPECT().Advance(gomock.Any(), returnView.ID, s.callerID, "user", donorID, "accepted").
			Return(nil, domrequest.ErrInvalidTransition).Times(1)

		rec := httptest.PerformRequest(s.T(), s.router, http.MethodPatch, url, body, "bearer-token")
		s.Equal(http.StatusConflict, rec.Code)
	})
}
