package api

import (
	"errors"
	"net/http"
	"strconv"

	"bloodconnect/internal/domain/request"
	reqdto "bloodconnect/internal/handler/dto/request"
	resdto "bloodconnect/internal/handler/dto/response"
	"bloodconnect/internal/handler/httperr"
	"bloodconnect/internal/handler/middleware"
	"bloodconnect/internal/pkg/errs"
	"bloodconnect/internal/usecase/commands"
	"bloodconnect/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RequestHandler struct {
	commands commands.RequestCommands
	queries  queries.RequestQueries
}

func NewRequestHandler(cmds commands.RequestCommands, qs queries.RequestQueries) *RequestHandler {
	return &RequestHandler{
		commands: cmds,
		queries:  qs,
	}
}

// @Summary Create blood request
// @Description Publish a new blood request and open it for donor responses
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateRequestRequest true "Blood request"
// @Success 201 {object} resdto.RequestResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /requests [post]
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errs.New("caller identity missing from context"), "Internal server error", nil)
		return
	}

	var req reqdto.CreateRequestRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	view, err := h.commands.Create(c.Request.Context(), req.ToInput(userID))
	if err != nil {
		h.respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromRequestView(view))
}

// @Summary Search blood requests
// @Description List open requests matching donor criteria, most urgent first
// @Tags requests
// @Produce json
// @Param bloodType query string false "Blood type filter"
// @Param city query string false "Hospital city substring"
// @Param state query string false "Hospital state substring"
// @Param urgency query string false "Urgency filter"
// @Param status query string false "Status filter (defaults to open)"
// @Param cursor query string false "Continuation cursor"
// @Param limit query int false "Page size"
// @Success 200 {object} resdto.SearchResponse
// @Failure 400 {object} map[string]string
// @Router /requests [get]
func (h *RequestHandler) SearchRequests(c *gin.Context) {
	filter := queries.SearchFilter{
		BloodType: queryPtr(c, "bloodType"),
		City:      queryPtr(c, "city"),
		State:     queryPtr(c, "state"),
		Urgency:   queryPtr(c, "urgency"),
		Status:    queryPtr(c, "status"),
	}

	limit := queries.DefaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httperr.AbortWithError(c, http.StatusBadRequest, errs.Newf("limit %q is not a positive integer", raw), "Invalid limit", nil)
			return
		}
		limit = n
	}

	page, err := h.queries.Search(c.Request.Context(), filter, c.Query("cursor"), limit)
	if err != nil {
		if errors.Is(err, queries.ErrInvalidCursor) {
			httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid cursor", nil)
			return
		}
		h.respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromSearchPage(page))
}

// @Summary Get blood request
// @Description Get a request with its donor-response ledger
// @Tags requests
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} resdto.RequestResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /requests/{id} [get]
func (h *RequestHandler) GetRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request ID format", nil)
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), id)
	if err != nil {
		h.respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromRequestView(view))
}

// @Summary Respond to blood request
// @Description Record the caller as a pending donor on an open request
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} resdto.RequestResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /requests/{id}/responses [post]
func (h *RequestHandler) RespondToRequest(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errs.New("caller identity missing from context"), "Internal server error", nil)
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request ID format", nil)
		return
	}

	view, err := h.commands.Respond(c.Request.Context(), id, userID)
	if err != nil {
		h.respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromRequestView(view))
}

// @Summary Advance donor response
// @Description Move a donor's response to accepted, rejected or donated
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Param donorId path string true "Donor ID"
// @Param request body reqdto.AdvanceResponseRequest true "Target status"
// @Success 200 {object} resdto.RequestResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /requests/{id}/responses/{donorId} [patch]
func (h *RequestHandler) AdvanceResponse(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusInternalServerError, errs.New("caller identity missing from context"), "Internal server error", nil)
		return
	}
	role, _ := middleware.GetUserRole(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request ID format", nil)
		return
	}
	donorID, err := uuid.Parse(c.Param("donorId"))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid donor ID format", nil)
		return
	}

	var req reqdto.AdvanceResponseRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, bindErr, "Invalid request format", nil)
		return
	}

	view, err := h.commands.Advance(c.Request.Context(), id, userID, role, donorID, req.Status)
	if err != nil {
		h.respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromRequestView(view))
}

func (h *RequestHandler) respondCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrDomainValidation):
		var verr *request.ValidationError
		var detail any
		if errors.As(err, &verr) {
			detail = gin.H{"field": verr.Field}
		}
		httperr.AbortWithError(c, http.StatusUnprocessableEntity, err, "Validation failed", detail)
	case errors.Is(err, errs.ErrInvalidTargetStatus):
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid target status", nil)
	case errors.Is(err, errs.ErrNotRequestOwner):
		httperr.AbortWithError(c, http.StatusForbidden, err, "Only the requester can manage donor responses", nil)
	case errors.Is(err, errs.ErrRequestNotFound), errors.Is(err, request.ErrResponseNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, "Not found", nil)
	case errors.Is(err, request.ErrDuplicateResponse):
		httperr.AbortWithError(c, http.StatusConflict, err, "Donor has already responded to this request", nil)
	case errors.Is(err, request.ErrCapacityExceeded):
		httperr.AbortWithError(c, http.StatusConflict, err, "Required unit count already committed", nil)
	case errors.Is(err, request.ErrInvalidTransition):
		httperr.AbortWithError(c, http.StatusConflict, err, "Response status transition is not allowed", nil)
	case errors.Is(err, request.ErrRequestNotOpen):
		httperr.AbortWithError(c, http.StatusConflict, err, "Request is no longer open", nil)
	case errors.Is(err, errs.ErrStorageUnavailable):
		httperr.AbortWithError(c, http.StatusServiceUnavailable, err, "Storage temporarily unavailable", nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}

func queryPtr(c *gin.Context, name string) *string {
	if v := c.Query(name); v != "" {
		return &v
	}
	return nil
}
