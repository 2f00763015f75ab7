package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sorteoapp/sorteo-api/internal/api/handler/v1/request"
	"github.com/sorteoapp/sorteo-api/internal/api/handler/v1/response"
	"github.com/sorteoapp/sorteo-api/internal/domain"
	"github.com/sorteoapp/sorteo-api/internal/service"
)

type LimitService interface {
	ListLimits(ctx context.Context, eventID string, bypassCache bool) ([]domain.NumberLimit, error)
	CreateLimit(ctx context.Context, eventID, numberRange string, maxTimes int) (domain.NumberLimit, error)
	UpdateLimit(ctx context.Context, id string, maxTimes int) (domain.NumberLimit, error)
	DeleteLimit(ctx context.Context, id string) error
	CheckAvailability(ctx context.Context, eventID, number string, requestedTimes int) domain.Availability
}

type LimitHandler struct {
	svc          LimitService
	queryTimeout time.Duration
}

func NewLimitHandler(svc LimitService, queryTimeout time.Duration) *LimitHandler {
	return &LimitHandler{
		svc:          svc,
		queryTimeout: queryTimeout,
	}
}

func (h *LimitHandler) boundedCtx(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), h.queryTimeout)
}

// HandleListLimits godoc
// @Summary      List the number limits of an event
// @Tags         limits
// @Produce      json
// @Param        eventID  path       string true  "event ID"
// @Param        fresh    query      bool   false "bypass the limit cache"
// @Success      200      {array}    domain.NumberLimit
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/limits [get]
// @Security     BearerAuth
func (h *LimitHandler) HandleListLimits(ctx *gin.Context) {
	reqCtx, cancel := h.boundedCtx(ctx)
	defer cancel()

	fresh, _ := strconv.ParseBool(ctx.Query("fresh"))

	limits, err := h.svc.ListLimits(reqCtx, ctx.Param("eventID"), fresh)
	if err != nil {
		err = fmt.Errorf("v1.HandleListLimits -> h.svc.ListLimits -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, limits)
}

// HandleCreateLimit godoc
// @Summary      Create a number limit
// @Description  Rejects ranges that overlap an existing limit of the event.
// @Tags         limits
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Param        request  body       request.CreateLimitRequest true "request body"
// @Success      201      {object}   domain.NumberLimit
// @Failure      400      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/limits [post]
// @Security     BearerAuth
func (h *LimitHandler) HandleCreateLimit(ctx *gin.Context) {
	var req request.CreateLimitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reqCtx, cancel := h.boundedCtx(ctx)
	defer cancel()

	limit, err := h.svc.CreateLimit(reqCtx, ctx.Param("eventID"), req.NumberRange, req.MaxTimes)
	if err != nil {
		h.renderLimitErr(ctx, "HandleCreateLimit", err)
		return
	}

	ctx.JSON(http.StatusCreated, limit)
}

// HandleUpdateLimit godoc
// @Summary      Change the cap of a number limit
// @Tags         limits
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Param        limitID  path       string true "limit ID"
// @Param        request  body       request.UpdateLimitRequest true "request body"
// @Success      200      {object}   domain.NumberLimit
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/limits/{limitID} [put]
// @Security     BearerAuth
func (h *LimitHandler) HandleUpdateLimit(ctx *gin.Context) {
	var req request.UpdateLimitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	reqCtx, cancel := h.boundedCtx(ctx)
	defer cancel()

	limit, err := h.svc.UpdateLimit(reqCtx, ctx.Param("limitID"), req.MaxTimes)
	if err != nil {
		h.renderLimitErr(ctx, "HandleUpdateLimit", err)
		return
	}

	ctx.JSON(http.StatusOK, limit)
}

// HandleDeleteLimit godoc
// @Summary      Delete a number limit
// @Tags         limits
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Param        limitID  path       string true "limit ID"
// @Success      204      {string}   string ""
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/limits/{limitID} [delete]
// @Security     BearerAuth
func (h *LimitHandler) HandleDeleteLimit(ctx *gin.Context) {
	reqCtx, cancel := h.boundedCtx(ctx)
	defer cancel()

	if err := h.svc.DeleteLimit(reqCtx, ctx.Param("limitID")); err != nil {
		h.renderLimitErr(ctx, "HandleDeleteLimit", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleCheckAvailability godoc
// @Summary      Check whether a number can still be sold
// @Description  Resolves the first limit whose range matches the number and compares its remaining capacity with the requested amount. Numbers outside every limit are unrestricted.
// @Tags         limits
// @Produce      json
// @Param        eventID  path       string true "event ID"
// @Param        number   query      string true "number to check"
// @Param        times    query      int    true "times requested"
// @Success      200      {object}   response.AvailabilityResponse
// @Failure      400      {object}   response.Err
// @Router       /events/{eventID}/availability [get]
// @Security     BearerAuth
func (h *LimitHandler) HandleCheckAvailability(ctx *gin.Context) {
	number := ctx.Query("number")
	if number == "" {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("query parameter number is required")))
		return
	}

	times, err := strconv.Atoi(ctx.DefaultQuery("times", "1"))
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("query parameter times must be an integer")))
		return
	}

	reqCtx, cancel := h.boundedCtx(ctx)
	defer cancel()

	availability := h.svc.CheckAvailability(reqCtx, ctx.Param("eventID"), number, times)

	ctx.JSON(http.StatusOK, response.NewAvailabilityResponse(availability))
}

func (h *LimitHandler) renderLimitErr(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrLimitNotFound):
		response.RenderErr(ctx, response.ErrNotFound(service.ErrLimitNotFound))
	case errors.Is(err, service.ErrRangeOverlap):
		response.RenderErr(ctx, response.ErrConflict(service.ErrRangeOverlap))
	case errors.Is(err, service.ErrInvalidRange), errors.Is(err, service.ErrInvalidMaxTimes):
		response.RenderErr(ctx, response.ErrBadRequest(err))
	default:
		err = fmt.Errorf("v1.%v -> %w", op, err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}
