package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sorteoapp/sorteo-api/internal/api/handler/v1/request"
	"github.com/sorteoapp/sorteo-api/internal/api/handler/v1/response"
	"github.com/sorteoapp/sorteo-api/internal/domain"
	"github.com/sorteoapp/sorteo-api/internal/service"
)

type EventService interface {
	CreateEvent(ctx context.Context, event domain.Event) (domain.Event, error)
	GetEvent(ctx context.Context, id string) (domain.Event, error)
	ListEvents(ctx context.Context) ([]domain.Event, error)
	UpdateEvent(ctx context.Context, event domain.Event) (domain.Event, error)
	AwardEvent(ctx context.Context, id, firstPrize, secondPrize, thirdPrize string) (domain.Event, error)
	CloseEvent(ctx context.Context, id string) (domain.Event, error)
	DeleteEvent(ctx context.Context, id string) error
}

type EventHandler struct {
	svc EventService
}

func NewEventHandler(svc EventService) *EventHandler {
	return &EventHandler{
		svc: svc,
	}
}

// HandleListEvents godoc
// @Summary      List all events
// @Tags         events
// @Produce      json
// @Success      200  {array}    domain.Event
// @Failure      500  {object}   response.Err
// @Router       /events [get]
// @Security     BearerAuth
func (h *EventHandler) HandleListEvents(ctx *gin.Context) {
	events, err := h.svc.ListEvents(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListEvents -> h.svc.ListEvents -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, events)
}

// HandleGetEvent godoc
// @Summary      Get one event
// @Tags         events
// @Produce      json
// @Param        eventID   path      string true "event ID"
// @Success      200      {object}   domain.Event
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID} [get]
// @Security     BearerAuth
func (h *EventHandler) HandleGetEvent(ctx *gin.Context) {
	event, err := h.svc.GetEvent(ctx.Request.Context(), ctx.Param("eventID"))
	if err != nil {
		if errors.Is(err, service.ErrEventNotFound) {
			response.RenderErr(ctx, response.ErrNotFound(service.ErrEventNotFound))
			return
		}

		err = fmt.Errorf("v1.HandleGetEvent -> h.svc.GetEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleCreateEvent godoc
// @Summary      Create an event
// @Tags         events
// @Produce      json
// @Param        request   body      request.CreateEventRequest true "request body"
// @Success      201      {object}   domain.Event
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events [post]
// @Security     BearerAuth
func (h *EventHandler) HandleCreateEvent(ctx *gin.Context) {
	var req request.CreateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.CreateEvent(ctx.Request.Context(), domain.Event{
		Name:            req.Name,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Active:          true,
		RepeatDaily:     req.RepeatDaily,
		MinNumber:       req.MinNumber,
		MaxNumber:       req.MaxNumber,
		ExcludedNumbers: req.ExcludedNumbers,
	})
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateEvent -> h.svc.CreateEvent -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, event)
}

// HandleUpdateEvent godoc
// @Summary      Update an event
// @Tags         events
// @Produce      json
// @Param        eventID   path      string true "event ID"
// @Param        request   body      request.UpdateEventRequest true "request body"
// @Success      200      {object}   domain.Event
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID} [put]
// @Security     BearerAuth
func (h *EventHandler) HandleUpdateEvent(ctx *gin.Context) {
	var req request.UpdateEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.UpdateEvent(ctx.Request.Context(), domain.Event{
		ID:              ctx.Param("eventID"),
		Name:            req.Name,
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Active:          req.Active,
		RepeatDaily:     req.RepeatDaily,
		Status:          domain.EventActive,
		MinNumber:       req.MinNumber,
		MaxNumber:       req.MaxNumber,
		ExcludedNumbers: req.ExcludedNumbers,
	})
	if err != nil {
		h.renderEventErr(ctx, "HandleUpdateEvent", err)
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleAwardEvent godoc
// @Summary      Record the winning numbers and close the event
// @Tags         events
// @Produce      json
// @Param        eventID   path      string true "event ID"
// @Param        request   body      request.AwardEventRequest true "request body"
// @Success      200      {object}   domain.Event
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/award [post]
// @Security     BearerAuth
func (h *EventHandler) HandleAwardEvent(ctx *gin.Context) {
	var req request.AwardEventRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	event, err := h.svc.AwardEvent(ctx.Request.Context(), ctx.Param("eventID"), req.FirstPrize, req.SecondPrize, req.ThirdPrize)
	if err != nil {
		h.renderEventErr(ctx, "HandleAwardEvent", err)
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleCloseEvent godoc
// @Summary      Close an event without winners
// @Tags         events
// @Produce      json
// @Param        eventID   path      string true "event ID"
// @Success      200      {object}   domain.Event
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/close [post]
// @Security     BearerAuth
func (h *EventHandler) HandleCloseEvent(ctx *gin.Context) {
	event, err := h.svc.CloseEvent(ctx.Request.Context(), ctx.Param("eventID"))
	if err != nil {
		h.renderEventErr(ctx, "HandleCloseEvent", err)
		return
	}

	ctx.JSON(http.StatusOK, event)
}

// HandleDeleteEvent godoc
// @Summary      Delete an event
// @Tags         events
// @Produce      json
// @Param        eventID   path      string true "event ID"
// @Success      204      {string}   string ""
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID} [delete]
// @Security     BearerAuth
func (h *EventHandler) HandleDeleteEvent(ctx *gin.Context) {
	if err := h.svc.DeleteEvent(ctx.Request.Context(), ctx.Param("eventID")); err != nil {
		h.renderEventErr(ctx, "HandleDeleteEvent", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *EventHandler) renderEventErr(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		response.RenderErr(ctx, response.ErrNotFound(service.ErrEventNotFound))
	case errors.Is(err, service.ErrEventClosed):
		response.RenderErr(ctx, response.ErrConflict(service.ErrEventClosed))
	default:
		err = fmt.Errorf("v1.%v -> %w", op, err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}
