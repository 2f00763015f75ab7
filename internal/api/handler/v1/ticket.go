package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sorteoapp/sorteo-api/internal/api/handler/v1/request"
	"github.com/sorteoapp/sorteo-api/internal/api/handler/v1/response"
	"github.com/sorteoapp/sorteo-api/internal/api/middleware"
	"github.com/sorteoapp/sorteo-api/internal/domain"
	"github.com/sorteoapp/sorteo-api/internal/service"
)

type TicketService interface {
	CreateTicket(ctx context.Context, eventID, vendorEmail string, draft service.TicketDraft) (domain.TicketResult, error)
	UpdateTicket(ctx context.Context, eventID, vendorEmail string, ticket domain.Ticket) (domain.TicketResult, error)
	DeleteTicket(ctx context.Context, eventID, vendorEmail, ticketID string) (domain.TicketResult, error)
	ListTickets(ctx context.Context, eventID, vendorEmail string) ([]domain.Ticket, error)
	ClaimVendorless(ctx context.Context, eventID, vendorEmail string) ([]domain.Ticket, error)
}

type TicketHandler struct {
	svc          TicketService
	queryTimeout time.Duration
}

func NewTicketHandler(svc TicketService, queryTimeout time.Duration) *TicketHandler {
	return &TicketHandler{
		svc:          svc,
		queryTimeout: queryTimeout,
	}
}

func (h *TicketHandler) boundedCtx(ctx *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx.Request.Context(), h.queryTimeout)
}

// HandleListTickets godoc
// @Summary      List the caller's tickets for an event
// @Tags         tickets
// @Produce      json
// @Param        eventID   path      string true "event ID"
// @Success      200      {array}    domain.Ticket
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/tickets [get]
// @Security     BearerAuth
func (h *TicketHandler) HandleListTickets(ctx *gin.Context) {
	reqCtx, cancel := h.boundedCtx(ctx)
	defer cancel()

	vendorEmail := ctx.GetString(middleware.CtxKeyVendorEmail)
	if ctx.GetString(middleware.CtxKeyVendorRole) == string(domain.RoleAdmin) {
		// Admins see every vendor's tickets.
		vendorEmail = ""
	}

	tickets, err := h.svc.ListTickets(reqCtx, ctx.Param("eventID"), vendorEmail)
	if err != nil {
		err = fmt.Errorf("v1.HandleListTickets -> h.svc.ListTickets -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, tickets)
}

// HandleCreateTicket godoc
// @Summary      Sell a ticket
// @Description  Validates the rows, checks availability for every number, reserves capacity and persists the ticket.
// @Tags         tickets
// @Produce      json
// @Param        eventID   path      string true "event ID"
// @Param        request   body      request.CreateTicketRequest true "request body"
// @Success      201      {object}   domain.Ticket
// @Failure      400      {object}   response.Err
// @Failure      422      {object}   response.RejectionResponse
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/tickets [post]
// @Security     BearerAuth
func (h *TicketHandler) HandleCreateTicket(ctx *gin.Context) {
	var req request.CreateTicketRequest
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

	result, err := h.svc.CreateTicket(reqCtx, ctx.Param("eventID"), ctx.GetString(middleware.CtxKeyVendorEmail), service.TicketDraft{
		ClientName: req.ClientName,
		Rows:       req.DomainRows(),
	})
	if err != nil {
		h.renderTicketErr(ctx, "HandleCreateTicket", err)
		return
	}

	renderTicketResult(ctx, result, http.StatusCreated)
}

// HandleUpdateTicket godoc
// @Summary      Edit a ticket
// @Description  Releases shrunk numbers first, then reserves only the grown deltas.
// @Tags         tickets
// @Produce      json
// @Param        eventID   path      string true "event ID"
// @Param        ticketID  path      string true "ticket ID"
// @Param        request   body      request.UpdateTicketRequest true "request body"
// @Success      200      {object}   domain.Ticket
// @Failure      400      {object}   response.Err
// @Failure      422      {object}   response.RejectionResponse
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/tickets/{ticketID} [put]
// @Security     BearerAuth
func (h *TicketHandler) HandleUpdateTicket(ctx *gin.Context) {
	var req request.UpdateTicketRequest
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

	result, err := h.svc.UpdateTicket(reqCtx, ctx.Param("eventID"), ctx.GetString(middleware.CtxKeyVendorEmail), domain.Ticket{
		ID:         ctx.Param("ticketID"),
		ClientName: req.ClientName,
		Rows:       req.DomainRows(),
	})
	if err != nil {
		h.renderTicketErr(ctx, "HandleUpdateTicket", err)
		return
	}

	renderTicketResult(ctx, result, http.StatusOK)
}

// HandleDeleteTicket godoc
// @Summary      Delete a ticket
// @Description  Releases the ticket's consolidated capacity, then removes the row.
// @Tags         tickets
// @Produce      json
// @Param        eventID   path      string true "event ID"
// @Param        ticketID  path      string true "ticket ID"
// @Success      204      {string}   string ""
// @Failure      404      {object}   response.Err
// @Failure      422      {object}   response.RejectionResponse
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/tickets/{ticketID} [delete]
// @Security     BearerAuth
func (h *TicketHandler) HandleDeleteTicket(ctx *gin.Context) {
	reqCtx, cancel := h.boundedCtx(ctx)
	defer cancel()

	result, err := h.svc.DeleteTicket(reqCtx, ctx.Param("eventID"), ctx.GetString(middleware.CtxKeyVendorEmail), ctx.Param("ticketID"))
	if err != nil {
		h.renderTicketErr(ctx, "HandleDeleteTicket", err)
		return
	}
	if !result.OK() {
		renderRejection(ctx, *result.Rejection)
		return
	}

	ctx.Status(http.StatusNoContent)
}

// HandleClaimVendorless godoc
// @Summary      Claim legacy tickets without a vendor
// @Tags         tickets
// @Produce      json
// @Param        eventID   path      string true "event ID"
// @Success      200      {object}   response.ClaimResponse
// @Failure      500      {object}   response.Err
// @Router       /events/{eventID}/tickets/claim [post]
// @Security     BearerAuth
func (h *TicketHandler) HandleClaimVendorless(ctx *gin.Context) {
	reqCtx, cancel := h.boundedCtx(ctx)
	defer cancel()

	claimed, err := h.svc.ClaimVendorless(reqCtx, ctx.Param("eventID"), ctx.GetString(middleware.CtxKeyVendorEmail))
	if err != nil {
		err = fmt.Errorf("v1.HandleClaimVendorless -> h.svc.ClaimVendorless -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewClaimResponse(claimed))
}

func (h *TicketHandler) renderTicketErr(ctx *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, service.ErrTicketNotFound):
		response.RenderErr(ctx, response.ErrNotFound(service.ErrTicketNotFound))
	case errors.Is(err, service.ErrEventNotFound):
		response.RenderErr(ctx, response.ErrNotFound(service.ErrEventNotFound))
	default:
		err = fmt.Errorf("v1.%v -> %w", op, err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
	}
}

func renderTicketResult(ctx *gin.Context, result domain.TicketResult, okStatus int) {
	if result.OK() {
		ctx.JSON(okStatus, result.Ticket)
		return
	}
	renderRejection(ctx, *result.Rejection)
}

// renderRejection maps the business refusal onto an HTTP status while
// keeping the structured body the selling UI consumes.
func renderRejection(ctx *gin.Context, rejection domain.Rejection) {
	status := http.StatusUnprocessableEntity
	switch rejection.Kind {
	case domain.RejectionValidation:
		status = http.StatusBadRequest
	case domain.RejectionOwnership:
		status = http.StatusForbidden
	case domain.RejectionClosed:
		status = http.StatusConflict
	}

	ctx.JSON(status, response.NewRejectionResponse(rejection))
}
