package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sorteoapp/sorteo-api/internal/api/handler/v1/request"
	"github.com/sorteoapp/sorteo-api/internal/api/handler/v1/response"
	"github.com/sorteoapp/sorteo-api/internal/domain"
	"github.com/sorteoapp/sorteo-api/internal/service"
)

type VendorService interface {
	ListVendors(ctx context.Context) ([]domain.Vendor, error)
	UpdateVendor(ctx context.Context, id uint, name string, active bool) (domain.Vendor, error)
	DeleteVendor(ctx context.Context, id uint) error
}

type VendorHandler struct {
	svc VendorService
}

func NewVendorHandler(svc VendorService) *VendorHandler {
	return &VendorHandler{
		svc: svc,
	}
}

// HandleListVendors godoc
// @Summary      List every vendor account
// @Tags         vendors
// @Produce      json
// @Success      200      {array}    response.VendorResponse
// @Failure      500      {object}   response.Err
// @Router       /vendors [get]
// @Security     BearerAuth
func (h *VendorHandler) HandleListVendors(ctx *gin.Context) {
	vendors, err := h.svc.ListVendors(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListVendors -> h.svc.ListVendors -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	result := make([]response.VendorResponse, len(vendors))
	for i, v := range vendors {
		result[i] = vendorResponse(v)
	}

	ctx.JSON(http.StatusOK, result)
}

// HandleUpdateVendor godoc
// @Summary      Rename or (de)activate a vendor account
// @Tags         vendors
// @Produce      json
// @Param        vendorID  path      int true "vendor ID"
// @Param        request   body      request.UpdateVendorRequest true "request body"
// @Success      200      {object}   response.VendorResponse
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /vendors/{vendorID} [put]
// @Security     BearerAuth
func (h *VendorHandler) HandleUpdateVendor(ctx *gin.Context) {
	id, err := parseVendorID(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	var req request.UpdateVendorRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	vendor, err := h.svc.UpdateVendor(ctx.Request.Context(), id, req.Name, req.Active)
	if err != nil {
		h.renderVendorErr(ctx, "HandleUpdateVendor", err)
		return
	}

	ctx.JSON(http.StatusOK, vendorResponse(vendor))
}

// HandleDeleteVendor godoc
// @Summary      Delete a vendor account
// @Tags         vendors
// @Produce      json
// @Param        vendorID  path      int true "vendor ID"
// @Success      204      {string}   string ""
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /vendors/{vendorID} [delete]
// @Security     BearerAuth
func (h *VendorHandler) HandleDeleteVendor(ctx *gin.Context) {
	id, err := parseVendorID(ctx)
	if err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.DeleteVendor(ctx.Request.Context(), id); err != nil {
		h.renderVendorErr(ctx, "HandleDeleteVendor", err)
		return
	}

	ctx.Status(http.StatusNoContent)
}

func parseVendorID(ctx *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(ctx.Param("vendorID"), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid vendor ID %q", ctx.Param("vendorID"))
	}
	return uint(id), nil
}

func (h *VendorHandler) renderVendorErr(ctx *gin.Context, op string, err error) {
	if errors.Is(err, service.ErrVendorNotFound) {
		response.RenderErr(ctx, response.ErrNotFound(service.ErrVendorNotFound))
		return
	}

	err = fmt.Errorf("v1.%v -> %w", op, err)
	response.RenderErr(ctx, response.ErrInternalServerError(err))
}
