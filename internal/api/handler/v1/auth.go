package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sorteoapp/sorteo-api/internal/api/handler/v1/request"
	"github.com/sorteoapp/sorteo-api/internal/api/handler/v1/response"
	"github.com/sorteoapp/sorteo-api/internal/config"
	"github.com/sorteoapp/sorteo-api/internal/domain"
	"github.com/sorteoapp/sorteo-api/internal/pkg/jwthelper"
	"github.com/sorteoapp/sorteo-api/internal/service"
)

type AuthService interface {
	Signup(ctx context.Context, vendor domain.Vendor) (domain.Vendor, error)
	Login(ctx context.Context, email, password string) (domain.Vendor, error)
}

type AuthHandler struct {
	conf *config.APIConfig
	svc  AuthService
}

func NewAuthHandler(conf *config.APIConfig, svc AuthService) *AuthHandler {
	return &AuthHandler{
		conf: conf,
		svc:  svc,
	}
}

func vendorResponse(v domain.Vendor) response.VendorResponse {
	return response.VendorResponse{
		ID:     v.ID,
		Name:   v.Name,
		Email:  v.Email,
		Role:   string(v.Role),
		Active: v.Active,
	}
}

// HandleSignup godoc
// @Summary      Signup a new vendor
// @Tags         auth
// @Produce      json
// @Param        request   body      request.SignupRequest true "request body"
// @Success      201      {object}   response.VendorResponse
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/signup [post]
func (h *AuthHandler) HandleSignup(ctx *gin.Context) {
	var req request.SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	vendor, err := h.svc.Signup(ctx.Request.Context(), domain.Vendor{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.RoleVendor,
	})
	if err != nil {
		if errors.Is(err, service.ErrVendorEmailExists) {
			response.RenderErr(ctx, response.ErrBadRequest(service.ErrVendorEmailExists))
			return
		}

		err = fmt.Errorf("v1.HandleSignup -> h.svc.Signup -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, vendorResponse(vendor))
}

// HandleLogin godoc
// @Summary      Login a vendor
// @Tags         auth
// @Produce      json
// @Param        request   body      request.LoginRequest true "request body"
// @Success      200      {object}   response.LoginResponse
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /auth/login [post]
func (h *AuthHandler) HandleLogin(ctx *gin.Context) {
	req := request.LoginRequest{}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))

		return
	}

	vendor, err := h.svc.Login(ctx.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrVendorNotFound) ||
			errors.Is(err, service.ErrWrongPassword) ||
			errors.Is(err, service.ErrVendorInactive) {
			response.RenderErr(ctx, response.ErrWrongCredentials(errors.New("wrong credentials")))

			return
		}

		err = fmt.Errorf("v1.HandleLogin -> h.svc.Login -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	token, err := jwthelper.GenerateToken(
		[]byte(h.conf.JWTSigningKey), vendor.ID, vendor.Email, string(vendor.Role), ctx.Request.UserAgent(),
	)
	if err != nil {
		err = fmt.Errorf("v1.HandleLogin -> jwthelper.GenerateToken -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))

		return
	}

	ctx.JSON(http.StatusOK, response.LoginResponse{
		Token:  token,
		Vendor: vendorResponse(vendor),
	})
}
