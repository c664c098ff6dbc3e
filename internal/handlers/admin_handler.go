package handlers

import (
	"net/http"

	"github.com/gaonpathshala/exam-portal/internal/services"
	"github.com/gaonpathshala/exam-portal/internal/utils"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	BaseHandler
	authService services.AuthService
}

func NewAdminHandler(authService services.AuthService, logger utils.Logger) *AdminHandler {
	return &AdminHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
	}
}

// Login signs an admin token bound to a new session
// @Summary Admin login
// @Tags admin
// @Accept json
// @Produce json
// @Param credentials body services.AdminLoginRequest true "Username and password"
// @Success 200 {object} services.AdminLoginResponse
// @Failure 401 {object} ErrorResponse
// @Router /admin/login [post]
func (h *AdminHandler) Login(c *gin.Context) {
	var req services.AdminLoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.authService.AdminLogin(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ForgotPassword resolves an admin by phone
// @Summary Admin forgot password
// @Tags admin
// @Accept json
// @Produce json
// @Param request body services.AdminForgotPasswordRequest true "Phone"
// @Success 200 {object} services.AdminForgotPasswordResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/forgot-password [post]
func (h *AdminHandler) ForgotPassword(c *gin.Context) {
	var req services.AdminForgotPasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.authService.AdminForgotPassword(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResetPassword sets a new admin password
// @Summary Admin reset password
// @Tags admin
// @Accept json
// @Produce json
// @Param request body services.AdminResetPasswordRequest true "Admin id, phone and new password"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /admin/reset-password [post]
func (h *AdminHandler) ResetPassword(c *gin.Context) {
	var req services.AdminResetPasswordRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.authService.AdminResetPassword(c.Request.Context(), &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Message: "Password reset successfully"})
}
