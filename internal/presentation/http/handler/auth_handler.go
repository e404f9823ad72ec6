package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/sangkips/investify-pos/internal/application/service"
	"github.com/sangkips/investify-pos/internal/domain/entity"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/request"
	"github.com/sangkips/investify-pos/internal/presentation/http/dto/response"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService *service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func userView(user *entity.User) gin.H {
	return gin.H{
		"id":          user.ID,
		"first_name":  user.FirstName,
		"last_name":   user.LastName,
		"email":       user.Email,
		"username":    user.Username,
		"roles":       user.RoleNames(),
		"permissions": user.GetPermissions(),
	}
}

// Login handles user login
// @Summary Login
// @Description Authenticate user and return an access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body request.LoginRequest true "Login credentials"
// @Success 200 {object} response.APIResponse
// @Failure 401 {object} response.APIResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req request.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.authService.Login(c.Request.Context(), &service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Login successful", gin.H{
		"user":         userView(output.User),
		"access_token": output.AccessToken,
		"token_type":   "Bearer",
	})
}

// IssueOverride signs a short-lived supervisor grant for a restricted till action
// @Summary Discount override
// @Description Verify supervisor credentials and return an override token
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body request.DiscountOverrideRequest true "Supervisor credentials"
// @Success 200 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse
// @Router /auth/discount-override [post]
func (h *AuthHandler) IssueOverride(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	var req request.DiscountOverrideRequest
	if !bindJSON(c, &req) {
		return
	}

	output, err := h.authService.IssueOverride(c.Request.Context(), &service.OverrideInput{
		RequestedBy: userID,
		Email:       req.Email,
		Password:    req.Password,
		Permission:  req.Permission,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Override granted", output)
}

// GetProfile handles fetching current user profile
// @Summary Get Profile
// @Tags auth
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse
// @Router /profile [get]
func (h *AuthHandler) GetProfile(c *gin.Context) {
	userID, ok := requireUser(c)
	if !ok {
		return
	}

	user, err := h.authService.GetProfile(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, "Profile retrieved successfully", gin.H{"user": userView(user)})
}
