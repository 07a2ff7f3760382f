package handler

import (
	"account-service/internal/usecase/account"
	"net/http"

	"account-service/internal/domain/user"
	"account-service/internal/logger"
	"account-service/internal/middleware"
	appErrors "account-service/pkg/errors"
	"account-service/pkg/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AccountHandler struct {
	service *account.Service
}

func NewAccountHandler(service *account.Service) *AccountHandler {
	return &AccountHandler{service: service}
}

func (h *AccountHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/register/", h.Register)
	router.POST("/login/", h.Login)
	router.POST("/login/refresh/", h.Refresh)
	router.POST("/django-login/", h.CheckCredentials)
	router.POST("/otp/", h.RequestOTP)
	router.POST("/verify-otp/", h.VerifyOTP)
	router.POST("/reset-password/", h.ResetPassword)
}

func (h *AccountHandler) RegisterProtectedRoutes(router *gin.RouterGroup) {
	router.PATCH("/change-password/", h.ChangePassword)

	me := router.Group("/me")
	{
		me.GET("/", h.GetMe)
		me.PUT("/", h.UpdateMe)
		me.PATCH("/", h.PatchMe)
		me.DELETE("/", h.DeleteMe)
	}
}

// bindJSON writes the 400 envelope itself when the body does not decode.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		utils.ErrorResponseWithDetails(c, http.StatusBadRequest, "Invalid request body", utils.BindErrorDetails(err))
		return false
	}
	return true
}

func (h *AccountHandler) Register(c *gin.Context) {
	var req account.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "User registered successfully. Please verify your email with the OTP sent.",
		account.RegisteredUser{ID: created.ID, Email: created.Email})
}

func (h *AccountHandler) Login(c *gin.Context) {
	var req account.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	client := account.ClientInfo{IP: c.ClientIP(), UserAgent: c.Request.UserAgent()}
	resp, err := h.service.Login(c.Request.Context(), &req, client)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) Refresh(c *gin.Context) {
	var req account.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.service.Refresh(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *AccountHandler) CheckCredentials(c *gin.Context) {
	var req account.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	userID, err := h.service.CheckCredentials(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user_id": userID})
}

func (h *AccountHandler) RequestOTP(c *gin.Context) {
	var req account.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.RequestPasswordReset(c.Request.Context(), &req); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "OTP sent successfully"})
}

func (h *AccountHandler) VerifyOTP(c *gin.Context) {
	var req account.VerifyOTPRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.service.VerifyOTP(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if result.Purpose == user.PurposeForgetPassword {
		c.JSON(http.StatusOK, gin.H{"message": "OTP verified", "reset_token": result.ResetToken})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP verified and account activated", "activated": result.Activated})
}

func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var req account.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), &req); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password reset successfully"})
}

func (h *AccountHandler) ChangePassword(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	var req account.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.ChangePassword(c.Request.Context(), userID, &req); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
}

func (h *AccountHandler) GetMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	current, err := h.service.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, account.ToUserResponse(current))
}

func (h *AccountHandler) UpdateMe(c *gin.Context) {
	h.updateMe(c, false)
}

func (h *AccountHandler) PatchMe(c *gin.Context) {
	h.updateMe(c, true)
}

func (h *AccountHandler) updateMe(c *gin.Context, partial bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	var req account.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.service.UpdateProfile(c.Request.Context(), userID, &req, partial)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, account.ToUserResponse(updated))
}

func (h *AccountHandler) DeleteMe(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}

	if err := h.service.DeleteAccount(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// respondWithError renders any error as the {"error", "details"} envelope.
// Errors that are not AppErrors are treated as internal failures.
func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	appErr, ok := appErrors.As(err)
	if !ok {
		appErr = appErrors.Unexpected("Internal server error", err)
	}

	details := map[string]any(appErr.Details)
	if appErr.Status >= http.StatusInternalServerError {
		// the cause goes to the log only
		details = nil
		logger.Error("Internal server error",
			zap.String("request_id", middleware.GetRequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.String("kind", string(appErr.Kind)),
			zap.Error(err),
		)
	}

	utils.ErrorResponseWithDetails(c, appErr.Status, appErr.Message, details)
}
