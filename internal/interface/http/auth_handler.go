package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/workout-coach/internal/domain/auth"
	apperrors "github.com/yanqian/workout-coach/pkg/errors"
)

// Register creates an account.
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	user, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Login exchanges credentials for tokens.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh rotates tokens using a refresh token.
func (h *Handler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Me returns the signed-in user.
func (h *Handler) Me(c *gin.Context) {
	claims, ok := getClaims(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	user, err := h.authSvc.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		abortWithError(c, authHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, user)
}

func authHTTPError(err error) *HTTPError {
	status := http.StatusInternalServerError
	code := apperrors.CodeOf(err)
	switch code {
	case "invalid_input":
		status = http.StatusBadRequest
	case "email_exists":
		status = http.StatusConflict
	case "invalid_credentials", "invalid_token":
		status = http.StatusUnauthorized
	case "user_not_found":
		status = http.StatusNotFound
	default:
		code = "auth_failed"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}
