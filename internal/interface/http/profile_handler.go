package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/workout-coach/internal/domain/workout"
	apperrors "github.com/yanqian/workout-coach/pkg/errors"
)

// GetProfile returns the caller's stored physiological profile.
func (h *Handler) GetProfile(c *gin.Context) {
	profile, err := h.athleteSvc.Get(c.Request.Context(), subject(c))
	if err != nil {
		abortWithError(c, profileHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, profile)
}

// UpdateProfile replaces the caller's profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req workout.UserProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	profile, err := h.athleteSvc.Update(c.Request.Context(), subject(c), req)
	if err != nil {
		abortWithError(c, profileHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, profile)
}

func profileHTTPError(err error) *HTTPError {
	status := http.StatusInternalServerError
	code := "profile_error"
	switch {
	case apperrors.IsCode(err, "unauthorized"):
		status, code = http.StatusUnauthorized, "unauthorized"
	case apperrors.IsCode(err, "invalid_input"):
		status, code = http.StatusBadRequest, "invalid_request"
	case apperrors.IsCode(err, "not_found"):
		status, code = http.StatusNotFound, "not_found"
	}
	return NewHTTPError(status, code, errMessage(err), err)
}
