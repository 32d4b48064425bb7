package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/workout-coach/internal/domain/analysis"
	"github.com/yanqian/workout-coach/internal/domain/usage"
)

// stravaTokenHeader carries the caller's Strava access token.
const stravaTokenHeader = "X-Strava-Token"

type usageResponse struct {
	Count           int    `json:"count"`
	ResetKey        string `json:"resetKey"`
	Limit           int    `json:"limit"`
	Remaining       int    `json:"remaining"`
	ResetsInSeconds int    `json:"resetsInSeconds"`
}

type setUsageRequest struct {
	Count *int `json:"count"`
}

// Analyze returns a cached analysis or generates a new one.
func (h *Handler) Analyze(c *gin.Context) {
	activityID, ok := activityIDParam(c)
	if !ok {
		return
	}

	var req analysis.Request
	// An empty body asks for an analysis of the stored activity.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, string(analysis.KindValidation), errMessage(err), err))
		return
	}
	req.UserID = subject(c)
	req.ActivityID = activityID
	req.SourceToken = strings.TrimSpace(c.GetHeader(stravaTokenHeader))

	res, err := h.analysisSvc.Analyze(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, analysisHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetAnalysis returns the stored analysis without generating.
func (h *Handler) GetAnalysis(c *gin.Context) {
	activityID, ok := activityIDParam(c)
	if !ok {
		return
	}
	res, err := h.analysisSvc.Get(c.Request.Context(), subject(c), activityID)
	if err != nil {
		abortWithError(c, analysisHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// DeleteAnalysis removes the stored analysis of one activity.
func (h *Handler) DeleteAnalysis(c *gin.Context) {
	activityID, ok := activityIDParam(c)
	if !ok {
		return
	}
	if err := h.analysisSvc.Delete(c.Request.Context(), subject(c), activityID); err != nil {
		abortWithError(c, analysisHTTPError(err))
		return
	}
	c.Status(http.StatusNoContent)
}

// Usage reports today's generation count.
func (h *Handler) Usage(c *gin.Context) {
	snap, err := h.analysisSvc.Usage(c.Request.Context(), subject(c))
	if err != nil {
		abortWithError(c, analysisHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, toUsageResponse(snap))
}

// SetUsage overrides today's generation count.
func (h *Handler) SetUsage(c *gin.Context) {
	var req setUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, string(analysis.KindValidation), errMessage(err), err))
		return
	}
	if req.Count == nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, string(analysis.KindValidation), "count is required", nil))
		return
	}
	snap, err := h.analysisSvc.SetUsage(c.Request.Context(), subject(c), *req.Count)
	if err != nil {
		abortWithError(c, analysisHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, toUsageResponse(snap))
}

func activityIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, string(analysis.KindValidation), "activity id must be a positive integer", err))
		return 0, false
	}
	return id, true
}

func toUsageResponse(snap usage.Snapshot) usageResponse {
	return usageResponse{
		Count:           snap.Count,
		ResetKey:        snap.ResetKey,
		Limit:           snap.Limit,
		Remaining:       snap.Remaining,
		ResetsInSeconds: int(snap.ResetsIn.Seconds()),
	}
}

func analysisHTTPError(err error) *HTTPError {
	var aerr *analysis.Error
	if !errors.As(err, &aerr) {
		return NewHTTPError(http.StatusInternalServerError, string(analysis.KindUnknown), errMessage(err), err)
	}
	httpErr := NewHTTPError(analysisStatus(aerr.Kind), string(aerr.Kind), aerr.Message, err)
	httpErr.RetryAfter = aerr.RetryAfterSeconds()
	httpErr.CachedContent = aerr.CachedContent
	return httpErr
}

func analysisStatus(kind analysis.Kind) int {
	switch kind {
	case analysis.KindUnauthorized:
		return http.StatusUnauthorized
	case analysis.KindValidation:
		return http.StatusBadRequest
	case analysis.KindCooldownActive, analysis.KindQuotaExhausted, analysis.KindRateLimited:
		return http.StatusTooManyRequests
	case analysis.KindUpstreamUnavailable:
		return http.StatusServiceUnavailable
	case analysis.KindAuthConfig, analysis.KindEmptyResult:
		return http.StatusBadGateway
	case analysis.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
