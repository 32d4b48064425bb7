package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/workout-coach/internal/domain/analysis"
	"github.com/yanqian/workout-coach/internal/domain/athlete"
	"github.com/yanqian/workout-coach/internal/domain/auth"
)

// ModelInfo describes the generation backend to clients.
type ModelInfo struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Limits ModelLimits `json:"limits"`
}

// ModelLimits are the published request budgets. RPD is the daily quota.
type ModelLimits struct {
	RPM int `json:"rpm"`
	TPM int `json:"tpm"`
	RPD int `json:"rpd"`
}

// Handler wires the HTTP transport to domain services.
type Handler struct {
	analysisSvc analysis.Service
	athleteSvc  athlete.Service
	authSvc     auth.Service
	model       ModelInfo
	logger      *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(analysisSvc analysis.Service, athleteSvc athlete.Service, authSvc auth.Service, model ModelInfo, logger *slog.Logger) *Handler {
	return &Handler{
		analysisSvc: analysisSvc,
		athleteSvc:  athleteSvc,
		authSvc:     authSvc,
		model:       model,
		logger:      logger.With("component", "http.handler"),
	}
}

// Health reports liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Model returns the configured model and its published limits.
func (h *Handler) Model(c *gin.Context) {
	c.JSON(http.StatusOK, h.model)
}

// ResetData deletes every analysis and the profile of the caller.
func (h *Handler) ResetData(c *gin.Context) {
	userID := subject(c)
	deleted, err := h.analysisSvc.Reset(c.Request.Context(), userID)
	if err != nil {
		abortWithError(c, analysisHTTPError(err))
		return
	}
	if err := h.athleteSvc.Delete(c.Request.Context(), userID); err != nil {
		abortWithError(c, profileHTTPError(err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deletedAnalyses": deleted})
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
