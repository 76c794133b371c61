package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// LogHandler exposes the persisted diagnostic log.
type LogHandler struct {
	repos  *Repos
	logger *zap.Logger
}

func NewLogHandler(repos *Repos, logger *zap.Logger) *LogHandler {
	return &LogHandler{repos: repos, logger: logger}
}

// Recent handles GET /api/logs. Supports ?limit= and ?level= filters.
func (h *LogHandler) Recent(c echo.Context) error {
	limit := queryInt(c, "limit", 100)
	level := c.QueryParam("level")

	logs, err := h.repos.Audit.Recent(limit, level)
	if err != nil {
		h.logger.Error("Failed to read audit log", zap.Error(err))
		return errorResponse(c, "Failed to retrieve logs")
	}
	return successResponse(c, "Successful", logs)
}
