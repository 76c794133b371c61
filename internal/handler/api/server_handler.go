package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"khpanel/internal/models"
	"khpanel/internal/panel"
)

// ServerHandler manages vendor panel connection profiles.
type ServerHandler struct {
	repos    *Repos
	registry *panel.Registry
	logger   *zap.Logger
}

func NewServerHandler(repos *Repos, registry *panel.Registry, logger *zap.Logger) *ServerHandler {
	return &ServerHandler{repos: repos, registry: registry, logger: logger}
}

// List handles GET /api/servers.
func (h *ServerHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	page := queryInt(c, "page", 1)
	q := c.QueryParam("q")

	servers, total, err := h.repos.Server.FindAll(limit, page, q)
	if err != nil {
		h.logger.Error("Failed to list servers", zap.Error(err))
		return errorResponse(c, "Failed to retrieve servers")
	}
	return successResponse(c, "Successful", paginatedResponse(servers, total, page, limit))
}

// Get handles GET /api/servers/:id.
func (h *ServerHandler) Get(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	server, err := h.repos.Server.FindByID(id)
	if err != nil {
		return errorResponse(c, "Server not found")
	}
	return successResponse(c, "Successful", server)
}

type serverRequest struct {
	Name         string `json:"name"`
	PanelType    string `json:"panel_type"`
	PanelURL     string `json:"panel_url"`
	PanelUser    string `json:"panel_user"`
	PanelPass    string `json:"panel_pass"`
	PublicDomain string `json:"public_domain"`
	PublicPort   string `json:"public_port"`
}

// Create handles POST /api/servers.
func (h *ServerHandler) Create(c echo.Context) error {
	var req serverRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if req.Name == "" || req.PanelType == "" || req.PanelURL == "" {
		return errorResponse(c, "name, panel_type and panel_url are required")
	}

	server := &models.Server{
		Name:         req.Name,
		PanelType:    req.PanelType,
		PanelURL:     req.PanelURL,
		PanelUser:    req.PanelUser,
		PanelPass:    req.PanelPass,
		PublicDomain: req.PublicDomain,
		PublicPort:   req.PublicPort,
		Status:       "offline",
	}
	if err := h.repos.Server.Create(server); err != nil {
		h.logger.Error("Failed to create server", zap.Error(err))
		return errorResponse(c, "Failed to create server")
	}
	return successResponse(c, "Server created successfully", server)
}

// Update handles PUT /api/servers/:id.
func (h *ServerHandler) Update(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}

	var req serverRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.PanelType != "" {
		updates["panel_type"] = req.PanelType
	}
	if req.PanelURL != "" {
		updates["panel_url"] = req.PanelURL
	}
	if req.PanelUser != "" {
		updates["panel_user"] = req.PanelUser
	}
	if req.PanelPass != "" {
		updates["panel_pass"] = req.PanelPass
	}
	if req.PublicDomain != "" {
		updates["public_domain"] = req.PublicDomain
	}
	if req.PublicPort != "" {
		updates["public_port"] = req.PublicPort
	}
	if len(updates) == 0 {
		return errorResponse(c, "No fields to update")
	}

	if err := h.repos.Server.Update(id, updates); err != nil {
		return errorResponse(c, "Failed to update server")
	}
	return successResponse(c, "Server updated successfully", nil)
}

// Delete handles DELETE /api/servers/:id.
func (h *ServerHandler) Delete(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	if err := h.repos.Server.Delete(id); err != nil {
		return errorResponse(c, "Failed to delete server")
	}
	return successResponse(c, "Server deleted successfully", nil)
}

// Test handles POST /api/servers/:id/test. It runs a live connection test
// against the vendor panel and records the outcome on the server row.
func (h *ServerHandler) Test(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}

	server, err := h.repos.Server.FindByID(id)
	if err != nil {
		return errorResponse(c, "Server not found")
	}

	res := h.registry.Test(c.Request().Context(), server)

	status := "offline"
	if res.Success {
		status = "online"
	}
	if err := h.repos.Server.SetStatus(server.ID, status, res.OnlineUsers); err != nil {
		h.logger.Error("Failed to persist server status", zap.Error(err), zap.Uint("server_id", server.ID))
	}

	if !res.Success {
		_ = h.repos.Audit.Append("ERROR", "server-test", res.Error)
		return errorResponse(c, res.Error)
	}
	return successResponse(c, "Connection successful", map[string]interface{}{
		"online_users": res.OnlineUsers,
		"status":       status,
	})
}
