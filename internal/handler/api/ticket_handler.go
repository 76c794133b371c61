package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"khpanel/internal/models"
)

// TicketHandler manages support tickets.
type TicketHandler struct {
	repos  *Repos
	logger *zap.Logger
}

func NewTicketHandler(repos *Repos, logger *zap.Logger) *TicketHandler {
	return &TicketHandler{repos: repos, logger: logger}
}

// List handles GET /api/tickets.
func (h *TicketHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	page := queryInt(c, "page", 1)
	userID := uint(queryInt(c, "user_id", 0))
	status := c.QueryParam("status")

	tickets, total, err := h.repos.Ticket.FindAll(limit, page, userID, status)
	if err != nil {
		h.logger.Error("Failed to list tickets", zap.Error(err))
		return errorResponse(c, "Failed to retrieve tickets")
	}
	return successResponse(c, "Successful", paginatedResponse(tickets, total, page, limit))
}

// Get handles GET /api/tickets/:id.
func (h *TicketHandler) Get(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	ticket, err := h.repos.Ticket.FindByID(id)
	if err != nil {
		return errorResponse(c, "Ticket not found")
	}
	return successResponse(c, "Successful", ticket)
}

// Create handles POST /api/tickets.
func (h *TicketHandler) Create(c echo.Context) error {
	var req struct {
		Subject          string `json:"subject"`
		Department       string `json:"department"`
		Priority         string `json:"priority"`
		UserID           uint   `json:"user_id"`
		RelatedServiceID uint   `json:"related_service_id"`
		Message          string `json:"message"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if req.Subject == "" || req.UserID == 0 || req.Message == "" {
		return errorResponse(c, "subject, user_id and message are required")
	}

	if req.Department == "" {
		req.Department = models.DeptGeneral
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}

	ticket := &models.Ticket{
		Subject:          req.Subject,
		Department:       req.Department,
		Priority:         req.Priority,
		Status:           models.TicketOpen,
		UserID:           req.UserID,
		RelatedServiceID: req.RelatedServiceID,
	}
	if err := h.repos.Ticket.Create(ticket); err != nil {
		h.logger.Error("Failed to create ticket", zap.Error(err))
		return errorResponse(c, "Failed to create ticket")
	}
	_ = h.repos.Ticket.AddReply(&models.TicketReply{
		TicketID: ticket.ID,
		AuthorID: req.UserID,
		Message:  req.Message,
	})
	return successResponse(c, "Ticket created successfully", ticket)
}

// Reply handles POST /api/tickets/:id/reply.
func (h *TicketHandler) Reply(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	var req struct {
		AuthorID uint   `json:"author_id"`
		Message  string `json:"message"`
	}
	if err := c.Bind(&req); err != nil || req.Message == "" {
		return errorResponse(c, "message is required")
	}

	ticket, err := h.repos.Ticket.FindByID(id)
	if err != nil {
		return errorResponse(c, "Ticket not found")
	}
	if ticket.Status == models.TicketClosed {
		return errorResponse(c, "This ticket is closed")
	}

	reply := &models.TicketReply{
		TicketID: ticket.ID,
		AuthorID: req.AuthorID,
		Message:  req.Message,
	}
	if err := h.repos.Ticket.AddReply(reply); err != nil {
		return errorResponse(c, "Failed to add reply")
	}
	return successResponse(c, "Reply added successfully", reply)
}

// SetStatus handles PUT /api/tickets/:id/status.
func (h *TicketHandler) SetStatus(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	switch req.Status {
	case models.TicketOpen, models.TicketInProgress, models.TicketClosed:
	default:
		return errorResponse(c, "Unknown ticket status: "+req.Status)
	}

	if err := h.repos.Ticket.Update(id, map[string]interface{}{"status": req.Status}); err != nil {
		return errorResponse(c, "Failed to update ticket")
	}
	return successResponse(c, "Ticket updated successfully", nil)
}
