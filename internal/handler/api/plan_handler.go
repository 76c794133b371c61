package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"khpanel/internal/models"
)

// PlanHandler manages sale offerings, their categories and pre-made pools.
type PlanHandler struct {
	repos  *Repos
	logger *zap.Logger
}

func NewPlanHandler(repos *Repos, logger *zap.Logger) *PlanHandler {
	return &PlanHandler{repos: repos, logger: logger}
}

// List handles GET /api/plans.
func (h *PlanHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	page := queryInt(c, "page", 1)
	q := c.QueryParam("q")

	plans, total, err := h.repos.Plan.FindAll(limit, page, q)
	if err != nil {
		h.logger.Error("Failed to list plans", zap.Error(err))
		return errorResponse(c, "Failed to retrieve plans")
	}

	resp := map[string]interface{}{
		"plans": paginatedResponse(plans, total, page, limit),
	}
	if categories, err := h.repos.Plan.Categories(); err == nil {
		resp["categories"] = categories
	}
	if servers, err := h.repos.Server.All(); err == nil {
		resp["servers"] = servers
	}
	return successResponse(c, "Successful", resp)
}

// Get handles GET /api/plans/:id.
func (h *PlanHandler) Get(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	plan, err := h.repos.Plan.FindByID(id)
	if err != nil {
		return errorResponse(c, "Plan not found")
	}
	return successResponse(c, "Successful", plan)
}

type planRequest struct {
	Name             string `json:"name"`
	CategoryID       uint   `json:"category_id"`
	Price            int64  `json:"price"`
	AgentPrice       int64  `json:"agent_price"`
	DurationDays     int    `json:"duration_days"`
	PostPurchaseInfo string `json:"post_purchase_info"`
	ProvisionType    string `json:"provision_type"`
	ServerID         uint   `json:"server_id"`
	Protocol         string `json:"protocol"`
	VolumeGB         int    `json:"volume_gb"`
	InboundID        string `json:"inbound_id"`
	Remark           string `json:"remark"`
	ConnectionDomain string `json:"connection_domain"`
	ConnectionPort   string `json:"connection_port"`
	PreMadeGroupID   uint   `json:"premade_group_id"`
}

// Create handles POST /api/plans.
func (h *PlanHandler) Create(c echo.Context) error {
	var req planRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if req.Name == "" {
		return errorResponse(c, "name is required")
	}

	provisionType := req.ProvisionType
	if provisionType == "" {
		provisionType = models.ProvisionAuto
	}
	switch provisionType {
	case models.ProvisionAuto:
		if req.ServerID == 0 {
			return errorResponse(c, "server_id is required for auto-provision plans")
		}
	case models.ProvisionPreMade:
		if req.PreMadeGroupID == 0 {
			return errorResponse(c, "premade_group_id is required for pre-made plans")
		}
	default:
		return errorResponse(c, "Unknown provision type: "+provisionType)
	}

	plan := &models.Plan{
		Name:             req.Name,
		CategoryID:       req.CategoryID,
		Price:            req.Price,
		AgentPrice:       req.AgentPrice,
		DurationDays:     req.DurationDays,
		PostPurchaseInfo: req.PostPurchaseInfo,
		Status:           "active",
		ProvisionType:    provisionType,
		ServerID:         req.ServerID,
		Protocol:         req.Protocol,
		VolumeGB:         req.VolumeGB,
		InboundID:        req.InboundID,
		Remark:           req.Remark,
		ConnectionDomain: req.ConnectionDomain,
		ConnectionPort:   req.ConnectionPort,
		PreMadeGroupID:   req.PreMadeGroupID,
	}
	if err := h.repos.Plan.Create(plan); err != nil {
		h.logger.Error("Failed to create plan", zap.Error(err))
		return errorResponse(c, "Failed to create plan")
	}
	return successResponse(c, "Plan created successfully", plan)
}

// Update handles PUT /api/plans/:id.
func (h *PlanHandler) Update(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}

	body := make(map[string]interface{})
	if err := c.Bind(&body); err != nil {
		return errorResponse(c, "Invalid request body")
	}

	allowed := map[string]string{
		"name":               "name",
		"category_id":        "category_id",
		"price":              "price",
		"agent_price":        "agent_price",
		"duration_days":      "duration_days",
		"post_purchase_info": "post_purchase_info",
		"status":             "status",
		"server_id":          "server_id",
		"protocol":           "protocol",
		"volume_gb":          "volume_gb",
		"inbound_id":         "inbound_id",
		"remark":             "remark",
		"connection_domain":  "connection_domain",
		"connection_port":    "connection_port",
		"premade_group_id":   "premade_group_id",
	}
	updates := make(map[string]interface{})
	for key, column := range allowed {
		if v, ok := body[key]; ok {
			updates[column] = v
		}
	}
	if len(updates) == 0 {
		return errorResponse(c, "No fields to update")
	}

	if err := h.repos.Plan.Update(id, updates); err != nil {
		return errorResponse(c, "Failed to update plan")
	}
	return successResponse(c, "Plan updated successfully", nil)
}

// Delete handles DELETE /api/plans/:id.
func (h *PlanHandler) Delete(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	if err := h.repos.Plan.Delete(id); err != nil {
		return errorResponse(c, "Failed to delete plan")
	}
	return successResponse(c, "Plan deleted successfully", nil)
}

// Categories handles GET /api/categories.
func (h *PlanHandler) Categories(c echo.Context) error {
	categories, err := h.repos.Plan.Categories()
	if err != nil {
		return errorResponse(c, "Failed to retrieve categories")
	}
	return successResponse(c, "Successful", categories)
}

// CreateCategory handles POST /api/categories.
func (h *PlanHandler) CreateCategory(c echo.Context) error {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return errorResponse(c, "name is required")
	}
	category := &models.Category{Name: req.Name, Status: "active"}
	if err := h.repos.Plan.CreateCategory(category); err != nil {
		return errorResponse(c, "Failed to create category")
	}
	return successResponse(c, "Category created successfully", category)
}

// DeleteCategory handles DELETE /api/categories/:id.
func (h *PlanHandler) DeleteCategory(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	if err := h.repos.Plan.DeleteCategory(id); err != nil {
		return errorResponse(c, "Failed to delete category")
	}
	return successResponse(c, "Category deleted successfully", nil)
}

// PreMadeGroups handles GET /api/premade-groups. Each pool is returned with
// its remaining stock.
func (h *PlanHandler) PreMadeGroups(c echo.Context) error {
	groups, err := h.repos.PreMade.Groups()
	if err != nil {
		return errorResponse(c, "Failed to retrieve pools")
	}

	type groupView struct {
		models.PreMadeItemGroup
		Available int64 `json:"available"`
	}
	out := make([]groupView, 0, len(groups))
	for _, g := range groups {
		count, _ := h.repos.PreMade.AvailableCount(g.ID)
		out = append(out, groupView{PreMadeItemGroup: g, Available: count})
	}
	return successResponse(c, "Successful", out)
}

// CreatePreMadeGroup handles POST /api/premade-groups.
func (h *PlanHandler) CreatePreMadeGroup(c echo.Context) error {
	var req struct {
		Name  string   `json:"name"`
		Items []string `json:"items"`
	}
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return errorResponse(c, "name is required")
	}

	group := &models.PreMadeItemGroup{Name: req.Name}
	if err := h.repos.PreMade.CreateGroup(group); err != nil {
		return errorResponse(c, "Failed to create pool")
	}
	if len(req.Items) > 0 {
		if err := h.repos.PreMade.AddItems(group.ID, req.Items); err != nil {
			h.logger.Error("Failed to add pool items", zap.Error(err), zap.Uint("group_id", group.ID))
			return errorResponse(c, "Pool created but items could not be added")
		}
	}
	return successResponse(c, "Pool created successfully", group)
}

// AddPreMadeItems handles POST /api/premade-groups/:id/items.
func (h *PlanHandler) AddPreMadeItems(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	var req struct {
		Items []string `json:"items"`
	}
	if err := c.Bind(&req); err != nil || len(req.Items) == 0 {
		return errorResponse(c, "items are required")
	}
	if err := h.repos.PreMade.AddItems(id, req.Items); err != nil {
		return errorResponse(c, "Failed to add items")
	}
	return successResponse(c, "Items added successfully", nil)
}

// DeletePreMadeGroup handles DELETE /api/premade-groups/:id.
func (h *PlanHandler) DeletePreMadeGroup(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	if err := h.repos.PreMade.DeleteGroup(id); err != nil {
		return errorResponse(c, "Failed to delete pool")
	}
	return successResponse(c, "Pool deleted successfully", nil)
}
