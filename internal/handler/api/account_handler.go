package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"khpanel/internal/bootstrap"
	"khpanel/internal/models"
	"khpanel/internal/pkg/utils"
)

// AccountHandler manages panel accounts: admins, agents and end users.
type AccountHandler struct {
	repos  *Repos
	logger *zap.Logger
}

func NewAccountHandler(repos *Repos, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{repos: repos, logger: logger}
}

// List handles GET /api/accounts.
func (h *AccountHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	page := queryInt(c, "page", 1)
	q := c.QueryParam("q")

	accounts, total, err := h.repos.Account.FindAll(limit, page, q)
	if err != nil {
		h.logger.Error("Failed to list accounts", zap.Error(err))
		return errorResponse(c, "Failed to retrieve accounts")
	}
	return successResponse(c, "Successful", paginatedResponse(accounts, total, page, limit))
}

// Get handles GET /api/accounts/:id.
func (h *AccountHandler) Get(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	account, err := h.repos.Account.FindByID(id)
	if err != nil {
		return errorResponse(c, "Account not found")
	}
	return successResponse(c, "Successful", account)
}

type accountRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	Role                 string `json:"role"`
	TelegramID           int64  `json:"telegram_id"`
	AllowNegativeBalance bool   `json:"allow_negative_balance"`
	NegativeBalanceLimit int64  `json:"negative_balance_limit"`
}

// Create handles POST /api/accounts.
func (h *AccountHandler) Create(c echo.Context) error {
	var req accountRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" {
		return errorResponse(c, "email and password are required")
	}

	role := req.Role
	if role == "" {
		role = models.RoleUser
	}
	if role == models.RoleSuperadmin {
		return errorResponse(c, "superadmin accounts cannot be created through the API")
	}

	account := &models.Account{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             bootstrap.HashPassword(req.Password),
		Role:                 role,
		Status:               "active",
		Code:                 utils.RandomCode(8),
		TelegramID:           req.TelegramID,
		AllowNegativeBalance: req.AllowNegativeBalance,
		NegativeBalanceLimit: req.NegativeBalanceLimit,
	}
	if err := h.repos.Account.Create(account); err != nil {
		h.logger.Error("Failed to create account", zap.Error(err))
		return errorResponse(c, "Failed to create account (email may already exist)")
	}
	return successResponse(c, "Account created successfully", account)
}

// Update handles PUT /api/accounts/:id.
func (h *AccountHandler) Update(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}

	var req accountRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}

	updates := make(map[string]interface{})
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Password != "" {
		updates["password"] = bootstrap.HashPassword(req.Password)
	}
	if req.Role != "" && req.Role != models.RoleSuperadmin {
		updates["role"] = req.Role
	}
	if req.TelegramID != 0 {
		updates["telegram_id"] = req.TelegramID
	}
	updates["allow_negative_balance"] = req.AllowNegativeBalance
	if req.NegativeBalanceLimit != 0 {
		updates["negative_balance_limit"] = req.NegativeBalanceLimit
	}

	if err := h.repos.Account.Update(id, updates); err != nil {
		return errorResponse(c, "Failed to update account")
	}
	return successResponse(c, "Account updated successfully", nil)
}

// Delete handles DELETE /api/accounts/:id.
func (h *AccountHandler) Delete(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}

	account, err := h.repos.Account.FindByID(id)
	if err != nil {
		return errorResponse(c, "Account not found")
	}
	if account.Role == models.RoleSuperadmin {
		return errorResponse(c, "The superadmin account cannot be deleted")
	}

	if err := h.repos.Account.Delete(id); err != nil {
		return errorResponse(c, "Failed to delete account")
	}
	return successResponse(c, "Account deleted successfully", nil)
}
