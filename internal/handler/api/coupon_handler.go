package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"khpanel/internal/models"
)

// CouponHandler manages discount codes.
type CouponHandler struct {
	repos  *Repos
	logger *zap.Logger
}

func NewCouponHandler(repos *Repos, logger *zap.Logger) *CouponHandler {
	return &CouponHandler{repos: repos, logger: logger}
}

// List handles GET /api/coupons.
func (h *CouponHandler) List(c echo.Context) error {
	coupons, err := h.repos.Coupon.FindAll()
	if err != nil {
		h.logger.Error("Failed to list coupons", zap.Error(err))
		return errorResponse(c, "Failed to retrieve coupons")
	}
	return successResponse(c, "Successful", coupons)
}

type couponRequest struct {
	Code       string `json:"code"`
	Type       string `json:"type"`
	Value      int64  `json:"value"`
	UsageLimit int    `json:"usage_limit"`
	ExpiryDate string `json:"expiry_date"`
}

// Create handles POST /api/coupons.
func (h *CouponHandler) Create(c echo.Context) error {
	var req couponRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if req.Code == "" || req.Value <= 0 {
		return errorResponse(c, "code and a positive value are required")
	}
	if req.Type != models.CouponPercentage && req.Type != models.CouponAmount {
		return errorResponse(c, "type must be percentage or amount")
	}
	if req.Type == models.CouponPercentage && req.Value > 100 {
		return errorResponse(c, "percentage value cannot exceed 100")
	}

	coupon := &models.Coupon{
		Code:       req.Code,
		Type:       req.Type,
		Value:      req.Value,
		UsageLimit: req.UsageLimit,
		Status:     "active",
	}
	if req.ExpiryDate != "" {
		t, err := time.Parse("2006-01-02", req.ExpiryDate)
		if err != nil {
			return errorResponse(c, "expiry_date must be YYYY-MM-DD")
		}
		coupon.ExpiryDate = &t
	}

	if err := h.repos.Coupon.Create(coupon); err != nil {
		return errorResponse(c, "Failed to create coupon (code may already exist)")
	}
	return successResponse(c, "Coupon created successfully", coupon)
}

// Update handles PUT /api/coupons/:id. Only the status and usage limit can
// change after creation.
func (h *CouponHandler) Update(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	var req struct {
		Status     string `json:"status"`
		UsageLimit *int   `json:"usage_limit"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}

	updates := make(map[string]interface{})
	if req.Status != "" {
		updates["status"] = req.Status
	}
	if req.UsageLimit != nil {
		updates["usage_limit"] = *req.UsageLimit
	}
	if len(updates) == 0 {
		return errorResponse(c, "No fields to update")
	}

	if err := h.repos.Coupon.Update(id, updates); err != nil {
		return errorResponse(c, "Failed to update coupon")
	}
	return successResponse(c, "Coupon updated successfully", nil)
}

// Delete handles DELETE /api/coupons/:id.
func (h *CouponHandler) Delete(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	if err := h.repos.Coupon.Delete(id); err != nil {
		return errorResponse(c, "Failed to delete coupon")
	}
	return successResponse(c, "Coupon deleted successfully", nil)
}

// Validate handles POST /api/coupons/validate: a dry-run price check used by
// the purchase form.
func (h *CouponHandler) Validate(c echo.Context) error {
	var req struct {
		Code   string `json:"code"`
		UserID uint   `json:"user_id"`
		Price  int64  `json:"price"`
	}
	if err := c.Bind(&req); err != nil || req.Code == "" {
		return errorResponse(c, "code is required")
	}

	coupon, err := h.repos.Coupon.FindByCode(req.Code)
	if err != nil || !coupon.Usable(time.Now()) {
		return errorResponse(c, "Coupon code is invalid or expired")
	}
	if req.UserID != 0 {
		if used, _ := h.repos.Coupon.UsedByUser(coupon.ID, req.UserID); used {
			return errorResponse(c, "You have already used this coupon")
		}
	}

	return successResponse(c, "Coupon is valid", map[string]interface{}{
		"type":        coupon.Type,
		"value":       coupon.Value,
		"final_price": coupon.Apply(req.Price),
	})
}
