package api

import (
	"fmt"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"khpanel/internal/models"
	"khpanel/internal/provision"
)

// ServiceHandler handles the full service lifecycle: purchase, renewal,
// deletion and usage queries.
type ServiceHandler struct {
	repos        *Repos
	orchestrator *provision.Orchestrator
	logger       *zap.Logger
}

func NewServiceHandler(repos *Repos, orchestrator *provision.Orchestrator, logger *zap.Logger) *ServiceHandler {
	return &ServiceHandler{repos: repos, orchestrator: orchestrator, logger: logger}
}

// List handles GET /api/services.
func (h *ServiceHandler) List(c echo.Context) error {
	limit := queryInt(c, "limit", 50)
	page := queryInt(c, "page", 1)
	userID := uint(queryInt(c, "user_id", 0))

	services, total, err := h.repos.Service.FindAll(limit, page, userID)
	if err != nil {
		h.logger.Error("Failed to list services", zap.Error(err))
		return errorResponse(c, "Failed to retrieve services")
	}
	return successResponse(c, "Successful", paginatedResponse(services, total, page, limit))
}

// Get handles GET /api/services/:id.
func (h *ServiceHandler) Get(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	service, err := h.repos.Service.FindByID(id)
	if err != nil {
		return errorResponse(c, "Service not found")
	}
	return successResponse(c, "Successful", service)
}

type purchaseRequest struct {
	UserID           uint   `json:"user_id"`
	PlanID           uint   `json:"plan_id"`
	CouponCode       string `json:"coupon_code"`
	ClientIdentifier string `json:"client_identifier"`
}

// Purchase handles POST /api/services. It prices the plan for the buyer,
// applies an optional coupon, debits the wallet and provisions the service.
// The wallet is only debited after provisioning succeeded.
func (h *ServiceHandler) Purchase(c echo.Context) error {
	var req purchaseRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if req.UserID == 0 || req.PlanID == 0 {
		return errorResponse(c, "user_id and plan_id are required")
	}

	user, err := h.repos.Account.FindByID(req.UserID)
	if err != nil {
		return errorResponse(c, "User not found")
	}
	plan, err := h.repos.Plan.FindByID(req.PlanID)
	if err != nil {
		return errorResponse(c, "Plan not found")
	}
	if plan.Status != "active" {
		return errorResponse(c, "This plan is not available for purchase")
	}

	price := plan.Price
	if user.Role == models.RoleAgent && plan.AgentPrice > 0 {
		price = plan.AgentPrice
	}

	var coupon *models.Coupon
	if req.CouponCode != "" {
		coupon, err = h.repos.Coupon.FindByCode(req.CouponCode)
		if err != nil || !coupon.Usable(time.Now()) {
			return errorResponse(c, "Coupon code is invalid or expired")
		}
		if used, _ := h.repos.Coupon.UsedByUser(coupon.ID, user.ID); used {
			return errorResponse(c, "You have already used this coupon")
		}
		price = coupon.Apply(price)
	}

	if !user.CanSpend(price) {
		return errorResponse(c, "Insufficient wallet balance")
	}

	service := models.Service{
		UserID:     user.ID,
		PlanID:     plan.ID,
		CategoryID: plan.CategoryID,
		FinalPrice: price,
		ExpiresAt:  time.Now().AddDate(0, 0, plan.DurationDays),
	}
	if coupon != nil {
		service.AppliedCouponCode = coupon.Code
	}

	// Pre-made plans take their artifact from the pool before the
	// orchestrator runs; a sold-out pool aborts the purchase.
	if plan.ProvisionType == models.ProvisionPreMade {
		item, err := h.repos.PreMade.Allocate(plan.PreMadeGroupID, user.ID)
		if err != nil {
			return errorResponse(c, "This plan is out of stock")
		}
		service.PreMadeItemID = item.ID
		service.ConfigLink = item.Content
	}

	servers, err := h.repos.Server.All()
	if err != nil {
		h.logger.Error("Failed to load servers", zap.Error(err))
		return errorResponse(c, "Failed to load server configurations")
	}

	res := h.orchestrator.Provision(c.Request().Context(), service, plan, user, servers, req.ClientIdentifier)

	auditCtx := fmt.Sprintf("provision:user=%d:plan=%d", user.ID, plan.ID)
	if err := h.repos.Audit.AppendTrace(auditCtx, res.Trace); err != nil {
		h.logger.Warn("Failed to persist provisioning trace", zap.Error(err))
	}

	if !res.Success {
		return errorResponse(c, res.Error)
	}

	if err := h.repos.Service.Create(res.Service); err != nil {
		h.logger.Error("Failed to persist service", zap.Error(err))
		return errorResponse(c, "Service was provisioned but could not be saved")
	}
	if err := h.repos.Account.AdjustWallet(user.ID, -price); err != nil {
		h.logger.Error("Failed to debit wallet", zap.Error(err), zap.Uint("user_id", user.ID))
	}
	_ = h.repos.Invoice.Create(&models.Invoice{
		ServiceID: res.Service.ID,
		UserID:    user.ID,
		Amount:    price,
		Status:    models.InvoicePaid,
	})
	if coupon != nil {
		_ = h.repos.Coupon.RecordUsage(coupon.ID, user.ID, res.Service.ID)
	}

	return successResponse(c, res.Message, map[string]interface{}{
		"service": res.Service,
		"trace":   res.Trace,
	})
}

// Renew handles POST /api/services/:id/renew. The new expiry extends the
// service's current expiry; a renewal whose traffic reset failed on the
// vendor side still succeeds, with the reset error surfaced to the caller.
func (h *ServiceHandler) Renew(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}

	service, err := h.repos.Service.FindByID(id)
	if err != nil {
		return errorResponse(c, "Service not found")
	}
	plan, err := h.repos.Plan.FindByID(service.PlanID)
	if err != nil {
		return errorResponse(c, "The service's plan no longer exists")
	}
	user, err := h.repos.Account.FindByID(service.UserID)
	if err != nil {
		return errorResponse(c, "The service's owner no longer exists")
	}

	price := plan.Price
	if user.Role == models.RoleAgent && plan.AgentPrice > 0 {
		price = plan.AgentPrice
	}
	if !user.CanSpend(price) {
		return errorResponse(c, "Insufficient wallet balance")
	}

	if !service.AutoProvisioned() {
		// Pre-made services have nothing on a vendor panel; renewal just
		// extends the local expiry.
		newExpiry := service.ExpiresAt.AddDate(0, 0, plan.DurationDays)
		if err := h.repos.Service.Update(service.ID, map[string]interface{}{"expires_at": newExpiry}); err != nil {
			return errorResponse(c, "Failed to update service")
		}
		h.settleRenewal(user.ID, service.ID, price)
		return successResponse(c, "Service renewed successfully", map[string]interface{}{"expires_at": newExpiry})
	}

	server, err := h.repos.Server.FindByID(service.ServerID)
	if err != nil {
		return errorResponse(c, "The service's server configuration no longer exists")
	}

	outcome := h.orchestrator.Renew(c.Request().Context(), service, plan, server)

	auditCtx := fmt.Sprintf("renew:service=%d", service.ID)
	if err := h.repos.Audit.AppendTrace(auditCtx, outcome.Trace); err != nil {
		h.logger.Warn("Failed to persist renewal trace", zap.Error(err))
	}

	if !outcome.Success {
		return errorResponse(c, outcome.Error)
	}

	updates := map[string]interface{}{
		"expires_at":    outcome.NewExpiry,
		"total_traffic": outcome.NewTotalBytes,
		"used_traffic":  0,
	}
	if err := h.repos.Service.Update(service.ID, updates); err != nil {
		h.logger.Error("Failed to persist renewal", zap.Error(err), zap.Uint("service_id", service.ID))
		return errorResponse(c, "Renewal succeeded on the panel but could not be saved")
	}
	h.settleRenewal(user.ID, service.ID, price)

	msg := "Service renewed successfully"
	if outcome.Error != "" {
		msg = "Service renewed, but the traffic counter could not be reset: " + outcome.Error
	}
	return successResponse(c, msg, map[string]interface{}{
		"expires_at": outcome.NewExpiry,
		"trace":      outcome.Trace,
	})
}

func (h *ServiceHandler) settleRenewal(userID, serviceID uint, price int64) {
	if err := h.repos.Account.AdjustWallet(userID, -price); err != nil {
		h.logger.Error("Failed to debit wallet", zap.Error(err), zap.Uint("user_id", userID))
	}
	_ = h.repos.Invoice.Create(&models.Invoice{
		ServiceID: serviceID,
		UserID:    userID,
		Amount:    price,
		Status:    models.InvoicePaid,
	})
}

// Delete handles DELETE /api/services/:id. Vendor-side cleanup treats a
// missing client as already deleted, so the local row is always removed once
// the panel call comes back successful.
func (h *ServiceHandler) Delete(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}

	service, err := h.repos.Service.FindByID(id)
	if err != nil {
		return errorResponse(c, "Service not found")
	}

	var plan *models.Plan
	if service.PlanID != 0 {
		plan, _ = h.repos.Plan.FindByID(service.PlanID)
	}
	var server *models.Server
	if service.ServerID != 0 {
		server, err = h.repos.Server.FindByID(service.ServerID)
		if err != nil {
			return errorResponse(c, "The service's server configuration no longer exists")
		}
	}

	res := h.orchestrator.Delete(c.Request().Context(), service, plan, server)

	auditCtx := fmt.Sprintf("delete:service=%d", service.ID)
	if err := h.repos.Audit.AppendTrace(auditCtx, res.Trace); err != nil {
		h.logger.Warn("Failed to persist deletion trace", zap.Error(err))
	}

	if !res.Success {
		return errorResponse(c, res.Error)
	}

	if err := h.repos.Service.Delete(service.ID); err != nil {
		return errorResponse(c, "Panel cleanup succeeded but the service row could not be removed")
	}
	return successResponse(c, "Service deleted successfully", map[string]interface{}{"trace": res.Trace})
}

// Traffic handles GET /api/services/:id/traffic. The fetched snapshot is
// mirrored into the local usage counter.
func (h *ServiceHandler) Traffic(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}

	service, err := h.repos.Service.FindByID(id)
	if err != nil {
		return errorResponse(c, "Service not found")
	}
	if !service.AutoProvisioned() {
		return errorResponse(c, "Usage data is not available for pre-made services")
	}
	server, err := h.repos.Server.FindByID(service.ServerID)
	if err != nil {
		return errorResponse(c, "The service's server configuration no longer exists")
	}

	res := h.orchestrator.Traffic(c.Request().Context(), service, server)
	if res.NotFound {
		return errorResponse(c, "Client was not found on the panel")
	}
	if !res.Success {
		return errorResponse(c, res.Error)
	}

	used := res.Data.Up + res.Data.Down
	if err := h.repos.Service.Update(service.ID, map[string]interface{}{"used_traffic": used}); err != nil {
		h.logger.Warn("Failed to persist usage counter", zap.Error(err), zap.Uint("service_id", service.ID))
	}

	return successResponse(c, "Successful", res.Data)
}
