package api

import (
	"fmt"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"khpanel/internal/models"
	"khpanel/internal/payment"
	"khpanel/internal/pkg/utils"
)

// WalletHandler manages wallet balances and top-up requests.
type WalletHandler struct {
	repos       *Repos
	gateways    payment.Gateways
	callbackURL string
	logger      *zap.Logger
}

func NewWalletHandler(repos *Repos, gateways payment.Gateways, callbackURL string, logger *zap.Logger) *WalletHandler {
	return &WalletHandler{repos: repos, gateways: gateways, callbackURL: callbackURL, logger: logger}
}

// Balance handles GET /api/wallet/:id: balance plus recent invoices.
func (h *WalletHandler) Balance(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	account, err := h.repos.Account.FindByID(id)
	if err != nil {
		return errorResponse(c, "Account not found")
	}
	invoices, _, _ := h.repos.Invoice.FindAll(20, 1, id)
	return successResponse(c, "Successful", map[string]interface{}{
		"balance":  account.WalletBalance,
		"invoices": invoices,
	})
}

// Adjust handles POST /api/wallet/:id/adjust: a manual credit or debit by an
// admin.
func (h *WalletHandler) Adjust(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}
	var req struct {
		Delta  int64  `json:"delta"`
		Reason string `json:"reason"`
	}
	if err := c.Bind(&req); err != nil || req.Delta == 0 {
		return errorResponse(c, "a non-zero delta is required")
	}

	if _, err := h.repos.Account.FindByID(id); err != nil {
		return errorResponse(c, "Account not found")
	}
	if err := h.repos.Account.AdjustWallet(id, req.Delta); err != nil {
		h.logger.Error("Failed to adjust wallet", zap.Error(err), zap.Uint("user_id", id))
		return errorResponse(c, "Failed to adjust wallet")
	}
	_ = h.repos.Audit.Append("INFO", "wallet",
		fmt.Sprintf("manual wallet adjustment of %d for user %d: %s", req.Delta, id, req.Reason))
	return successResponse(c, "Wallet adjusted successfully", nil)
}

// TopUpReceipt handles POST /api/wallet/topup: a manual card receipt that an
// admin approves later.
func (h *WalletHandler) TopUpReceipt(c echo.Context) error {
	var req struct {
		UserID         uint   `json:"user_id"`
		Amount         int64  `json:"amount"`
		ReceiptDetails string `json:"receipt_details"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if req.UserID == 0 || req.Amount <= 0 {
		return errorResponse(c, "user_id and a positive amount are required")
	}

	topup := &models.TopUpRequest{
		UserID:         req.UserID,
		Amount:         req.Amount,
		ReceiptDetails: req.ReceiptDetails,
		Status:         models.TopUpPending,
	}
	if err := h.repos.Invoice.CreateTopUp(topup); err != nil {
		return errorResponse(c, "Failed to create top-up request")
	}
	return successResponse(c, "Top-up request submitted, awaiting approval", topup)
}

// TopUpGateway handles POST /api/wallet/topup/gateway: starts an online
// gateway payment and returns the redirect URL.
func (h *WalletHandler) TopUpGateway(c echo.Context) error {
	var req struct {
		UserID  uint   `json:"user_id"`
		Amount  int64  `json:"amount"`
		Gateway string `json:"gateway"`
	}
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "Invalid request body")
	}
	if req.UserID == 0 || req.Amount <= 0 {
		return errorResponse(c, "user_id and a positive amount are required")
	}

	gw, ok := h.gateways.Get(req.Gateway)
	if !ok {
		return errorResponse(c, "Unknown payment gateway: "+req.Gateway)
	}

	orderID := utils.GenerateOrderID()
	callback := fmt.Sprintf("%s/payment/%s/callback", h.callbackURL, gw.Name())

	res, err := gw.CreatePayment(c.Request().Context(), req.Amount, orderID, "wallet top-up", callback)
	if err != nil {
		h.logger.Error("Gateway payment creation failed", zap.Error(err), zap.String("gateway", gw.Name()))
		return errorResponse(c, "Failed to start the payment")
	}

	topup := &models.TopUpRequest{
		UserID:    req.UserID,
		Amount:    req.Amount,
		Gateway:   gw.Name(),
		OrderID:   orderID,
		Authority: res.Authority,
		Status:    models.TopUpPending,
	}
	if err := h.repos.Invoice.CreateTopUp(topup); err != nil {
		return errorResponse(c, "Failed to record the payment")
	}

	return successResponse(c, "Payment created", map[string]interface{}{
		"order_id":    orderID,
		"payment_url": res.PaymentURL,
	})
}

// PendingTopUps handles GET /api/wallet/topups.
func (h *WalletHandler) PendingTopUps(c echo.Context) error {
	reqs, err := h.repos.Invoice.PendingTopUps()
	if err != nil {
		return errorResponse(c, "Failed to retrieve top-up requests")
	}
	return successResponse(c, "Successful", reqs)
}

// ApproveTopUp handles POST /api/wallet/topups/:id/approve. Approval credits
// the wallet.
func (h *WalletHandler) ApproveTopUp(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}

	topup, err := h.repos.Invoice.FindTopUpByID(id)
	if err != nil {
		return errorResponse(c, "Top-up request not found")
	}
	if topup.Status != models.TopUpPending {
		return errorResponse(c, "This request has already been processed")
	}

	if err := h.repos.Invoice.UpdateTopUp(id, map[string]interface{}{"status": models.TopUpApproved}); err != nil {
		return errorResponse(c, "Failed to update the request")
	}
	if err := h.repos.Account.AdjustWallet(topup.UserID, topup.Amount); err != nil {
		h.logger.Error("Failed to credit wallet", zap.Error(err), zap.Uint("user_id", topup.UserID))
		return errorResponse(c, "Request approved but the wallet could not be credited")
	}
	_ = h.repos.Audit.Append("INFO", "wallet",
		fmt.Sprintf("top-up %d approved: %d credited to user %d", topup.ID, topup.Amount, topup.UserID))
	return successResponse(c, "Top-up approved and wallet credited", nil)
}

// RejectTopUp handles POST /api/wallet/topups/:id/reject.
func (h *WalletHandler) RejectTopUp(c echo.Context) error {
	id := idParam(c)
	if id == 0 {
		return errorResponse(c, "id is required")
	}

	topup, err := h.repos.Invoice.FindTopUpByID(id)
	if err != nil {
		return errorResponse(c, "Top-up request not found")
	}
	if topup.Status != models.TopUpPending {
		return errorResponse(c, "This request has already been processed")
	}

	if err := h.repos.Invoice.UpdateTopUp(id, map[string]interface{}{"status": models.TopUpRejected}); err != nil {
		return errorResponse(c, "Failed to update the request")
	}
	return successResponse(c, "Top-up rejected", nil)
}
