package handler

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"khpanel/internal/models"
	"khpanel/internal/payment"
	"khpanel/internal/pkg/utils"
	"khpanel/internal/repository"
)

// PaymentCallbackHandler handles gateway callbacks for wallet top-ups.
type PaymentCallbackHandler struct {
	accounts *repository.AccountRepository
	invoices *repository.InvoiceRepository
	audit    *repository.AuditRepository
	gateways payment.Gateways
	logger   *zap.Logger
}

func NewPaymentCallbackHandler(
	accounts *repository.AccountRepository,
	invoices *repository.InvoiceRepository,
	audit *repository.AuditRepository,
	gateways payment.Gateways,
	logger *zap.Logger,
) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{
		accounts: accounts,
		invoices: invoices,
		audit:    audit,
		gateways: gateways,
		logger:   logger,
	}
}

// ZarinPalCallback handles GET /payment/zarinpal/callback.
// ZarinPal redirects the payer back with ?Authority=...&Status=OK.
func (h *PaymentCallbackHandler) ZarinPalCallback(c echo.Context) error {
	authority := c.QueryParam("Authority")
	statusParam := c.QueryParam("Status")

	if authority == "" {
		return h.renderResult(c, "Error", "Invalid callback parameters", "", 0)
	}

	topup, err := h.findByAuthority(authority)
	if err != nil {
		return h.renderResult(c, "Error", "Transaction not found", authority, 0)
	}
	if statusParam != "OK" {
		return h.renderResult(c, "Payment cancelled", "The payment was not completed", topup.OrderID, topup.Amount)
	}

	return h.verifyAndSettle(c, "zarinpal", topup, authority)
}

// ZibalCallback handles GET /payment/zibal/callback.
// Zibal redirects back with ?trackId=...&success=1&orderId=....
func (h *PaymentCallbackHandler) ZibalCallback(c echo.Context) error {
	trackID := c.QueryParam("trackId")
	success := c.QueryParam("success")
	orderID := c.QueryParam("orderId")

	if trackID == "" || orderID == "" {
		return h.renderResult(c, "Error", "Invalid callback parameters", "", 0)
	}

	topup, err := h.invoices.FindTopUpByOrderID(orderID)
	if err != nil {
		return h.renderResult(c, "Error", "Transaction not found", orderID, 0)
	}
	if success != "1" {
		return h.renderResult(c, "Payment cancelled", "The payment was not completed", topup.OrderID, topup.Amount)
	}

	return h.verifyAndSettle(c, "zibal", topup, trackID)
}

func (h *PaymentCallbackHandler) findByAuthority(authority string) (*models.TopUpRequest, error) {
	// ZarinPal's redirect does not carry the order ID, only the authority.
	reqs, err := h.invoices.PendingTopUps()
	if err != nil {
		return nil, err
	}
	for i := range reqs {
		if reqs[i].Authority == authority {
			return &reqs[i], nil
		}
	}
	return nil, fmt.Errorf("no pending top-up for authority %s", authority)
}

// verifyAndSettle verifies the payment with the gateway, then credits the
// wallet. An already-processed request is reported as paid without crediting
// twice.
func (h *PaymentCallbackHandler) verifyAndSettle(c echo.Context, gatewayName string, topup *models.TopUpRequest, authority string) error {
	if topup.Status != models.TopUpPending {
		return h.renderResult(c, "Payment successful", "This transaction has already been processed", topup.OrderID, topup.Amount)
	}

	gw, ok := h.gateways.Get(gatewayName)
	if !ok {
		return h.renderResult(c, "Error", "Payment gateway is not configured", topup.OrderID, topup.Amount)
	}

	result, err := gw.VerifyPayment(c.Request().Context(), authority, topup.Amount)
	if err != nil {
		h.logger.Error("Payment verification failed", zap.Error(err), zap.String("gateway", gatewayName))
		return h.renderResult(c, "Error", "Payment verification failed", topup.OrderID, topup.Amount)
	}
	if !result.Verified {
		msg := result.Message
		if msg == "" {
			msg = "Payment could not be verified"
		}
		_ = h.invoices.UpdateTopUp(topup.ID, map[string]interface{}{"status": models.TopUpRejected})
		return h.renderResult(c, "Payment failed", msg, topup.OrderID, topup.Amount)
	}

	if err := h.invoices.UpdateTopUp(topup.ID, map[string]interface{}{
		"status": models.TopUpApproved,
		"ref_id": result.RefID,
	}); err != nil {
		h.logger.Error("Failed to mark top-up as approved", zap.Error(err), zap.Uint("topup_id", topup.ID))
		return h.renderResult(c, "Error", "Payment verified but could not be recorded", topup.OrderID, topup.Amount)
	}
	if err := h.accounts.AdjustWallet(topup.UserID, topup.Amount); err != nil {
		h.logger.Error("Failed to credit wallet after payment", zap.Error(err), zap.Uint("user_id", topup.UserID))
	}

	_ = h.audit.Append("INFO", "payment",
		fmt.Sprintf("%s payment verified: order %s, ref %s, %d credited to user %d",
			gatewayName, topup.OrderID, result.RefID, topup.Amount, topup.UserID))

	return h.renderResult(c, "Payment successful", "Your wallet has been credited. Thank you!", topup.OrderID, topup.Amount)
}

func (h *PaymentCallbackHandler) renderResult(c echo.Context, title, message, orderID string, amount int64) error {
	html := `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Payment Result</title>
    <style>
        body { font-family: sans-serif; background: #f2f2f2; margin: 0; padding: 20px; display: flex; justify-content: center; align-items: center; min-height: 100vh; }
        .box { background: #fff; border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); padding: 40px; text-align: center; max-width: 400px; width: 100%; }
        h1 { color: #333; margin-bottom: 20px; }
        p { color: #666; margin-bottom: 10px; }
    </style>
</head>
<body>
    <div class="box">
        <h1>{{.Title}}</h1>
        {{if .OrderID}}<p>Order: <span>{{.OrderID}}</span></p>{{end}}
        {{if .HasAmount}}<p>Amount: <span>{{.AmountStr}}</span></p>{{end}}
        <p>{{.Message}}</p>
    </div>
</body>
</html>`

	tmpl, err := template.New("payment").Parse(html)
	if err != nil {
		return c.String(http.StatusInternalServerError, "template error")
	}

	data := map[string]interface{}{
		"Title":     title,
		"Message":   message,
		"OrderID":   orderID,
		"HasAmount": amount > 0,
		"AmountStr": utils.FormatNumber(amount),
	}

	c.Response().Header().Set("Content-Type", "text/html; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	return tmpl.Execute(c.Response().Writer, data)
}
