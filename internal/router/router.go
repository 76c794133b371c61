package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"khpanel/internal/handler"
	"khpanel/internal/handler/api"
	"khpanel/internal/middleware"
	"khpanel/internal/panel"
	"khpanel/internal/payment"
	"khpanel/internal/provision"
	"khpanel/internal/repository"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	db *gorm.DB,
	registry *panel.Registry,
	gateways payment.Gateways,
	logger *zap.Logger,
	apiKey string,
	callbackBaseURL string,
	updateDeduper middleware.UpdateDeduper,
	webhookHandler http.Handler,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	// Repositories
	repos := &api.Repos{
		Account: repository.NewAccountRepository(db),
		Server:  repository.NewServerRepository(db),
		Plan:    repository.NewPlanRepository(db),
		Service: repository.NewServiceRepository(db),
		PreMade: repository.NewPreMadeRepository(db),
		Coupon:  repository.NewCouponRepository(db),
		Ticket:  repository.NewTicketRepository(db),
		Invoice: repository.NewInvoiceRepository(db),
		Audit:   repository.NewAuditRepository(db),
	}

	orchestrator := provision.New(registry)

	// Handlers
	serverHandler := api.NewServerHandler(repos, registry, logger)
	planHandler := api.NewPlanHandler(repos, logger)
	accountHandler := api.NewAccountHandler(repos, logger)
	serviceHandler := api.NewServiceHandler(repos, orchestrator, logger)
	couponHandler := api.NewCouponHandler(repos, logger)
	ticketHandler := api.NewTicketHandler(repos, logger)
	walletHandler := api.NewWalletHandler(repos, gateways, callbackBaseURL, logger)
	logHandler := api.NewLogHandler(repos, logger)

	paymentCallbackHandler := handler.NewPaymentCallbackHandler(
		repos.Account, repos.Invoice, repos.Audit, gateways, logger)

	// API group with token auth
	apiGroup := e.Group("/api")
	apiGroup.Use(middleware.APIAuth(apiKey))

	// Servers
	apiGroup.GET("/servers", serverHandler.List)
	apiGroup.POST("/servers", serverHandler.Create)
	apiGroup.GET("/servers/:id", serverHandler.Get)
	apiGroup.PUT("/servers/:id", serverHandler.Update)
	apiGroup.DELETE("/servers/:id", serverHandler.Delete)
	apiGroup.POST("/servers/:id/test", serverHandler.Test)

	// Plans and categories
	apiGroup.GET("/plans", planHandler.List)
	apiGroup.POST("/plans", planHandler.Create)
	apiGroup.GET("/plans/:id", planHandler.Get)
	apiGroup.PUT("/plans/:id", planHandler.Update)
	apiGroup.DELETE("/plans/:id", planHandler.Delete)
	apiGroup.GET("/categories", planHandler.Categories)
	apiGroup.POST("/categories", planHandler.CreateCategory)
	apiGroup.DELETE("/categories/:id", planHandler.DeleteCategory)

	// Pre-made inventory
	apiGroup.GET("/premade-groups", planHandler.PreMadeGroups)
	apiGroup.POST("/premade-groups", planHandler.CreatePreMadeGroup)
	apiGroup.POST("/premade-groups/:id/items", planHandler.AddPreMadeItems)
	apiGroup.DELETE("/premade-groups/:id", planHandler.DeletePreMadeGroup)

	// Accounts
	apiGroup.GET("/accounts", accountHandler.List)
	apiGroup.POST("/accounts", accountHandler.Create)
	apiGroup.GET("/accounts/:id", accountHandler.Get)
	apiGroup.PUT("/accounts/:id", accountHandler.Update)
	apiGroup.DELETE("/accounts/:id", accountHandler.Delete)

	// Services
	apiGroup.GET("/services", serviceHandler.List)
	apiGroup.POST("/services", serviceHandler.Purchase)
	apiGroup.GET("/services/:id", serviceHandler.Get)
	apiGroup.POST("/services/:id/renew", serviceHandler.Renew)
	apiGroup.DELETE("/services/:id", serviceHandler.Delete)
	apiGroup.GET("/services/:id/traffic", serviceHandler.Traffic)

	// Coupons
	apiGroup.GET("/coupons", couponHandler.List)
	apiGroup.POST("/coupons", couponHandler.Create)
	apiGroup.PUT("/coupons/:id", couponHandler.Update)
	apiGroup.DELETE("/coupons/:id", couponHandler.Delete)
	apiGroup.POST("/coupons/validate", couponHandler.Validate)

	// Tickets
	apiGroup.GET("/tickets", ticketHandler.List)
	apiGroup.POST("/tickets", ticketHandler.Create)
	apiGroup.GET("/tickets/:id", ticketHandler.Get)
	apiGroup.POST("/tickets/:id/reply", ticketHandler.Reply)
	apiGroup.PUT("/tickets/:id/status", ticketHandler.SetStatus)

	// Wallet
	apiGroup.GET("/wallet/:id", walletHandler.Balance)
	apiGroup.POST("/wallet/:id/adjust", walletHandler.Adjust)
	apiGroup.POST("/wallet/topup", walletHandler.TopUpReceipt)
	apiGroup.POST("/wallet/topup/gateway", walletHandler.TopUpGateway)
	apiGroup.GET("/wallet/topups", walletHandler.PendingTopUps)
	apiGroup.POST("/wallet/topups/:id/approve", walletHandler.ApproveTopUp)
	apiGroup.POST("/wallet/topups/:id/reject", walletHandler.RejectTopUp)

	// Diagnostic log
	apiGroup.GET("/logs", logHandler.Recent)

	// Telegram webhook (protected by IP check + deduplication)
	if webhookHandler != nil {
		botWebhookGroup := e.Group("/bot")
		botWebhookGroup.Use(middleware.TelegramIPCheck())
		botWebhookGroup.Use(middleware.TelegramUpdateDedup(updateDeduper))
		botWebhookGroup.POST("/webhook", echo.WrapHandler(webhookHandler))
	} else {
		logger.Info("Telegram webhook routes disabled (bot update mode is polling)")
	}

	// Payment callback routes
	paymentGroup := e.Group("/payment")
	paymentGroup.GET("/zarinpal/callback", paymentCallbackHandler.ZarinPalCallback)
	paymentGroup.GET("/zibal/callback", paymentCallbackHandler.ZibalCallback)

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
}
