package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"

	"khpanel/internal/config"
	"khpanel/internal/provision"
	"khpanel/internal/pkg/utils"
	"khpanel/internal/repository"
)

const (
	btnServices = "📋 My Services"
	btnWallet   = "💰 Wallet"
	btnSupport  = "🎫 Support"
)

// Bot is the customer self-service Telegram bot. Buyers see their services,
// live usage and wallet balance; admins get uptime alerts.
type Bot struct {
	tb           *tele.Bot
	webhook      *tele.Webhook
	useWebhook   bool
	cfg          *config.Config
	repos        *BotRepos
	orchestrator *provision.Orchestrator
	logger       *zap.Logger
}

// BotRepos bundles all repositories needed by bot handlers.
type BotRepos struct {
	Account *repository.AccountRepository
	Server  *repository.ServerRepository
	Service *repository.ServiceRepository
	Invoice *repository.InvoiceRepository
}

// New creates and configures a new Bot instance.
func New(cfg *config.Config, repos *BotRepos, orchestrator *provision.Orchestrator, logger *zap.Logger) (*Bot, error) {
	useWebhook := strings.TrimSpace(cfg.Bot.WebhookURL) != ""

	var poller tele.Poller
	var webhook *tele.Webhook
	if useWebhook {
		webhook = &tele.Webhook{
			Listen:   "", // mounted on Echo, not telebot's own server
			Endpoint: &tele.WebhookEndpoint{PublicURL: cfg.Bot.WebhookURL},
		}
		poller = webhook
	} else {
		poller = &tele.LongPoller{Timeout: 10 * time.Second}
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: poller,
		OnError: func(err error, c tele.Context) {
			logger.Error("telebot error", zap.Error(err))
		},
	}

	tb, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create telebot: %w", err)
	}

	b := &Bot{
		tb:           tb,
		webhook:      webhook,
		useWebhook:   useWebhook,
		cfg:          cfg,
		repos:        repos,
		orchestrator: orchestrator,
		logger:       logger,
	}

	b.registerHandlers()

	return b, nil
}

// WebhookHandler returns the webhook handler for mounting on Echo.
// Returns nil when running in long-polling mode.
func (b *Bot) WebhookHandler() http.Handler {
	if b.webhook == nil {
		return nil
	}
	return b.webhook
}

// Start begins polling/webhook processing.
func (b *Bot) Start() {
	if b.useWebhook {
		b.logger.Info("Starting Telegram bot", zap.String("mode", "webhook"), zap.String("webhook_url", b.cfg.Bot.WebhookURL))
	} else {
		if err := b.tb.RemoveWebhook(true); err != nil {
			b.logger.Warn("Failed to remove webhook before long polling", zap.Error(err))
		}
		b.logger.Info("Starting Telegram bot", zap.String("mode", "polling"))
	}
	b.tb.Start()
}

// Stop gracefully shuts down the bot.
func (b *Bot) Stop() {
	b.tb.Stop()
}

func (b *Bot) registerHandlers() {
	b.tb.Handle("/start", b.handleStart)
	b.tb.Handle(tele.OnText, b.handleText)
}

func (b *Bot) mainMenu() *tele.ReplyMarkup {
	menu := &tele.ReplyMarkup{ResizeKeyboard: true}
	menu.Reply(
		menu.Row(menu.Text(btnServices)),
		menu.Row(menu.Text(btnWallet), menu.Text(btnSupport)),
	)
	return menu
}

func (b *Bot) handleStart(c tele.Context) error {
	account, err := b.repos.Account.FindByTelegramID(c.Chat().ID)
	if err != nil {
		return c.Send(
			"👋 Welcome!\n\nYour Telegram account is not linked to a panel account yet. "+
				"Ask your reseller to register you with this Telegram ID: "+
				fmt.Sprintf("`%d`", c.Chat().ID),
			tele.ModeMarkdown)
	}

	_ = b.repos.Account.TouchLastActive(account.ID)
	return c.Send(fmt.Sprintf("👋 Welcome back, %s!", account.Name), b.mainMenu())
}

func (b *Bot) handleText(c tele.Context) error {
	account, err := b.repos.Account.FindByTelegramID(c.Chat().ID)
	if err != nil {
		return b.handleStart(c)
	}

	switch c.Text() {
	case btnServices:
		return b.showServices(c, account.ID)
	case btnWallet:
		return b.showWallet(c, account.ID)
	case btnSupport:
		return c.Send("🎫 Open a ticket from the panel and our team will get back to you.")
	default:
		return c.Send("Please use the menu below.", b.mainMenu())
	}
}

func (b *Bot) showServices(c tele.Context, userID uint) error {
	services, err := b.repos.Service.FindByUser(userID)
	if err != nil || len(services) == 0 {
		return c.Send("📋 You have no services yet.")
	}

	var sb strings.Builder
	sb.WriteString("📋 Your services:\n")
	for _, svc := range services {
		sb.WriteString(fmt.Sprintf("\n🔹 Service #%d\n", svc.ID))
		sb.WriteString(fmt.Sprintf("   Expires: %s\n", svc.ExpiresAt.Format("2006-01-02")))

		if svc.AutoProvisioned() {
			server, err := b.repos.Server.FindByID(svc.ServerID)
			if err == nil {
				ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
				res := b.orchestrator.Traffic(ctx, &svc, server)
				cancel()
				if res.Success && res.Data != nil {
					used := res.Data.Up + res.Data.Down
					sb.WriteString(fmt.Sprintf("   Usage: %s / %s\n",
						utils.FormatBytes(used), utils.FormatBytes(res.Data.Total)))
				}
			}
		}
		if svc.ConfigLink != "" {
			sb.WriteString(fmt.Sprintf("   `%s`\n", svc.ConfigLink))
		}
	}
	return c.Send(sb.String(), tele.ModeMarkdown)
}

func (b *Bot) showWallet(c tele.Context, userID uint) error {
	account, err := b.repos.Account.FindByID(userID)
	if err != nil {
		return c.Send("❌ Could not load your wallet.")
	}
	return c.Send(fmt.Sprintf("💰 Wallet balance: %s", utils.FormatNumber(account.WalletBalance)))
}

// NotifyAdmins sends a message to the configured admin chat.
func (b *Bot) NotifyAdmins(text string) {
	if b.cfg.Bot.AdminID == 0 {
		return
	}
	if _, err := b.tb.Send(&tele.Chat{ID: b.cfg.Bot.AdminID}, text); err != nil {
		b.logger.Warn("Failed to notify admin", zap.Error(err))
	}
}

// NotifyUser sends a message to one Telegram user.
func (b *Bot) NotifyUser(telegramID int64, text string) {
	if telegramID == 0 {
		return
	}
	if _, err := b.tb.Send(&tele.Chat{ID: telegramID}, text); err != nil {
		b.logger.Debug("Failed to notify user", zap.Int64("telegram_id", telegramID), zap.Error(err))
	}
}
