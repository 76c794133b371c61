package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"khpanel/internal/panel"
	"khpanel/internal/provision"
	"khpanel/internal/repository"
)

// ExpiredGraceDays is how long an expired service is kept before its
// vendor-side client is removed.
const ExpiredGraceDays = 3

// AuditRetention is how long diagnostic log lines are kept.
const AuditRetention = 30 * 24 * time.Hour

// Scheduler manages all background jobs.
type Scheduler struct {
	cron         *cron.Cron
	logger       *zap.Logger
	repos        *CronRepos
	registry     *panel.Registry
	orchestrator *provision.Orchestrator
	notifier     Notifier
}

// CronRepos bundles repositories needed by background jobs.
type CronRepos struct {
	Account *repository.AccountRepository
	Server  *repository.ServerRepository
	Plan    *repository.PlanRepository
	Service *repository.ServiceRepository
	Invoice *repository.InvoiceRepository
	Audit   *repository.AuditRepository
}

// Notifier delivers out-of-band alerts, usually to Telegram. A nil notifier
// disables alerts without disabling the jobs.
type Notifier interface {
	NotifyAdmins(text string)
	NotifyUser(telegramID int64, text string)
}

// New creates a new scheduler.
func New(repos *CronRepos, registry *panel.Registry, orchestrator *provision.Orchestrator, notifier Notifier, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:         cron.New(cron.WithSeconds()),
		logger:       logger,
		repos:        repos,
		registry:     registry,
		orchestrator: orchestrator,
		notifier:     notifier,
	}
}

// Start registers and starts all jobs.
func (s *Scheduler) Start() {
	s.logger.Info("Starting cron scheduler...")

	// Server uptime check - every 5 minutes
	s.cron.AddFunc("0 */5 * * * *", func() {
		s.logger.Debug("Running: server uptime check")
		s.serverUptimeCheck()
	})

	// Expiring service warnings - every hour
	s.cron.AddFunc("0 30 * * * *", func() {
		s.logger.Debug("Running: expiry warnings")
		s.expiryWarnings()
	})

	// Expired service cleanup - daily at 4 AM
	s.cron.AddFunc("0 0 4 * * *", func() {
		s.logger.Debug("Running: expired service cleanup")
		s.expiredServiceCleanup()
	})

	// Stale top-up expiry - every hour
	s.cron.AddFunc("0 0 * * * *", func() {
		s.logger.Debug("Running: stale top-up expiry")
		s.expireStaleTopUps()
	})

	// Audit log prune - daily at 3 AM
	s.cron.AddFunc("0 0 3 * * *", func() {
		s.logger.Debug("Running: audit log prune")
		s.pruneAuditLog()
	})

	s.cron.Start()
	s.logger.Info("Cron scheduler started")
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}

// serverUptimeCheck runs a connection test against every configured server
// and records the result. A server going offline alerts the admins.
func (s *Scheduler) serverUptimeCheck() {
	defer s.recoverFromPanic("serverUptimeCheck")

	servers, err := s.repos.Server.All()
	if err != nil {
		s.logger.Error("Uptime check: failed to load servers", zap.Error(err))
		return
	}

	for i := range servers {
		srv := &servers[i]

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		res := s.registry.Test(ctx, srv)
		cancel()

		status := "offline"
		if res.Success {
			status = "online"
		}
		if err := s.repos.Server.SetStatus(srv.ID, status, res.OnlineUsers); err != nil {
			s.logger.Error("Uptime check: failed to persist status", zap.Error(err), zap.Uint("server_id", srv.ID))
			continue
		}

		if !res.Success && srv.Status == "online" {
			_ = s.repos.Audit.Append("ERROR", "uptime",
				fmt.Sprintf("server %s went offline: %s", srv.Name, res.Error))
			if s.notifier != nil {
				s.notifier.NotifyAdmins(fmt.Sprintf("🔴 Server %s is offline!\n%s", srv.Name, res.Error))
			}
		}
	}
}

// expiryWarnings notifies owners of services expiring within 3 days. One
// warning per service per day.
func (s *Scheduler) expiryWarnings() {
	defer s.recoverFromPanic("expiryWarnings")

	if s.notifier == nil {
		return
	}

	services, _, err := s.repos.Service.FindAll(500, 1, 0)
	if err != nil {
		return
	}

	now := time.Now()
	for _, svc := range services {
		remaining := svc.ExpiresAt.Sub(now)
		if remaining <= 0 || remaining > 3*24*time.Hour {
			continue
		}
		// Warn once a day: fire only in the hour-of-day bucket matching
		// the service ID so repeated hourly runs skip it.
		if int(svc.ID)%24 != now.Hour() {
			continue
		}

		user, err := s.repos.Account.FindByID(svc.UserID)
		if err != nil || user.TelegramID == 0 {
			continue
		}
		days := int(remaining.Hours()/24) + 1
		s.notifier.NotifyUser(user.TelegramID,
			fmt.Sprintf("⚠️ Your service expires in %d day(s). Renew it to stay connected.", days))
	}
}

// expiredServiceCleanup removes vendor-side clients of services that expired
// past the grace period and deletes the local rows. Pre-made services are
// just deleted; their sold inventory item stays sold.
func (s *Scheduler) expiredServiceCleanup() {
	defer s.recoverFromPanic("expiredServiceCleanup")

	services, _, err := s.repos.Service.FindAll(500, 1, 0)
	if err != nil {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -ExpiredGraceDays)
	for _, svc := range services {
		if svc.ExpiresAt.After(cutoff) {
			continue
		}

		if svc.AutoProvisioned() {
			plan, _ := s.repos.Plan.FindByID(svc.PlanID)
			server, err := s.repos.Server.FindByID(svc.ServerID)
			if err != nil {
				continue
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			res := s.orchestrator.Delete(ctx, &svc, plan, server)
			cancel()

			_ = s.repos.Audit.AppendTrace(fmt.Sprintf("expiry-cleanup:service=%d", svc.ID), res.Trace)
			if !res.Success {
				s.logger.Warn("Expiry cleanup: panel deletion failed",
					zap.Uint("service_id", svc.ID), zap.String("error", res.Error))
				continue
			}
		}

		if err := s.repos.Service.Delete(svc.ID); err != nil {
			s.logger.Error("Expiry cleanup: failed to delete service row", zap.Error(err), zap.Uint("service_id", svc.ID))
			continue
		}
		_ = s.repos.Audit.Append("INFO", "expiry-cleanup",
			fmt.Sprintf("removed expired service %d (expired %s)", svc.ID, svc.ExpiresAt.Format("2006-01-02")))
	}
}

// expireStaleTopUps rejects gateway payments that never received a callback.
func (s *Scheduler) expireStaleTopUps() {
	defer s.recoverFromPanic("expireStaleTopUps")

	n, err := s.repos.Invoice.ExpireStaleTopUps(24 * time.Hour)
	if err != nil {
		s.logger.Error("Top-up expiry failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Expired stale top-up requests", zap.Int64("count", n))
	}
}

// pruneAuditLog drops diagnostic lines past the retention window.
func (s *Scheduler) pruneAuditLog() {
	defer s.recoverFromPanic("pruneAuditLog")

	n, err := s.repos.Audit.Prune(AuditRetention)
	if err != nil {
		s.logger.Error("Audit prune failed", zap.Error(err))
		return
	}
	if n > 0 {
		s.logger.Info("Pruned audit log", zap.Int64("removed", n))
	}
}

func (s *Scheduler) recoverFromPanic(jobName string) {
	if r := recover(); r != nil {
		s.logger.Error("Cron job panicked", zap.String("job", jobName), zap.Any("error", r))
	}
}
