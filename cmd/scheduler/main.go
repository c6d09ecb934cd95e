package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/loanpro/loanpro-backend/internal/config"
	"github.com/loanpro/loanpro-backend/internal/repository"
	"github.com/loanpro/loanpro-backend/internal/scoring"
	"github.com/loanpro/loanpro-backend/internal/service"
	"github.com/loanpro/loanpro-backend/pkg/metrics"
)

func main() {
	_ = godotenv.Load()

	logrus.Info("Starting loan scheduler...")

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	collector := metrics.NewCollector()

	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	kycRepo := repository.NewKYCRepository(db)
	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	auditService := service.NewAuditService(auditRepo)
	kycService := service.NewKYCService(kycRepo, customerRepo, auditService)
	customerService := service.NewCustomerService(customerRepo, userRepo, loanRepo, paymentRepo,
		auditService, nil, cfg, scoring.DefaultConfig(), collector)
	loanService := service.NewLoanService(loanRepo, paymentRepo, customerRepo,
		customerService, kycService, auditService, cfg, collector)
	paymentService := service.NewPaymentService(paymentRepo, loanRepo, customerService, auditService, collector)

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		logrus.Fatalf("Invalid scheduler timezone %q: %v", cfg.Scheduler.Timezone, err)
	}

	c := cron.New(cron.WithSeconds(), cron.WithLocation(location))
	setupCronJobs(c, cfg, paymentService, loanService)

	c.Start()
	logrus.Info("Scheduler started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down scheduler...")
	<-c.Stop().Done()
	logrus.Info("Scheduler stopped")
}

func setupCronJobs(c *cron.Cron, cfg *config.Config, payments *service.PaymentService, loans *service.LoanService) {
	// Daily sweep: flag overdue installments, then default loans past their
	// final due date with money still owed.
	_, err := c.AddFunc(cfg.Scheduler.OverdueCron, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		marked, err := payments.MarkOverdue(ctx)
		if err != nil {
			logrus.WithError(err).Error("overdue payment sweep failed")
		} else {
			logrus.WithField("payments_marked", marked).Info("overdue payment sweep finished")
		}

		defaulted, err := loans.MarkDefaults(ctx)
		if err != nil {
			logrus.WithError(err).Error("loan default sweep failed")
		} else {
			logrus.WithField("loans_defaulted", defaulted).Info("loan default sweep finished")
		}
	})
	if err != nil {
		logrus.Fatalf("Error scheduling overdue sweep: %v", err)
	}

	logrus.Info("Cron jobs scheduled successfully")
}
