package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/loanpro/loanpro-backend/internal/auth"
	"github.com/loanpro/loanpro-backend/internal/config"
	"github.com/loanpro/loanpro-backend/internal/handler"
	"github.com/loanpro/loanpro-backend/internal/repository"
	"github.com/loanpro/loanpro-backend/internal/scoring"
	"github.com/loanpro/loanpro-backend/internal/service"
	"github.com/loanpro/loanpro-backend/pkg/metrics"
	"github.com/loanpro/loanpro-backend/pkg/response"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	setupLogging(cfg)

	db, err := initDB(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	redisClient := initRedis(cfg)
	defer redisClient.Close()

	collector := metrics.NewCollector()

	// Repositories
	userRepo := repository.NewUserRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	kycRepo := repository.NewKYCRepository(db)
	loanRepo := repository.NewLoanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Services
	auditService := service.NewAuditService(auditRepo)
	kycService := service.NewKYCService(kycRepo, customerRepo, auditService)
	customerService := service.NewCustomerService(customerRepo, userRepo, loanRepo, paymentRepo,
		auditService, redisClient, cfg, scoring.DefaultConfig(), collector)
	loanService := service.NewLoanService(loanRepo, paymentRepo, customerRepo,
		customerService, kycService, auditService, cfg, collector)
	paymentService := service.NewPaymentService(paymentRepo, loanRepo, customerService, auditService, collector)

	// Handlers
	customerHandler := handler.NewCustomerHandler(customerService)
	kycHandler := handler.NewKYCHandler(kycService)
	loanHandler := handler.NewLoanHandler(loanService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	auditHandler := handler.NewAuditHandler(auditService)
	healthHandler := handler.NewHealthHandler(db, redisClient, cfg.GetHealthTimeout())

	router := setupRoutes(cfg, collector,
		customerHandler, kycHandler, loanHandler, paymentHandler, auditHandler, healthHandler)

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logrus.Infof("Server starting on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logrus.Fatalf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}

func setupLogging(cfg *config.Config) {
	if cfg.Logging.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.Logging.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func initDB(cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	return db, nil
}

func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func setupRoutes(
	cfg *config.Config,
	collector *metrics.Collector,
	customerHandler *handler.CustomerHandler,
	kycHandler *handler.KYCHandler,
	loanHandler *handler.LoanHandler,
	paymentHandler *handler.PaymentHandler,
	auditHandler *handler.AuditHandler,
	healthHandler *handler.HealthHandler,
) *mux.Router {
	router := mux.NewRouter()

	router.Use(response.CORSMiddleware)
	router.Use(response.LoggingMiddleware)

	// Unauthenticated surface
	router.HandleFunc("/health", healthHandler.Health).Methods("GET")
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods("GET")
	router.Handle("/metrics", collector.Handler()).Methods("GET")

	// API routes, all behind bearer auth
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(auth.Middleware(cfg.Auth.JWTSecret))

	api.HandleFunc("/customers", auth.Require(auth.OpCustomerRegister, customerHandler.Register)).Methods("POST")
	api.HandleFunc("/customers/{customerId}", auth.Require(auth.OpLoanView, customerHandler.Get)).Methods("GET")
	api.HandleFunc("/customers/{customerId}/approve", auth.Require(auth.OpCustomerApprove, customerHandler.Approve)).Methods("POST")
	api.HandleFunc("/customers/{customerId}/verify-address", auth.Require(auth.OpAddressVerify, customerHandler.VerifyAddress)).Methods("POST")
	api.HandleFunc("/customers/{customerId}/assign-staff", auth.Require(auth.OpCustomerAssignStaff, customerHandler.AssignStaff)).Methods("POST")
	api.HandleFunc("/customers/{customerId}/score", auth.Require(auth.OpScoreView, customerHandler.ScoreBreakdown)).Methods("GET")
	api.HandleFunc("/customers/{customerId}/score/refresh", auth.Require(auth.OpScoreView, customerHandler.RefreshScore)).Methods("POST")
	api.HandleFunc("/customers/{customerId}/dashboard", auth.Require(auth.OpDashboardCustomer, customerHandler.Dashboard)).Methods("GET")

	api.HandleFunc("/kyc", auth.Require(auth.OpKYCSubmit, kycHandler.Submit)).Methods("POST")
	api.HandleFunc("/kyc/{customerId}/verify", auth.Require(auth.OpKYCVerify, kycHandler.Verify)).Methods("POST")
	api.HandleFunc("/kyc/{customerId}/status", auth.Require(auth.OpLoanView, kycHandler.Status)).Methods("GET")

	api.HandleFunc("/loans", auth.Require(auth.OpLoanApply, loanHandler.Apply)).Methods("POST")
	api.HandleFunc("/loans/{loanId}", auth.Require(auth.OpLoanView, loanHandler.Get)).Methods("GET")
	api.HandleFunc("/loans/{loanId}/approve", auth.Require(auth.OpLoanApprove, loanHandler.Approve)).Methods("POST")
	api.HandleFunc("/loans/{loanId}/reject", auth.Require(auth.OpLoanReject, loanHandler.Reject)).Methods("POST")
	api.HandleFunc("/loans/{loanId}/disburse", auth.Require(auth.OpLoanDisburse, loanHandler.Disburse)).Methods("POST")
	api.HandleFunc("/loans/{loanId}/request-another", auth.Require(auth.OpLoanApply, loanHandler.RequestAnother)).Methods("POST")
	api.HandleFunc("/loans/{loanId}/outstanding", auth.Require(auth.OpLoanView, loanHandler.Outstanding)).Methods("GET")
	api.HandleFunc("/loans/{loanId}/schedule", auth.Require(auth.OpLoanView, loanHandler.Schedule)).Methods("GET")
	api.HandleFunc("/loans/{loanId}/payments", auth.Require(auth.OpPaymentView, paymentHandler.ListByLoan)).Methods("GET")

	api.HandleFunc("/payments/{paymentId}", auth.Require(auth.OpPaymentView, paymentHandler.Get)).Methods("GET")
	api.HandleFunc("/payments/{paymentId}/pay", auth.Require(auth.OpPaymentRecord, paymentHandler.Record)).Methods("POST")

	api.HandleFunc("/admin/stats", auth.Require(auth.OpDashboardAdmin, loanHandler.Stats)).Methods("GET")
	api.HandleFunc("/admin/audit", auth.Require(auth.OpAuditView, auditHandler.List)).Methods("GET")

	return router
}
