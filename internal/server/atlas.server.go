package server

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/PerfZero/smsatlra/internal/cache"
	"github.com/PerfZero/smsatlra/internal/config"
	"github.com/PerfZero/smsatlra/internal/handler"
	"github.com/PerfZero/smsatlra/internal/mailbox"
	"github.com/PerfZero/smsatlra/internal/middleware"
	"github.com/PerfZero/smsatlra/internal/notifier"
	"github.com/PerfZero/smsatlra/internal/repository"
	"github.com/PerfZero/smsatlra/internal/router"
	"github.com/PerfZero/smsatlra/internal/smsgw"
	"github.com/PerfZero/smsatlra/internal/usecase/auth"
	"github.com/PerfZero/smsatlra/internal/usecase/balance"
	"github.com/PerfZero/smsatlra/internal/usecase/goal"
	"github.com/PerfZero/smsatlra/internal/usecase/monitor"
	"github.com/PerfZero/smsatlra/internal/usecase/reconcile"
	"github.com/PerfZero/smsatlra/internal/usecase/verification"
)

type Server struct {
	httpServer *http.Server
	scheduler  *monitor.Scheduler
	logger     *zap.Logger
	cleanup    []func()
}

// New wires the whole service: storage, gateways, usecases, handlers.
func New(cfg *config.Config, logger *zap.Logger) *Server {
	db := config.ConnectDB(cfg)
	rdb := config.ConnectRedis(cfg)

	users := repository.NewUserRepository(db)
	relatives := repository.NewRelativeRepository(db)
	goals := repository.NewGoalRepository(db)
	balances := repository.NewBalanceRepository(db)
	transactions := repository.NewTransactionRepository(db)
	packages := repository.NewPackageRepository(db)

	redisCache := cache.New(rdb)
	sms := smsgw.NewClient(cfg.SMSLogin, cfg.SMSPassword, cfg.SMSSender, cfg.SMSBaseURL, logger)
	wsManager := notifier.NewManager(logger)

	// Gmail auth is deferred to the first tick so the service boots without a
	// token on disk.
	mb := mailbox.NewLazy(func(ctx context.Context) (mailbox.Client, error) {
		return mailbox.NewGmailClient(ctx, cfg.GmailCredentialsPath, cfg.GmailTokenPath)
	})

	engine := reconcile.NewEngine(
		mb, users, relatives, goals, balances, transactions, wsManager, sms,
		reconcile.Config{
			Senders:           cfg.MonitorSenders,
			MaxMessages:       cfg.MonitorMaxMessages,
			FirstDepositBonus: cfg.FirstDepositBonus,
		},
		logger,
	)
	scheduler := monitor.New(func(ctx context.Context) error {
		_, err := engine.Reconcile(ctx)
		return err
	}, logger)

	authService := auth.New(users, balances, cfg.JWTSecret)
	balanceService := balance.New(transactions, goals, balances, cfg.FirstDepositBonus, logger)
	goalService := goal.New(goals, relatives, transactions)
	verificationService := verification.New(redisCache, sms, logger)

	authMW := middleware.NewAuthMiddleware(authService)

	handlers := router.Handlers{
		Auth:         handler.NewAuthHandler(authService),
		Balance:      handler.NewBalanceHandler(balanceService, transactions),
		Goal:         handler.NewGoalHandler(goalService),
		Verification: handler.NewVerificationHandler(verificationService),
		Package:      handler.NewPackageHandler(packages),
		Admin:        handler.NewAdminHandler(users),
		Monitor:      handler.NewMonitorHandler(scheduler, engine, cfg.MonitorIntervalSec),
		WS:           handler.NewWSHandler(wsManager, logger),
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router.New(handlers, authMW),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		scheduler: scheduler,
		logger:    logger,
		cleanup: []func(){
			db.Close,
			func() { _ = rdb.Close() },
		},
	}
}

func (s *Server) Run() error {
	s.logger.Info("http server listening", zap.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the scheduler, drains in-flight requests and releases the
// connection pools.
func (s *Server) Shutdown(ctx context.Context) error {
	s.scheduler.Stop()
	err := s.httpServer.Shutdown(ctx)
	for _, fn := range s.cleanup {
		fn()
	}
	return err
}
