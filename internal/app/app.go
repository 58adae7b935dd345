package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alexedwards/scs/goredisstore"
	"github.com/alexedwards/scs/v2"
	"github.com/exaring/otelpgx"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okalli/checkout-service/internal/checkout"
	"github.com/okalli/checkout-service/internal/domain"
	"github.com/okalli/checkout-service/internal/ledger"
	"github.com/okalli/checkout-service/internal/mailer"
	"github.com/okalli/checkout-service/internal/payable"
	"github.com/okalli/checkout-service/internal/payment"
	"github.com/okalli/checkout-service/internal/repository"
	appvalidator "github.com/okalli/checkout-service/internal/validator"
	"github.com/okalli/checkout-service/internal/vcs"
	"github.com/redis/go-redis/v9"
)

var (
	version = vcs.Version()
)

type application struct {
	config         config
	logger         *slog.Logger
	db             *pgxpool.Pool
	redis          redis.UniversalClient
	validator      *validator.Validate
	mailer         mailer.Mailer
	sessionManager *scs.SessionManager

	customerRepo    domain.CustomerRepository
	checkoutRepo    domain.CheckoutRepository
	planRepo        domain.PaymentPlanRepository
	payablePlanRepo domain.PayablePlanRepository
	instalmentRepo  domain.InstalmentRepository
	ledgerRepo      ledger.Repository

	registry *payable.Registry
	service  *checkout.Service
}

type config struct {
	port int
	env  string
	db   struct {
		dsn          string
		maxOpenConns int
		maxIdleTime  time.Duration
	}
	redis struct {
		url          string
		maxOpenConns int
		maxIdleConns int
		maxIdleTime  time.Duration
	}
	smtp struct {
		host     string
		port     int
		username string
		password string
		sender   string
	}
	stripe struct {
		secretKey string
	}
	checkout struct {
		currency     string
		notifyEmails string
	}
	otelCollectorUrl string
}

func Run() error {
	var cfg config

	flag.IntVar(&cfg.port, "port", 3000, "server port")
	flag.StringVar(&cfg.env, "env", "dev", "Environment (dev|staging|prod)")

	flag.StringVar(&cfg.db.dsn, "db-dsn", "", "PostgreSQL DSN")
	flag.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.redis.url, "redis-url", "", "Redis URL")
	flag.IntVar(&cfg.redis.maxOpenConns, "redis-max-open-conns", 25, "Redis max open connections")
	flag.IntVar(&cfg.redis.maxIdleConns, "redis-max-idle-conns", 10, "Redis max idle connections")
	flag.DurationVar(&cfg.redis.maxIdleTime, "redis-max-idle-time", 2*time.Minute, "Redis max idle time for connections")

	flag.StringVar(&cfg.smtp.host, "smtp-host", "sandbox.smtp.mailtrap.io", "SMTP host")
	flag.IntVar(&cfg.smtp.port, "smtp-port", 2525, "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", "", "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", "", "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", "Checkout <no-reply@checkout.okalli.net>", "SMTP sender")

	flag.StringVar(&cfg.stripe.secretKey, "stripe-key", "", "Stripe secret key")

	flag.StringVar(&cfg.checkout.currency, "currency", "GBP", "ISO currency code for charges")
	flag.StringVar(&cfg.checkout.notifyEmails, "notify-emails", "", "Comma-separated addresses notified of checkout outcomes")

	flag.StringVar(&cfg.otelCollectorUrl, "otel-collector-url", "", "OpenTelemetry collector URL")

	displayVersion := flag.Bool("version", false, "Display version and exit")

	flag.Parse()

	if *displayVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	db, err := newDatabasePool(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient, err := newRedisClient(cfg)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	app := &application{
		config:         cfg,
		logger:         logger,
		db:             db,
		redis:          redisClient,
		validator:      appvalidator.NewValidator(),
		mailer:         mailer.NewSMTPMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender),
		sessionManager: newSessionManager(redisClient),

		customerRepo:    repository.NewPostgresCustomerRepository(db),
		checkoutRepo:    repository.NewPostgresCheckoutRepository(db),
		planRepo:        repository.NewPostgresPaymentPlanRepository(db),
		payablePlanRepo: repository.NewPostgresPayablePlanRepository(db),
		instalmentRepo:  repository.NewPostgresInstalmentRepository(db),
		ledgerRepo:      repository.NewPostgresLedgerRepository(db),

		registry: payable.NewRegistry(),
	}

	ledger.Register(app.registry, app.ledgerRepo)

	app.service = checkout.NewService(checkout.ServiceConfig{
		Logger:       logger,
		Tx:           repository.NewTxManager(db),
		Customers:    app.customerRepo,
		Checkouts:    app.checkoutRepo,
		Plans:        app.planRepo,
		PayablePlans: app.payablePlanRepo,
		Instalments:  app.instalmentRepo,
		Gateway:      newGateway(cfg, logger),
		Mailer:       app.mailer,
		Registry:     app.registry,
		Currency:     cfg.checkout.currency,
		NotifyEmails: splitEmails(cfg.checkout.notifyEmails),
	})
	app.service.RegisterInstalmentPayable(app.registry)

	shutdownTelemetry, err := app.initTelemetry()
	if err != nil {
		return err
	}
	defer shutdownTelemetry(context.Background())

	return app.run()
}

func newGateway(cfg config, logger *slog.Logger) domain.Gateway {
	if cfg.stripe.secretKey == "" {
		logger.Warn("no Stripe key configured, using the in-memory fake gateway")
		return payment.NewFakeGateway()
	}

	return payment.NewStripeGateway(cfg.stripe.secretKey)
}

func splitEmails(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	emails := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			emails = append(emails, p)
		}
	}
	return emails
}

func newSessionManager(client *redis.Client) *scs.SessionManager {
	sessionManager := scs.New()

	sessionManager.Store = goredisstore.New(client)
	sessionManager.IdleTimeout = 20 * time.Minute
	sessionManager.Cookie.Name = "session_id"

	return sessionManager
}

func newRedisClient(cfg config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.redis.url,
		MaxIdleConns:    cfg.redis.maxIdleConns,
		MaxActiveConns:  cfg.redis.maxOpenConns,
		ConnMaxIdleTime: cfg.redis.maxIdleTime,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err := rdb.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}

	return rdb, nil
}

func newDatabasePool(cfg config) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(cfg.db.dsn)
	if err != nil {
		return nil, err
	}

	config.MaxConnIdleTime = cfg.db.maxIdleTime
	config.MaxConns = int32(cfg.db.maxOpenConns)
	config.ConnConfig.Tracer = otelpgx.NewTracer()

	db, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	err = db.Ping(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func (app *application) run() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", app.config.port),
		Handler:      app.routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelDebug),
	}

	shutdownError := make(chan error)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		s := <-quit

		app.logger.Info("shutting down server", "signal", s.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		err := srv.Shutdown(ctx)
		if err != nil {
			shutdownError <- err
		}

		shutdownError <- nil
	}()

	app.logger.Info("starting server", "addr", srv.Addr, "env", app.config.env)

	err := srv.ListenAndServe()
	if !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	err = <-shutdownError
	if err != nil {
		return err
	}

	app.logger.Info("stopped server", "addr", srv.Addr)

	return nil
}
