package app

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/okalli/checkout-service/internal/checkout"
	"github.com/okalli/checkout-service/internal/ledger"
	"github.com/okalli/checkout-service/internal/mailer"
	"github.com/okalli/checkout-service/internal/payable"
	"github.com/okalli/checkout-service/internal/repository"
)

// RunSweep wires and runs one sweep pass: requeue stale claims, charge the
// due instalments, and optionally refresh stored card expiry dates. It is
// a one-shot process intended for cron; concurrent runs are safe.
func RunSweep() error {
	var cfg config
	var staleAfter time.Duration
	var refreshExpiry bool

	flag.StringVar(&cfg.db.dsn, "db-dsn", "", "PostgreSQL DSN")
	flag.IntVar(&cfg.db.maxOpenConns, "db-max-open-conns", 25, "PostgreSQL max open connections")
	flag.DurationVar(&cfg.db.maxIdleTime, "db-max-idle-time", 15*time.Minute, "PostgreSQL max idle time for connections")

	flag.StringVar(&cfg.smtp.host, "smtp-host", "sandbox.smtp.mailtrap.io", "SMTP host")
	flag.IntVar(&cfg.smtp.port, "smtp-port", 2525, "SMTP port")
	flag.StringVar(&cfg.smtp.username, "smtp-username", "", "SMTP username")
	flag.StringVar(&cfg.smtp.password, "smtp-password", "", "SMTP password")
	flag.StringVar(&cfg.smtp.sender, "smtp-sender", "Checkout <no-reply@checkout.okalli.net>", "SMTP sender")

	flag.StringVar(&cfg.stripe.secretKey, "stripe-key", "", "Stripe secret key")

	flag.StringVar(&cfg.checkout.currency, "currency", "GBP", "ISO currency code for charges")
	flag.StringVar(&cfg.checkout.notifyEmails, "notify-emails", "", "Comma-separated addresses notified of checkout outcomes")

	flag.DurationVar(&staleAfter, "sweep-stale-after", time.Hour, "Age at which a claimed instalment is considered stale and requeued")
	flag.BoolVar(&refreshExpiry, "refresh-card-expiry", false, "Also refresh card expiry dates for outstanding payment plans")

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

	customerRepo := repository.NewPostgresCustomerRepository(db)
	checkoutRepo := repository.NewPostgresCheckoutRepository(db)
	planRepo := repository.NewPostgresPaymentPlanRepository(db)
	payablePlanRepo := repository.NewPostgresPayablePlanRepository(db)
	instalmentRepo := repository.NewPostgresInstalmentRepository(db)
	ledgerRepo := repository.NewPostgresLedgerRepository(db)

	registry := payable.NewRegistry()
	ledger.Register(registry, ledgerRepo)

	service := checkout.NewService(checkout.ServiceConfig{
		Logger:       logger,
		Tx:           repository.NewTxManager(db),
		Customers:    customerRepo,
		Checkouts:    checkoutRepo,
		Plans:        planRepo,
		PayablePlans: payablePlanRepo,
		Instalments:  instalmentRepo,
		Gateway:      newGateway(cfg, logger),
		Mailer:       mailer.NewSMTPMailer(cfg.smtp.host, cfg.smtp.port, cfg.smtp.username, cfg.smtp.password, cfg.smtp.sender),
		Registry:     registry,
		Currency:     cfg.checkout.currency,
		NotifyEmails: splitEmails(cfg.checkout.notifyEmails),
	})
	service.RegisterInstalmentPayable(registry)

	ctx := context.Background()

	sweeper := checkout.NewSweeper(logger, service, instalmentRepo, staleAfter)
	if err := sweeper.Sweep(ctx); err != nil {
		return err
	}

	if refreshExpiry {
		if err := service.RefreshCardExpiryDates(ctx); err != nil {
			return err
		}
	}

	return nil
}
