package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/erazemk/almoxarifado/internal/api"
	"github.com/erazemk/almoxarifado/internal/auth"
	"github.com/erazemk/almoxarifado/internal/config"
	"github.com/erazemk/almoxarifado/internal/db"
	"github.com/erazemk/almoxarifado/internal/logging"
	"github.com/erazemk/almoxarifado/internal/metrics"
	"github.com/erazemk/almoxarifado/internal/model"
	"github.com/erazemk/almoxarifado/internal/notify"
	"github.com/erazemk/almoxarifado/internal/options"
	"github.com/erazemk/almoxarifado/internal/service"
	"github.com/erazemk/almoxarifado/internal/store"
	"github.com/erazemk/almoxarifado/internal/web"
)

type flags struct {
	envFile string
	dsn     string
	addr    string
	user    string
	logPath string
}

func parseFlags(args []string) (*flags, error) {
	fs := flag.NewFlagSet("almoxarifado", flag.ContinueOnError)
	f := &flags{}

	fs.StringVar(&f.envFile, "env", ".env", "")
	fs.StringVar(&f.envFile, "e", ".env", "")

	fs.StringVar(&f.dsn, "db", "", "")
	fs.StringVar(&f.dsn, "d", "", "")

	fs.StringVar(&f.addr, "addr", "", "")
	fs.StringVar(&f.addr, "a", "", "")

	fs.StringVar(&f.user, "user", "", "")
	fs.StringVar(&f.user, "u", "", "")

	fs.StringVar(&f.logPath, "log", "", "")
	fs.StringVar(&f.logPath, "l", "", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: almoxarifado [flags]

Flags:
  -e, -env <path>         .env file to load (default: .env, ignored when missing)
  -d, -db <dsn>           database path or DSN (default: ALMOX_DB_DSN or almoxarifado.sqlite3)
  -a, -addr <host:port>   listen address (default: ALMOX_ADDR or :8080)
  -u, -user <name>        admin username on first run (default: ALMOX_ADMIN_USER or admin)
  -l, -log <path>         log file path (default: ALMOX_LOG_FILE, stdout/stderr only)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		return nil, errors.New("unexpected arguments")
	}
	return f, nil
}

// apply overrides the configuration with the flags that were set.
func (f *flags) apply(cfg *config.Config) {
	if f.dsn != "" {
		cfg.Database.DSN = f.dsn
	}
	if f.addr != "" {
		cfg.Server.Addr = f.addr
	}
	if f.user != "" {
		cfg.Auth.AdminUser = f.user
	}
	if f.logPath != "" {
		cfg.Log.File = f.logPath
	}
}

func main() {
	f, err := parseFlags(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := config.Load(f.envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	f.apply(cfg)
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := logging.Setup(logging.Config{Env: cfg.Server.Env, Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	if err := run(cfg); err != nil {
		slog.Error("server failed", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	opts, err := options.Load(cfg.OptionsFile)
	if err != nil {
		return err
	}

	database, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Ensure schema exists (idempotent).
	if err := db.EnsureSchema(database); err != nil {
		return fmt.Errorf("ensuring database schema: %w", err)
	}
	slog.Info("database ready", "driver", database.Dialect, "timezone", loc.String())

	m := metrics.New(cfg.Metrics.Prefix)
	st := store.New(database, store.Config{
		Location:           loc,
		AllowNegativeStock: cfg.Stock.AllowNegative,
		KeepUnstockedLog:   cfg.Stock.KeepUnstockedLog,
		Metrics:            m,
	})

	ctx := context.Background()
	verifier, err := newVerifier(ctx, cfg, st)
	if err != nil {
		return err
	}

	// Load JWT secret from database (auto-generated on first run).
	jwtSecret, err := st.SessionSecret(ctx)
	if err != nil {
		return fmt.Errorf("loading session secret: %w", err)
	}

	mailer := notify.NewMailer(notify.SMTPConfig{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
		Timeout:  cfg.SMTP.Timeout,
	})
	if cfg.SMTP.Host == "" {
		slog.Warn("SMTP_HOST not set, coordinator e-mails are disabled")
	}
	svc := service.New(st, opts, &notify.Dispatcher{
		Mailer:   mailer,
		Footer:   opts.Footer,
		Location: loc,
		Metrics:  m,
	})

	apiRouter := api.NewRouter(svc, verifier, jwtSecret, m)
	webRouter, err := web.NewRouter(svc, verifier, jwtSecret, m)
	if err != nil {
		return fmt.Errorf("setting up web router: %w", err)
	}

	// API routes take priority, web routes handle the rest.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", m.Handler())
	r.Handle("/api/*", apiRouter)
	r.Handle("/*", webRouter)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server started", "addr", cfg.Server.Addr, "env", cfg.Server.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listening: %w", err)
		}
	case <-sigCtx.Done():
		slog.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

// newVerifier picks the credential check for the configured auth mode. In
// users mode an empty user table gets an admin account with a generated
// password.
func newVerifier(ctx context.Context, cfg *config.Config, st *store.Store) (auth.Verifier, error) {
	if cfg.Auth.Mode == config.AuthStatic {
		slog.Info("using static credentials", "user", cfg.Auth.User)
		return &auth.StaticVerifier{Username: cfg.Auth.User, Hash: cfg.Auth.Hash, Role: model.RoleAdmin}, nil
	}

	n, err := st.CountUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("counting users: %w", err)
	}
	if n == 0 {
		password, err := auth.GeneratePassword()
		if err != nil {
			return nil, err
		}
		hash, err := auth.HashPassword(password)
		if err != nil {
			return nil, err
		}
		if _, err := st.CreateUser(ctx, cfg.Auth.AdminUser, hash, model.RoleAdmin); err != nil {
			return nil, fmt.Errorf("creating admin user: %w", err)
		}
		printInitResult(cfg.Auth.AdminUser, password)
	}
	return &auth.StoreVerifier{Users: st}, nil
}

// printInitResult prints the first-run admin account to stdout.
func printInitResult(username, password string) {
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password, it cannot be recovered.")
	fmt.Println("It can be changed after logging in.")
	fmt.Println()
}
