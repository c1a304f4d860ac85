package main

import (
	"context"
	"database/sql"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/django/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	account "github.com/keeril/go-account"
)

func main() {
	logger := newLogger()

	cfg, err := account.LoadConfig()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	repo := account.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := account.NewTokenService([]byte(cfg.GetSigningKey()), cfg.GetIssuer(), logger)
	auther := account.NewAuthenticator(repo.Users(), tokens).WithLogger(logger)

	httpAuth, err := account.NewHTTPAuthenticator(auther, cfg.CookieDuration())
	if err != nil {
		logger.Error("failed to build http authenticator", "error", err)
		os.Exit(1)
	}
	httpAuth.WithLogger(logger)

	app, err := buildApp(cfg, logger, repo, tokens, httpAuth)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}

	go func() {
		if err := app.Listen(cfg.ListenAddr); err != nil {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	logger.Info("server listening", "addr", cfg.ListenAddr)

	<-ctx.Done()

	logger.Info("shutting down")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func openDatabase(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, err
	}

	db := bun.NewDB(sqldb, sqlitedialect.New())

	if err := account.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func buildApp(
	cfg *account.Config,
	logger account.Logger,
	repo account.RepositoryManager,
	tokens account.TokenService,
	httpAuth *account.RouteAuthenticator,
) (*fiber.App, error) {
	views, err := fs.Sub(account.GetViewsFS(), "views")
	if err != nil {
		return nil, err
	}

	engine := django.NewFileSystem(http.FS(views), ".html")
	engine.Reload(cfg.Debug)

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return httpAuth.ErrorHandler(c, err)
		},
	})

	app.Use(httpAuth.CurrentUser())

	app.Get("/", func(c *fiber.Ctx) error {
		user, _ := account.FromContext(c.UserContext())
		return c.Render("index", fiber.Map{
			"user": user,
		})
	})

	group := app.Group("/account")
	account.RegisterAccountRoutes(group,
		account.WithControllerLogger(logger),
		account.WithControllerRepo(repo),
		account.WithControllerTokens(tokens),
		account.WithControllerAuther(httpAuth),
		account.WithControllerDebug(cfg.Debug),
	)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("errors/404", fiber.Map{})
	})

	return app, nil
}

func newLogger() account.Logger {
	return &slogLogger{
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
