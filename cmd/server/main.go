package main

import (
	"context"
	"database/sql"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	recoverware "github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	users "github.com/goliatone/go-users"
)

func main() {
	lgr := glog.NewLogger(
		glog.WithLoggerTypePretty(),
		glog.WithLevel(glog.Info),
		glog.WithName("go-users"),
		glog.WithAddSource(false),
		glog.WithRichErrorHandler(errors.ToSlogAttributes),
	)
	logger := lgr.GetLogger("app")

	cfg, err := users.LoadConfig()
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DatabaseDSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	if err := runMigrations(ctx, db); err != nil {
		logger.Error("migration error", "error", err)
		os.Exit(1)
	}

	repo := users.NewRepositoryManager(db)
	repo.MustValidate()

	tokens := users.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		lgr.GetLogger("tokens"),
	)

	mux := users.NewMessageMux().WithLogger(lgr.GetLogger("events"))
	mailer := users.NewUserMailer(
		users.NewLogMailer(lgr.GetLogger("mail")),
		cfg.BaseURL,
	).WithLogger(lgr.GetLogger("mail"))
	mailer.Register(mux)

	authenticator := users.NewLocalAuthenticator(repo, tokens).
		WithLogger(lgr.GetLogger("auth"))

	createUser := users.NewCreateUserHandler(repo, tokens, mux).
		WithLogger(lgr.GetLogger("users"))
	initRecovery := users.NewInitializeRecoveryHandler(repo, tokens, mux).
		WithLogger(lgr.GetLogger("recovery"))
	finalizeRecovery := users.NewFinalizeRecoveryHandler(repo, tokens).
		WithLogger(lgr.GetLogger("recovery"))

	authController := users.NewAuthController(authenticator, initRecovery, finalizeRecovery).
		WithLogger(lgr.GetLogger("http"))
	usersController := users.NewUsersController(repo, createUser, cfg.GetContextKey()).
		WithLogger(lgr.GetLogger("http"))

	guard := users.NewTokenGuard(tokens, repo.Users(), cfg.GetContextKey()).
		WithLogger(lgr.GetLogger("guard"))

	app := fiber.New(fiber.Config{
		AppName:      "go-users",
		ErrorHandler: users.NewErrorHandler(lgr.GetLogger("http")),
	})
	app.Use(requestid.New())
	app.Use(recoverware.New())
	app.Use(users.WithRequestDeadline(cfg.RequestTimeout))

	users.RegisterRoutes(app, guard, authController, usersController)

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	logger.Info("server started", "addr", cfg.HTTPAddr)
	WaitExitSignal()

	if err := app.Shutdown(); err != nil {
		logger.Error("shutdown error", "error", err)
	}
}

func runMigrations(ctx context.Context, db *bun.DB) error {
	sub, err := fs.Sub(users.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(sub); err != nil {
		return err
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}

	if _, err := migrator.Migrate(ctx); err != nil {
		return err
	}
	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
