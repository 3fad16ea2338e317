package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mkrupp/homecase-users/internal/infra/config"
	"github.com/mkrupp/homecase-users/internal/infra/logging"
	"github.com/mkrupp/homecase-users/internal/infra/transport/http"
	"github.com/mkrupp/homecase-users/internal/repo/user"
	"github.com/mkrupp/homecase-users/internal/svc/usersvc"
)

const (
	appName = "users"
	svcName = "usersvc"
)

type Config struct {
	config.EnvConfig

	Log  logging.LoggerConfig `envPrefix:"LOG_"`
	HTTP usersvc.HTTPTransportConfig
	User user.SQLiteUserRepositoryConfig
}

func main() {
	var (
		cfg Config

		configPrefix = strings.ToUpper(svcName)
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg); err != nil {
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd.usersvc")

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)
		} else {
			log.InfoContext(ctx, "shutdown")
		}
	}()

	userSvc, err := usersvc.NewUserService(user.SQLiteUserRepositoryFactory(cfg.User))
	if err != nil {
		return fmt.Errorf("new user service: %w", err)
	}
	defer userSvc.Close()

	httpTransport := usersvc.NewHTTPTransport(userSvc, cfg.HTTP)

	log.InfoContext(ctx, "starting", "addr", cfg.HTTP.Addr(), "db", cfg.User.DatabasePath)

	if err := http.ListenAndServe(ctx, httpTransport, cfg.HTTP.HTTPTransportConfig); err != nil {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}
