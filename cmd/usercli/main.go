package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/mkrupp/homecase-users/internal/infra/config"
	"github.com/mkrupp/homecase-users/internal/infra/logging"
	"github.com/mkrupp/homecase-users/internal/repo/user"
	"github.com/mkrupp/homecase-users/internal/svc/usersvc"
)

const (
	appName = "users"
	svcName = "usercli"
)

type Config struct {
	config.EnvConfig

	Log  logging.LoggerConfig `envPrefix:"LOG_"`
	User user.SQLiteUserRepositoryConfig
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:]))
}

func run(ctx context.Context, args []string) int {
	var (
		cfg Config

		configPrefix = strings.ToUpper(svcName)
		loggerName   = strings.ToLower(strings.Join([]string{appName, svcName}, "."))
	)

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)

		return 1
	}

	if err := config.Parse(ctx, &cfg, configPrefix); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)

		return 1
	}

	// Results go to stdout; keep log noise away from it unless asked for.
	if !isEnvSet("LOG_OUTPUT", configPrefix+"_LOG_OUTPUT") {
		cfg.Log.Output = "discard"
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	userSvc, err := usersvc.NewUserService(user.SQLiteUserRepositoryFactory(cfg.User))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)

		return 1
	}
	defer userSvc.Close()

	return usersvc.NewCLITransport(userSvc, os.Stdout, os.Stderr).Execute(ctx, args)
}

func isEnvSet(names ...string) bool {
	for _, name := range names {
		if _, ok := os.LookupEnv(name); ok {
			return true
		}
	}

	return false
}
