package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"reflect"
	"strings"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// ErrInvalidConfig is returned when the provided config is not a pointer to a struct
// that embeds EnvConfig.
var ErrInvalidConfig = errors.New("config must be a pointer to a struct embedding EnvConfig")

// EnvConfig is a base type that must be embedded in configuration structs
// to enable environment variable parsing.
type EnvConfig struct {
	namespace string
}

// Namespace returns the prefix the config was parsed with.
func (c EnvConfig) Namespace() string {
	return c.namespace
}

//nolint:varnamelen
func getEnvConfig(cfg any) (*EnvConfig, error) {
	v := reflect.ValueOf(cfg)

	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, ErrInvalidConfig
	}

	v = v.Elem()
	t := v.Type()

	for i := range t.NumField() {
		field := t.Field(i)
		//nolint:exhaustruct,forcetypeassert
		if field.Anonymous && field.Type == reflect.TypeOf(EnvConfig{}) {
			if ev := v.Field(i); ev.CanAddr() {
				return ev.Addr().Interface().(*EnvConfig), nil
			}
		}
	}

	return nil, ErrInvalidConfig
}

// Parse loads configuration values from environment variables into the provided struct.
// The struct must embed EnvConfig and use `env`, `envDefault` and `envPrefix` tags.
//
// Every variable may be given bare (PORT) or under any leading part of the
// namespace (APP_PORT, APP_SERVICE_PORT for namespace APP_SERVICE). The most
// specific name that is set wins.
func Parse(ctx context.Context, cfg any, namespace string) error {
	envConfig, err := getEnvConfig(cfg)
	if err != nil {
		return fmt.Errorf("get env config: %w", err)
	}

	envConfig.namespace = namespace

	//nolint:exhaustruct
	opts := env.Options{
		Environment: resolveEnvironment(namespace, os.Environ()),
	}

	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}

// resolveEnvironment flattens namespaced variables onto their bare names,
// applying less specific prefixes first so that more specific ones override.
func resolveEnvironment(namespace string, environ []string) map[string]string {
	vars := make(map[string]string, len(environ))

	for _, kv := range environ {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}

	if namespace == "" {
		return vars
	}

	resolved := make(map[string]string, len(vars))
	for k, v := range vars {
		resolved[k] = v
	}

	nsParts := strings.Split(namespace, "_")

	for i := 1; i <= len(nsParts); i++ {
		prefix := strings.Join(nsParts[:i], "_") + "_"

		for k, v := range vars {
			if name, ok := strings.CutPrefix(k, prefix); ok && name != "" {
				resolved[name] = v
			}
		}
	}

	return resolved
}

// LoadDotEnv loads variables from the given dotenv files into the process
// environment. Missing files are skipped; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}

	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return fmt.Errorf("load %s: %w", path, err)
		}
	}

	return nil
}
