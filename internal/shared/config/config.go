package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.uber.org/multierr"
)

const (
	defaultPort            = 3000
	defaultDBPort          = 5432
	defaultShutdownTimeout = 10 * time.Second
)

// Config holds application configuration.
type Config struct {
	Port            int    `env:"PORT" validate:"min=1,max=65535"`
	Env             string `env:"ENV"`
	StrictMethods   bool   `env:"API_STRICT_METHODS"`
	ShutdownTimeout time.Duration
	DB              DBConfig
}

// DBConfig holds the PostgreSQL connection parameters.
type DBConfig struct {
	Host     string `env:"DB_HOST" validate:"required"`
	Port     int    `env:"DB_PORT" validate:"min=1,max=65535"`
	User     string `env:"DB_USER" validate:"required"`
	Password string `env:"DB_PASSWORD" validate:"required"`
	Name     string `env:"DB_NAME" validate:"required"`
	SSLMode  string `env:"DB_SSLMODE" validate:"oneof=disable allow prefer require verify-ca verify-full"`
}

// Load reads configuration from environment variables and validates it.
// A .env file in the working directory is applied first without overriding
// variables that are already set.
func Load() (Config, error) {
	loadEnvFiles(".env", "cmd/.env")

	var errs error
	port, err := getEnvInt("PORT", defaultPort)
	errs = multierr.Append(errs, err)
	dbPort, err := getEnvInt("DB_PORT", defaultDBPort)
	errs = multierr.Append(errs, err)
	strict, err := getEnvBool("API_STRICT_METHODS", false)
	errs = multierr.Append(errs, err)
	shutdown, err := getEnvDuration("SHUTDOWN_TIMEOUT", defaultShutdownTimeout)
	errs = multierr.Append(errs, err)
	if errs != nil {
		return Config{}, fmt.Errorf("config: %w", errs)
	}

	cfg := Config{
		Port:            port,
		Env:             normalizeEnv(getEnv("ENV", "dev")),
		StrictMethods:   strict,
		ShutdownTimeout: shutdown,
		DB: DBConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     dbPort,
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
			SSLMode:  strings.ToLower(getEnv("DB_SSLMODE", "disable")),
		},
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every missing or malformed field by its env var name.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}

	var missing, invalid []string
	for _, fe := range verrs {
		if fe.Tag() == "required" {
			missing = append(missing, fe.Field())
			continue
		}
		invalid = append(invalid, fmt.Sprintf("%s=%v", fe.Field(), fe.Value()))
	}

	var errs error
	if len(missing) > 0 {
		errs = multierr.Append(errs, fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", ")))
	}
	if len(invalid) > 0 {
		errs = multierr.Append(errs, fmt.Errorf("invalid env values: %s", strings.Join(invalid, ", ")))
	}
	return fmt.Errorf("config: %w", errs)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("env"); name != "" {
			return name
		}
		return fld.Name
	})
	return v
}

// loadEnvFiles applies KEY=VALUE files for local development. Missing files
// are skipped.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		_ = godotenv.Load(path)
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return val, nil
}

func getEnvBool(key string, def bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, raw)
	}
	return val, nil
}

func getEnvDuration(key string, def time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def, nil
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration, got %q", key, raw)
	}
	return val, nil
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

// IsDevLike reports whether env is a local development environment.
func IsDevLike(env string) bool {
	switch env {
	case "dev", "local":
		return true
	default:
		return false
	}
}
