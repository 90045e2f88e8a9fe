package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/diamond-plays/internal/platform/logging"
	"github.com/riskibarqy/diamond-plays/internal/platform/resilience"
	"gopkg.in/yaml.v3"
)

const (
	CredentialBackendMemory = "memory"
	CredentialBackendRedis  = "redis"
)

// Config stores runtime configuration for the pick client and the local backend.
type Config struct {
	AppEnv         string `validate:"required"`
	ServiceName    string `validate:"required"`
	ServiceVersion string
	LogLevel       logging.Level

	APIBaseURL    string        `validate:"required,url"`
	APITimeout    time.Duration `validate:"gt=0"`
	APIMaxRetries int           `validate:"gte=0,lte=5"`
	APIRateLimit  float64       `validate:"gte=0"`
	APIRateBurst  int           `validate:"gte=1"`
	APICircuit    resilience.CircuitBreakerConfig

	PlayerFetchTimeout time.Duration `validate:"gt=0"`
	FetchThrottle      time.Duration `validate:"gt=0"`
	PollInterval       time.Duration `validate:"gte=1s"`
	SyncWorkers        int           `validate:"gte=1,lte=64"`
	Timezone           string
	Location           *time.Location

	CredentialBackend string `validate:"oneof=memory redis"`
	RedisURL          string `validate:"required_if=CredentialBackend redis"`
	CredentialTTL     time.Duration

	FakeAPIAddr        string `validate:"required"`
	FakeAPILatency     time.Duration
	CORSAllowedOrigins []string

	UptraceEnabled bool
	UptraceDSN     string `validate:"required_if=UptraceEnabled true"`
}

// fileConfig is the optional YAML file named by CONFIG_FILE. Its values sit
// between the built-in defaults and the environment.
type fileConfig struct {
	AppEnv      string `yaml:"app_env"`
	LogLevel    string `yaml:"log_level"`
	ServiceName string `yaml:"service_name"`
	PickAPI     struct {
		BaseURL    string                           `yaml:"base_url"`
		Timeout    time.Duration                    `yaml:"timeout"`
		MaxRetries *int                             `yaml:"max_retries"`
		RateLimit  *float64                         `yaml:"rate_limit"`
		RateBurst  int                              `yaml:"rate_burst"`
		Circuit    *resilience.CircuitBreakerConfig `yaml:"circuit"`
	} `yaml:"pick_api"`
	Cache struct {
		PlayerFetchTimeout time.Duration `yaml:"player_fetch_timeout"`
		FetchThrottle      time.Duration `yaml:"fetch_throttle"`
		PollInterval       time.Duration `yaml:"poll_interval"`
		SyncWorkers        int           `yaml:"sync_workers"`
		Timezone           string        `yaml:"timezone"`
	} `yaml:"cache"`
	Credentials struct {
		Backend  string        `yaml:"backend"`
		RedisURL string        `yaml:"redis_url"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"credentials"`
	FakeAPI struct {
		Addr               string        `yaml:"addr"`
		Latency            time.Duration `yaml:"latency"`
		CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	} `yaml:"fakeapi"`
	Uptrace struct {
		Enabled bool   `yaml:"enabled"`
		DSN     string `yaml:"dsn"`
	} `yaml:"uptrace"`
}

func defaults() Config {
	return Config{
		AppEnv:             EnvDev,
		ServiceName:        "diamond-plays",
		ServiceVersion:     "dev",
		LogLevel:           logging.LevelInfo,
		APIBaseURL:         "http://localhost:8080",
		APITimeout:         20 * time.Second,
		APIMaxRetries:      1,
		APIRateBurst:       1,
		APICircuit:         resilience.DefaultCircuitBreakerConfig(),
		PlayerFetchTimeout: 10 * time.Second,
		FetchThrottle:      5 * time.Second,
		PollInterval:       120 * time.Second,
		SyncWorkers:        8,
		CredentialBackend:  CredentialBackendMemory,
		FakeAPIAddr:        ":8080",
		CORSAllowedOrigins: []string{"*"},
	}
}

func Load() (Config, error) {
	cfg := defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		return Config{}, err
	}
	cfg.Location = loc

	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func applyFile(cfg *Config, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read CONFIG_FILE: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("parse CONFIG_FILE %s: %w", path, err)
	}

	setString(&cfg.AppEnv, file.AppEnv)
	if file.LogLevel != "" {
		cfg.LogLevel = logging.ParseLevel(file.LogLevel)
	}
	setString(&cfg.ServiceName, file.ServiceName)

	setString(&cfg.APIBaseURL, file.PickAPI.BaseURL)
	setDuration(&cfg.APITimeout, file.PickAPI.Timeout)
	if file.PickAPI.MaxRetries != nil {
		cfg.APIMaxRetries = *file.PickAPI.MaxRetries
	}
	if file.PickAPI.RateLimit != nil {
		cfg.APIRateLimit = *file.PickAPI.RateLimit
	}
	setInt(&cfg.APIRateBurst, file.PickAPI.RateBurst)
	if file.PickAPI.Circuit != nil {
		cfg.APICircuit = *file.PickAPI.Circuit
	}

	setDuration(&cfg.PlayerFetchTimeout, file.Cache.PlayerFetchTimeout)
	setDuration(&cfg.FetchThrottle, file.Cache.FetchThrottle)
	setDuration(&cfg.PollInterval, file.Cache.PollInterval)
	setInt(&cfg.SyncWorkers, file.Cache.SyncWorkers)
	setString(&cfg.Timezone, file.Cache.Timezone)

	setString(&cfg.CredentialBackend, file.Credentials.Backend)
	setString(&cfg.RedisURL, file.Credentials.RedisURL)
	setDuration(&cfg.CredentialTTL, file.Credentials.TTL)

	setString(&cfg.FakeAPIAddr, file.FakeAPI.Addr)
	setDuration(&cfg.FakeAPILatency, file.FakeAPI.Latency)
	if len(file.FakeAPI.CORSAllowedOrigins) > 0 {
		cfg.CORSAllowedOrigins = file.FakeAPI.CORSAllowedOrigins
	}

	cfg.UptraceEnabled = cfg.UptraceEnabled || file.Uptrace.Enabled
	setString(&cfg.UptraceDSN, file.Uptrace.DSN)
	return nil
}

func applyEnv(cfg *Config) error {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", cfg.AppEnv))
	if err != nil {
		return err
	}
	cfg.AppEnv = appEnv
	if v := os.Getenv("APP_LOG_LEVEL"); strings.TrimSpace(v) != "" {
		cfg.LogLevel = logging.ParseLevel(v)
	}
	cfg.ServiceName = strings.TrimSpace(getEnv("SERVICE_NAME", cfg.ServiceName))
	cfg.ServiceVersion = strings.TrimSpace(getEnv("SERVICE_VERSION", cfg.ServiceVersion))

	cfg.APIBaseURL = strings.TrimSpace(getEnv("PICK_API_BASE_URL", cfg.APIBaseURL))
	if cfg.APITimeout, err = getEnvAsDuration("PICK_API_TIMEOUT", cfg.APITimeout); err != nil {
		return err
	}
	if cfg.APIMaxRetries, err = getEnvAsInt("PICK_API_MAX_RETRIES", cfg.APIMaxRetries); err != nil {
		return fmt.Errorf("parse PICK_API_MAX_RETRIES: %w", err)
	}
	if cfg.APIRateLimit, err = getEnvAsFloat("PICK_API_RATE_LIMIT", cfg.APIRateLimit); err != nil {
		return fmt.Errorf("parse PICK_API_RATE_LIMIT: %w", err)
	}
	if cfg.APIRateBurst, err = getEnvAsInt("PICK_API_RATE_BURST", cfg.APIRateBurst); err != nil {
		return fmt.Errorf("parse PICK_API_RATE_BURST: %w", err)
	}
	if cfg.APICircuit.Enabled, err = strconv.ParseBool(getEnv("PICK_API_CIRCUIT_ENABLED", strconv.FormatBool(cfg.APICircuit.Enabled))); err != nil {
		return fmt.Errorf("parse PICK_API_CIRCUIT_ENABLED: %w", err)
	}
	if cfg.APICircuit.FailureThreshold, err = getEnvAsInt("PICK_API_CIRCUIT_FAILURE_COUNT", cfg.APICircuit.FailureThreshold); err != nil {
		return fmt.Errorf("parse PICK_API_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if cfg.APICircuit.OpenTimeout, err = getEnvAsDuration("PICK_API_CIRCUIT_OPEN_TIMEOUT", cfg.APICircuit.OpenTimeout); err != nil {
		return err
	}
	if cfg.APICircuit.HalfOpenMaxReq, err = getEnvAsInt("PICK_API_CIRCUIT_HALF_OPEN_MAX_REQ", cfg.APICircuit.HalfOpenMaxReq); err != nil {
		return fmt.Errorf("parse PICK_API_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}

	if cfg.PlayerFetchTimeout, err = getEnvAsDuration("PLAYER_FETCH_TIMEOUT", cfg.PlayerFetchTimeout); err != nil {
		return err
	}
	if cfg.FetchThrottle, err = getEnvAsDuration("FETCH_THROTTLE", cfg.FetchThrottle); err != nil {
		return err
	}
	if cfg.PollInterval, err = getEnvAsDuration("POLL_INTERVAL", cfg.PollInterval); err != nil {
		return err
	}
	if cfg.SyncWorkers, err = getEnvAsInt("SYNC_WORKERS", cfg.SyncWorkers); err != nil {
		return fmt.Errorf("parse SYNC_WORKERS: %w", err)
	}
	cfg.Timezone = strings.TrimSpace(getEnv("TIMEZONE", cfg.Timezone))

	cfg.CredentialBackend = strings.ToLower(strings.TrimSpace(getEnv("CREDENTIAL_BACKEND", cfg.CredentialBackend)))
	cfg.RedisURL = strings.TrimSpace(getEnv("REDIS_URL", cfg.RedisURL))
	if cfg.CredentialTTL, err = getEnvAsDuration("CREDENTIAL_TTL", cfg.CredentialTTL); err != nil {
		return err
	}

	cfg.FakeAPIAddr = strings.TrimSpace(getEnv("FAKEAPI_ADDR", cfg.FakeAPIAddr))
	if cfg.FakeAPILatency, err = getEnvAsDuration("FAKEAPI_LATENCY", cfg.FakeAPILatency); err != nil {
		return err
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); strings.TrimSpace(v) != "" {
		cfg.CORSAllowedOrigins = splitCSV(v)
	}

	if cfg.UptraceEnabled, err = strconv.ParseBool(getEnv("UPTRACE_ENABLED", strconv.FormatBool(cfg.UptraceEnabled))); err != nil {
		return fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	cfg.UptraceDSN = strings.TrimSpace(getEnv("UPTRACE_DSN", cfg.UptraceDSN))
	if cfg.UptraceDSN == "" {
		cfg.UptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	return nil
}

// loadLocation resolves the zone used for calendar dates. Empty means the
// process local zone.
func loadLocation(name string) (*time.Location, error) {
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("parse TIMEZONE %q: %w", name, err)
	}
	return loc, nil
}

func setString(dst *string, v string) {
	if strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}

	return out, nil
}

func getEnvAsFloat(key string, fallback float64) (float64, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(value, 64)
}

func getEnvAsDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}

	out, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item == "" {
			continue
		}
		out = append(out, item)
	}

	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	items := strings.Split(raw, ",")
	for _, item := range items {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			value := strings.TrimSpace(parts[1])
			return strings.Trim(value, "\"'")
		}
	}

	return ""
}

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}
