package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/volleyball-dashboard/internal/platform/logging"
	"github.com/robfig/cron/v3"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string
	ServiceName        string
	ServiceVersion     string
	HTTPAddr           string
	CORSAllowedOrigins []string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	LogLevel           logging.Level
	DefaultLeagueID    string

	PprofEnabled bool
	PprofAddr    string

	UptraceEnabled     bool
	UptraceDSN         string
	UptraceLogsEnabled bool

	PyroscopeEnabled           bool
	PyroscopeServerAddress     string
	PyroscopeAppName           string
	PyroscopeAuthToken         string
	PyroscopeBasicAuthUser     string
	PyroscopeBasicAuthPassword string
	PyroscopeUploadRate        time.Duration

	SportDBBaseURL               string
	SportDBAPIKey                string
	SportDBUserAgent             string
	SportDBTimeout               time.Duration
	SportDBMaxRetries            int
	SportDBCircuitEnabled        bool
	SportDBCircuitFailureCount   int
	SportDBCircuitOpenTimeout    time.Duration
	SportDBCircuitHalfOpenMaxReq int

	CacheStandingsTTL time.Duration
	CacheUpcomingTTL  time.Duration
	CachePreviousTTL  time.Duration
	CacheActiveTTL    time.Duration
	CacheDefaultTTL   time.Duration

	WeeklyRefreshEnabled    bool
	WeeklyRefreshSchedule   string
	WeeklyRefreshRetryDelay time.Duration
	WeeklyRefreshWorkers    int
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}
	if uptraceEnabled && uptraceDSN == "" {
		return Config{}, fmt.Errorf("UPTRACE_DSN is required when UPTRACE_ENABLED=true")
	}
	uptraceLogsEnabled, err := strconv.ParseBool(getEnv("UPTRACE_LOGS_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_LOGS_ENABLED: %w", err)
	}

	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}
	pprofAddr := strings.TrimSpace(getEnv("PPROF_ADDR", ":6060"))

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	pyroscopeServerAddress := strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", ""))
	if pyroscopeEnabled && pyroscopeServerAddress == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_SERVER_ADDRESS is required when PYROSCOPE_ENABLED=true")
	}
	pyroscopeUploadRate, err := getEnvAsPositiveDuration("PYROSCOPE_UPLOAD_RATE", "15s")
	if err != nil {
		return Config{}, err
	}

	sportDBAPIKey := strings.TrimSpace(getEnv("SPORTDB_API_KEY", ""))
	if appEnv == EnvProd && sportDBAPIKey == "" {
		return Config{}, fmt.Errorf("SPORTDB_API_KEY is required when APP_ENV=%s", EnvProd)
	}
	sportDBTimeout, err := getEnvAsPositiveDuration("SPORTDB_TIMEOUT", "30s")
	if err != nil {
		return Config{}, err
	}
	sportDBMaxRetries, err := getEnvAsInt("SPORTDB_MAX_RETRIES", 0)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTDB_MAX_RETRIES: %w", err)
	}
	if sportDBMaxRetries < 0 {
		return Config{}, fmt.Errorf("SPORTDB_MAX_RETRIES must be >= 0")
	}
	sportDBCircuitEnabled, err := strconv.ParseBool(getEnv("SPORTDB_CIRCUIT_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTDB_CIRCUIT_ENABLED: %w", err)
	}
	sportDBCircuitFailureCount, err := getEnvAsInt("SPORTDB_CIRCUIT_FAILURE_COUNT", 5)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTDB_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if sportDBCircuitFailureCount < 1 {
		return Config{}, fmt.Errorf("SPORTDB_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	sportDBCircuitOpenTimeout, err := getEnvAsPositiveDuration("SPORTDB_CIRCUIT_OPEN_TIMEOUT", "30s")
	if err != nil {
		return Config{}, err
	}
	sportDBCircuitHalfOpenMaxReq, err := getEnvAsInt("SPORTDB_CIRCUIT_HALF_OPEN_MAX_REQ", 1)
	if err != nil {
		return Config{}, fmt.Errorf("parse SPORTDB_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if sportDBCircuitHalfOpenMaxReq < 1 {
		return Config{}, fmt.Errorf("SPORTDB_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	standingsTTL, err := getEnvAsPositiveDuration("CACHE_STANDINGS_TTL", "60m")
	if err != nil {
		return Config{}, err
	}
	upcomingTTL, err := getEnvAsPositiveDuration("CACHE_UPCOMING_TTL", "168h")
	if err != nil {
		return Config{}, err
	}
	previousTTL, err := getEnvAsPositiveDuration("CACHE_PREVIOUS_TTL", "168h")
	if err != nil {
		return Config{}, err
	}
	activeTTL, err := getEnvAsPositiveDuration("CACHE_ACTIVE_TTL", "5m")
	if err != nil {
		return Config{}, err
	}
	defaultTTL, err := getEnvAsPositiveDuration("CACHE_DEFAULT_TTL", "30m")
	if err != nil {
		return Config{}, err
	}

	weeklyRefreshEnabled, err := strconv.ParseBool(getEnv("WEEKLY_REFRESH_ENABLED", "true"))
	if err != nil {
		return Config{}, fmt.Errorf("parse WEEKLY_REFRESH_ENABLED: %w", err)
	}
	weeklyRefreshSchedule := strings.TrimSpace(getEnv("WEEKLY_REFRESH_SCHEDULE", "0 6 * * 1"))
	if _, err := cron.ParseStandard(weeklyRefreshSchedule); err != nil {
		return Config{}, fmt.Errorf("parse WEEKLY_REFRESH_SCHEDULE: %w", err)
	}
	weeklyRefreshRetryDelay, err := getEnvAsPositiveDuration("WEEKLY_REFRESH_RETRY_DELAY", "5m")
	if err != nil {
		return Config{}, err
	}
	weeklyRefreshWorkers, err := getEnvAsInt("WEEKLY_REFRESH_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse WEEKLY_REFRESH_WORKERS: %w", err)
	}
	if weeklyRefreshWorkers < 1 {
		return Config{}, fmt.Errorf("WEEKLY_REFRESH_WORKERS must be >= 1")
	}

	readTimeout, err := getEnvAsPositiveDuration("APP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsPositiveDuration("APP_WRITE_TIMEOUT", "15s")
	if err != nil {
		return Config{}, err
	}
	shutdownTimeout, err := getEnvAsPositiveDuration("APP_SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		AppEnv:                       appEnv,
		ServiceName:                  getEnv("APP_SERVICE_NAME", "volleyball-dashboard-api"),
		ServiceVersion:               getEnv("APP_SERVICE_VERSION", "dev"),
		HTTPAddr:                     getEnv("APP_HTTP_ADDR", ":8080"),
		CORSAllowedOrigins:           splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		ReadTimeout:                  readTimeout,
		WriteTimeout:                 writeTimeout,
		ShutdownTimeout:              shutdownTimeout,
		LogLevel:                     logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		DefaultLeagueID:              strings.ToLower(strings.TrimSpace(getEnv("DEFAULT_LEAGUE_ID", "plusliga"))),
		PprofEnabled:                 pprofEnabled,
		PprofAddr:                    pprofAddr,
		UptraceEnabled:               uptraceEnabled,
		UptraceDSN:                   uptraceDSN,
		UptraceLogsEnabled:           uptraceLogsEnabled,
		PyroscopeEnabled:             pyroscopeEnabled,
		PyroscopeServerAddress:       pyroscopeServerAddress,
		PyroscopeAuthToken:           strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PyroscopeBasicAuthUser:       strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_USER", "")),
		PyroscopeBasicAuthPassword:   strings.TrimSpace(getEnv("PYROSCOPE_BASIC_AUTH_PASSWORD", "")),
		PyroscopeUploadRate:          pyroscopeUploadRate,
		SportDBBaseURL:               strings.TrimSpace(getEnv("SPORTDB_BASE_URL", "https://api.sportdb.dev")),
		SportDBAPIKey:                sportDBAPIKey,
		SportDBUserAgent:             strings.TrimSpace(getEnv("SPORTDB_USER_AGENT", "VolleyballDashboard/1.0")),
		SportDBTimeout:               sportDBTimeout,
		SportDBMaxRetries:            sportDBMaxRetries,
		SportDBCircuitEnabled:        sportDBCircuitEnabled,
		SportDBCircuitFailureCount:   sportDBCircuitFailureCount,
		SportDBCircuitOpenTimeout:    sportDBCircuitOpenTimeout,
		SportDBCircuitHalfOpenMaxReq: sportDBCircuitHalfOpenMaxReq,
		CacheStandingsTTL:            standingsTTL,
		CacheUpcomingTTL:             upcomingTTL,
		CachePreviousTTL:             previousTTL,
		CacheActiveTTL:               activeTTL,
		CacheDefaultTTL:              defaultTTL,
		WeeklyRefreshEnabled:         weeklyRefreshEnabled,
		WeeklyRefreshSchedule:        weeklyRefreshSchedule,
		WeeklyRefreshRetryDelay:      weeklyRefreshRetryDelay,
		WeeklyRefreshWorkers:         weeklyRefreshWorkers,
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))
	if cfg.PyroscopeEnabled && cfg.PyroscopeAppName == "" {
		return Config{}, fmt.Errorf("PYROSCOPE_APP_NAME cannot be empty when PYROSCOPE_ENABLED=true")
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		return Config{}, fmt.Errorf("CORS_ALLOWED_ORIGINS cannot be empty")
	}
	if cfg.DefaultLeagueID == "" {
		return Config{}, fmt.Errorf("DEFAULT_LEAGUE_ID cannot be empty")
	}

	return cfg, nil
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

func getEnvAsPositiveDuration(key, fallback string) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return value, nil
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
