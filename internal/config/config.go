// Package config loads service settings from environment variables, plus an
// optional YAML source catalogue.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrInvalidTimezone        = errors.New("LOCAL_TZ is not a valid IANA zone")
	ErrInvalidLogLevel        = errors.New("LOG_LEVEL must be one of: debug, info, warn, error")
	ErrInvalidLogFormat       = errors.New("LOG_FORMAT must be 'json' or 'text'")
	ErrInvalidShutdownTimeout = errors.New("invalid SHUTDOWN_TIMEOUT")
	ErrInvalidRunInterval     = errors.New("invalid RUN_INTERVAL")
	ErrInvalidFetchTimeout    = errors.New("invalid FETCH_TIMEOUT")
	ErrInvalidSince           = errors.New("SINCE must be an ISO date (YYYY-MM-DD)")
	ErrInvalidUntil           = errors.New("UNTIL must be an ISO date (YYYY-MM-DD) or 'today'")
	ErrUntilBeforeSince       = errors.New("UNTIL date must be on or after SINCE date")
	ErrNoEnabledSources       = errors.New("at least one source must be enabled")
)

// SourceSpec describes one extraction connector from the source catalogue.
type SourceSpec struct {
	Name    string `yaml:"name"`
	Kind    string `yaml:"kind"` // "arcgis" or "monitorar"
	URL     string `yaml:"url"`
	Agency  string `yaml:"agency"`
	License string `yaml:"license"`
	Enabled bool   `yaml:"enabled"`
}

// Config holds all service settings.
type Config struct {
	BronzeDir    string
	SilverDir    string
	ExportDir    string
	CacheDir     string
	ArtifactsDir string

	LocalTimezone string
	Location      *time.Location

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// RunInterval of zero means run the pipeline once and exit.
	RunInterval time.Duration

	Since        time.Time
	Until        time.Time
	FetchTimeout time.Duration

	Sources []SourceSpec

	// Optional sinks, enabled by presence of their endpoints.
	KafkaBrokers []string
	KafkaTopic   string
	KafkaEnabled bool

	DatabaseURL     string
	PostgresEnabled bool
}

// Load reads configuration from environment variables, applying defaults
// where unset, and the source catalogue from SOURCES_FILE when given.
func Load() (*Config, error) {
	tzName := envOrDefault("LOCAL_TZ", "America/Sao_Paulo")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidTimezone, tzName)
	}

	logLevel := strings.ToLower(envOrDefault("LOG_LEVEL", "info"))
	switch logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, ErrInvalidLogLevel
	}

	logFormat := strings.ToLower(envOrDefault("LOG_FORMAT", "json"))
	if logFormat != "json" && logFormat != "text" {
		return nil, ErrInvalidLogFormat
	}

	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s", ErrInvalidShutdownTimeout)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDurationEnv("FETCH_TIMEOUT", "20s", ErrInvalidFetchTimeout)
	if err != nil {
		return nil, err
	}

	runInterval := time.Duration(0)
	if s := os.Getenv("RUN_INTERVAL"); s != "" {
		runInterval, err = time.ParseDuration(s)
		if err != nil || runInterval < 0 {
			return nil, ErrInvalidRunInterval
		}
	}

	since, until, err := parseWindow(loc)
	if err != nil {
		return nil, err
	}

	sources, err := loadSources(os.Getenv("SOURCES_FILE"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		BronzeDir:       envOrDefault("BRONZE_DIR", "data/bronze"),
		SilverDir:       envOrDefault("SILVER_DIR", "data/silver"),
		ExportDir:       envOrDefault("EXPORT_DIR", "data/export"),
		CacheDir:        envOrDefault("CACHE_DIR", "artifacts/cache"),
		ArtifactsDir:    envOrDefault("ARTIFACTS_DIR", "artifacts"),
		LocalTimezone:   tzName,
		Location:        loc,
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        logLevel,
		LogFormat:       logFormat,
		ShutdownTimeout: shutdownTimeout,
		RunInterval:     runInterval,
		Since:           since,
		Until:           until,
		FetchTimeout:    fetchTimeout,
		Sources:         sources,
		KafkaTopic:      envOrDefault("KAFKA_TOPIC", "air-quality-silver"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
	}

	// KAFKA_TOPIC always carries its default, so enabling the sink only
	// requires brokers.
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
		cfg.KafkaEnabled = true
	}
	cfg.PostgresEnabled = cfg.DatabaseURL != ""

	return cfg, nil
}

// DefaultSources is the built-in catalogue used when no SOURCES_FILE is set:
// the IBRAM ArcGIS station layer and the MMA MonitorAr panel.
func DefaultSources() []SourceSpec {
	return []SourceSpec{
		{
			Name:    "arcgis_stations",
			Kind:    "arcgis",
			URL:     "https://onda.ibram.df.gov.br/server/rest/services/Hosted/Esta%C3%A7%C3%B5es_de_monitoramento_da_qualidade_do_ar_estabelecidas_por_licenciamento_ambiental/FeatureServer/0/query",
			Agency:  "IBRAM",
			Enabled: true,
		},
		{
			Name:    "monitorar",
			Kind:    "monitorar",
			URL:     "https://monitorar.mma.gov.br/painel",
			Agency:  "MMA",
			Enabled: true,
		},
	}
}

func loadSources(path string) ([]SourceSpec, error) {
	if path == "" {
		return DefaultSources(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}
	var catalogue struct {
		Sources []SourceSpec `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &catalogue); err != nil {
		return nil, fmt.Errorf("parse sources file: %w", err)
	}
	enabled := 0
	for _, s := range catalogue.Sources {
		if s.Enabled {
			enabled++
		}
	}
	if enabled == 0 {
		return nil, ErrNoEnabledSources
	}
	return catalogue.Sources, nil
}

// parseWindow reads the SINCE/UNTIL extraction window. UNTIL accepts the
// special value "today", resolved in the local zone.
func parseWindow(loc *time.Location) (time.Time, time.Time, error) {
	since, err := time.ParseInLocation("2006-01-02", envOrDefault("SINCE", "2020-01-01"), loc)
	if err != nil {
		return time.Time{}, time.Time{}, ErrInvalidSince
	}

	untilRaw := envOrDefault("UNTIL", "today")
	var until time.Time
	if strings.EqualFold(untilRaw, "today") {
		now := time.Now().In(loc)
		until = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	} else {
		until, err = time.ParseInLocation("2006-01-02", untilRaw, loc)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidUntil
		}
	}
	if until.Before(since) {
		return time.Time{}, time.Time{}, ErrUntilBeforeSince
	}
	return since, until, nil
}

func parseDurationEnv(key, fallback string, invalid error) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, invalid
	}
	return d, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
