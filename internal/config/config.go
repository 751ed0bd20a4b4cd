package config

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the configuration settings for the property report service.
//
// Fields:
// - Env: The current environment (e.g., local, development, production).
// - HTTP: Settings for the public API server.
// - MonitoringPort: The port for the health and metrics server.
// - Geocoder: Geocoding provider selection and tuning.
// - Sources: Endpoints and timeout of the environmental data sources.
// - Report: Radius defaults and limits for reports.
type Config struct {
	Env            string         // Env is the current environment: local, development, production.
	HTTP           HTTPConfig     // HTTP holds the API server settings.
	MonitoringPort int            // MonitoringPort is the health/metrics server port.
	Geocoder       GeocoderConfig // Geocoder holds the geocoding provider settings.
	Sources        SourcesConfig  // Sources holds the environmental source settings.
	Report         ReportConfig   // Report holds radius defaults.
}

// HTTPConfig configures the public API server.
type HTTPConfig struct {
	Port      int
	StaticDir string
}

// GeocoderConfig configures the geocoding provider.
type GeocoderConfig struct {
	Provider  string        // Provider is google or nominatim.
	APIKey    string        // APIKey is required for Google.
	BaseURL   string        // BaseURL overrides the Nominatim endpoint.
	UserAgent string        // UserAgent is sent to Nominatim.
	RateLimit int           // RateLimit is the maximum requests per second.
	Timeout   time.Duration // Timeout bounds a single geocode call.
}

// SourcesConfig configures the environmental data sources.
type SourcesConfig struct {
	EchoURL string
	USGSURL string
	Timeout time.Duration
}

// ReportConfig configures report radius handling.
type ReportConfig struct {
	DefaultRadius float64
	MaxRadius     float64
}

// MustLoad reads configuration from an optional .env file, an optional config.yaml
// and TERRA_* environment variables. It panics when a value cannot be parsed.
func MustLoad() *Config {
	_ = godotenv.Load()

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TERRA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("env", "production")
	v.SetDefault("http.port", "8000")
	v.SetDefault("http.static_dir", "static")
	v.SetDefault("monitoring.port", "8080")
	v.SetDefault("geocoder.provider", "nominatim")
	v.SetDefault("geocoder.api_key", "")
	v.SetDefault("geocoder.base_url", "https://nominatim.openstreetmap.org/search")
	v.SetDefault("geocoder.user_agent", "")
	v.SetDefault("geocoder.rate_limit", "1")
	v.SetDefault("geocoder.timeout", "15s")
	v.SetDefault("sources.echo_url", "https://echo.epa.gov/api/rest_lookups.get_facility_info")
	v.SetDefault("sources.usgs_url", "https://waterservices.usgs.gov/nwis/site/")
	v.SetDefault("sources.timeout", "30s")
	v.SetDefault("report.default_radius", "3.0")
	v.SetDefault("report.max_radius", "50")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			panic("failed to read config file: " + err.Error())
		}
	}

	return &Config{
		Env: v.GetString("env"),
		HTTP: HTTPConfig{
			Port:      mustInt(v, "http.port", "failed to parse port for API server from configuration"),
			StaticDir: v.GetString("http.static_dir"),
		},
		MonitoringPort: mustInt(v, "monitoring.port", "failed to parse port for monitoring server from configuration"),
		Geocoder: GeocoderConfig{
			Provider:  strings.ToLower(v.GetString("geocoder.provider")),
			APIKey:    v.GetString("geocoder.api_key"),
			BaseURL:   v.GetString("geocoder.base_url"),
			UserAgent: v.GetString("geocoder.user_agent"),
			RateLimit: mustInt(v, "geocoder.rate_limit", "failed to parse geocoder rate limit, must be an integer"),
			Timeout:   mustDuration(v, "geocoder.timeout", "failed to parse geocoder timeout from configuration"),
		},
		Sources: SourcesConfig{
			EchoURL: v.GetString("sources.echo_url"),
			USGSURL: v.GetString("sources.usgs_url"),
			Timeout: mustDuration(v, "sources.timeout", "failed to parse sources timeout from configuration"),
		},
		Report: ReportConfig{
			DefaultRadius: mustFloat(v, "report.default_radius", "failed to parse default report radius"),
			MaxRadius:     mustFloat(v, "report.max_radius", "failed to parse maximum report radius"),
		},
	}
}

func mustInt(v *viper.Viper, key, msg string) int {
	value, err := strconv.Atoi(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		panic(msg)
	}

	return value
}

func mustFloat(v *viper.Viper, key, msg string) float64 {
	value, err := strconv.ParseFloat(strings.TrimSpace(v.GetString(key)), 64)
	if err != nil || value <= 0 {
		panic(msg)
	}

	return value
}

func mustDuration(v *viper.Viper, key, msg string) time.Duration {
	value, err := time.ParseDuration(strings.TrimSpace(v.GetString(key)))
	if err != nil {
		panic(msg)
	}

	return value
}
