package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server       ServerConfig
	FarmCalendar FarmCalendarConfig
	Geocoder     GeocoderConfig
	Imagery      ImageryConfig
	Artifacts    ArtifactsConfig
	Retention    RetentionConfig
	MongoDB      MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port     string
	LogLevel string
}

// FarmCalendarConfig describes the upstream farm-calendar service: where it
// lives, whether remote lookups are enabled at all, and the path template for
// each logical resource name.
type FarmCalendarConfig struct {
	BaseURL         string
	UsingGatekeeper bool
	Timeout         time.Duration
	Paths           map[string]string
}

// GeocoderConfig holds reverse-geocoding lookup options.
type GeocoderConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
}

// ImageryConfig holds satellite-imagery (WMS) options.
type ImageryConfig struct {
	BaseURL string
	Layer   string
	Timeout time.Duration
}

// ArtifactsConfig locates the on-disk store for finished reports.
type ArtifactsConfig struct {
	Directory string
}

// RetentionConfig holds artifact-cleanup scheduler settings.
type RetentionConfig struct {
	CronSchedule string
	MaxAge       time.Duration
	Timezone     string
}

// MongoDBConfig holds settings for the optional job registry.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Resource names used to key FarmCalendarConfig.Paths.
const (
	PathIrrigations       = "irrigations"
	PathFertilization     = "fertilization"
	PathPesticides        = "pesticides"
	PathPest              = "pest"
	PathActivityTypes     = "activity_types"
	PathObservations      = "observations"
	PathOperations        = "operations"
	PathTurningOperations = "turning_operations"
	PathActivities        = "activities"
	PathParcel            = "parcel"
	PathAnimals           = "animals"
	PathMaterials         = "materials"
	PathMachines          = "machines"
	PathFarm              = "farm"
)

func defaultCalendarPaths() map[string]string {
	return map[string]string{
		PathIrrigations:       "/IrrigationOperations/",
		PathFertilization:     "/FertilizationOperations/",
		PathPesticides:        "/CropProtectionOperations/",
		PathPest:              "/Pesticides/",
		PathActivityTypes:     "/FarmCalendarActivityTypes/",
		PathObservations:      "/Observations/",
		PathOperations:        "/CompostOperations/",
		PathTurningOperations: "/CompostTurningOperations/",
		PathActivities:        "/FarmCalendarActivities/",
		PathParcel:            "/FarmParcels/",
		PathAnimals:           "/FarmAnimals/",
		PathMaterials:         "/AddRawMaterialOperations/",
		PathMachines:          "/AgriculturalMachines/",
		PathFarm:              "/Farm/",
	}
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:     getenvWithDefault("APP_PORT", "8080"),
			LogLevel: getenvWithDefault("LOG_LEVEL", "info"),
		},
		FarmCalendar: FarmCalendarConfig{
			BaseURL:         os.Getenv("REPORTING_FARMCALENDAR_BASE_URL"),
			UsingGatekeeper: getenvBool("REPORTING_USING_GATEKEEPER", true),
			Timeout:         getenvDuration("REPORTING_FARMCALENDAR_TIMEOUT", 30*time.Second),
			Paths:           defaultCalendarPaths(),
		},
		Geocoder: GeocoderConfig{
			BaseURL:   getenvWithDefault("REPORTING_GEOCODER_BASE_URL", "https://nominatim.openstreetmap.org"),
			UserAgent: getenvWithDefault("REPORTING_GEOCODER_USER_AGENT", "reporting_open_agri_app"),
			Timeout:   getenvDuration("REPORTING_GEOCODER_TIMEOUT", 5*time.Second),
		},
		Imagery: ImageryConfig{
			BaseURL: getenvWithDefault("REPORTING_WMS_BASE_URL", "https://tiles.maps.eox.at/wms"),
			Layer:   getenvWithDefault("REPORTING_WMS_LAYER", "s2cloudless"),
			Timeout: getenvDuration("REPORTING_WMS_TIMEOUT", 20*time.Second),
		},
		Artifacts: ArtifactsConfig{
			Directory: getenvWithDefault("REPORT_DIRECTORY", "user_reports"),
		},
		Retention: RetentionConfig{
			CronSchedule: getenvWithDefault("RETENTION_CRON_SCHEDULE", "0 3 * * *"),
			MaxAge:       getenvDuration("RETENTION_MAX_AGE", 30*24*time.Hour),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "reporting"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.FarmCalendar.UsingGatekeeper && c.FarmCalendar.BaseURL == "" {
		return errors.New("REPORTING_FARMCALENDAR_BASE_URL must be provided when the gatekeeper is enabled")
	}

	for _, name := range []string{
		PathIrrigations, PathFertilization, PathPesticides, PathPest,
		PathActivityTypes, PathObservations, PathOperations, PathTurningOperations,
		PathActivities, PathParcel, PathAnimals, PathMaterials, PathMachines, PathFarm,
	} {
		if c.FarmCalendar.Paths[name] == "" {
			return fmt.Errorf("farm calendar path %q must not be empty", name)
		}
	}

	if c.Artifacts.Directory == "" {
		return errors.New("REPORT_DIRECTORY must be provided")
	}

	if c.Retention.CronSchedule == "" {
		return errors.New("RETENTION_CRON_SCHEDULE must be provided")
	}

	if c.Retention.MaxAge <= 0 {
		return errors.New("RETENTION_MAX_AGE must be positive")
	}

	if c.Retention.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}
