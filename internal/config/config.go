// Package config loads EndoTrack settings from an optional YAML file and
// ENDOTRACK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap/zapcore"
)

const (
	BackendSQLite = "sqlite"
	BackendFile   = "file"
	BackendNATS   = "nats"
)

type Config struct {
	App      AppConfig      `koanf:"app"`
	Server   ServerConfig   `koanf:"server"`
	Storage  StorageConfig  `koanf:"storage"`
	Identity IdentityConfig `koanf:"identity"`
	Logging  LoggingConfig  `koanf:"logging"`
	Profile  ProfileConfig  `koanf:"profile"`
}

type AppConfig struct {
	ID       string `koanf:"id"`
	Timezone string `koanf:"timezone"`
	Language string `koanf:"language"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

type StorageConfig struct {
	Backend    string `koanf:"backend"`
	SQLitePath string `koanf:"sqlite_path"`
	FileDir    string `koanf:"file_dir"`
	NATSURL    string `koanf:"nats_url"`
	NATSBucket string `koanf:"nats_bucket"`
}

// IdentityConfig selects the user the remote collection belongs to. Token is
// a custom HS256 sign-in token; without it AnonymousUserID is used.
type IdentityConfig struct {
	AnonymousUserID string `koanf:"anonymous_user_id"`
	Token           string `koanf:"token"`
	Secret          string `koanf:"secret"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

type ProfileConfig struct {
	PatientName    string `koanf:"patient_name"`
	TreatmentLabel string `koanf:"treatment_label"`
}

func Default() Config {
	return Config{
		App: AppConfig{
			ID:       "endotrack",
			Timezone: "UTC",
			Language: "pt",
		},
		Server: ServerConfig{
			Port:            8080,
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			Backend:    BackendSQLite,
			SQLitePath: "data/endotrack.db",
			FileDir:    "data",
			NATSURL:    "nats://localhost:4222",
			NATSBucket: "endo_logs",
		},
		Identity: IdentityConfig{
			AnonymousUserID: "local-offline-user",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Profile: ProfileConfig{
			PatientName:    "Paciente",
			TreatmentLabel: "Dienogest 2mg",
		},
	}
}

func applyDefaults(cfg *Config) {
	defaults := Default()

	setDefaultString(&cfg.App.ID, defaults.App.ID)
	setDefaultString(&cfg.App.Timezone, defaults.App.Timezone)
	setDefaultString(&cfg.App.Language, defaults.App.Language)
	if cfg.Server.Port == 0 {
		cfg.Server.Port = defaults.Server.Port
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = defaults.Server.ShutdownTimeout
	}
	setDefaultString(&cfg.Storage.Backend, defaults.Storage.Backend)
	setDefaultString(&cfg.Storage.SQLitePath, defaults.Storage.SQLitePath)
	setDefaultString(&cfg.Storage.FileDir, defaults.Storage.FileDir)
	setDefaultString(&cfg.Storage.NATSURL, defaults.Storage.NATSURL)
	setDefaultString(&cfg.Storage.NATSBucket, defaults.Storage.NATSBucket)
	setDefaultString(&cfg.Identity.AnonymousUserID, defaults.Identity.AnonymousUserID)
	setDefaultString(&cfg.Logging.Level, defaults.Logging.Level)
	setDefaultString(&cfg.Logging.Format, defaults.Logging.Format)
	setDefaultString(&cfg.Profile.PatientName, defaults.Profile.PatientName)
	setDefaultString(&cfg.Profile.TreatmentLabel, defaults.Profile.TreatmentLabel)

	cfg.Storage.Backend = strings.ToLower(cfg.Storage.Backend)
	cfg.Logging.Format = strings.ToLower(cfg.Logging.Format)
	cfg.App.Language = strings.ToLower(cfg.App.Language)
}

func setDefaultString(target *string, fallback string) {
	*target = strings.TrimSpace(*target)
	if *target == "" {
		*target = fallback
	}
}

func (cfg *Config) Validate() error {
	var errs []error

	switch cfg.Storage.Backend {
	case BackendSQLite, BackendFile, BackendNATS:
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be one of sqlite, file, nats; got %q", cfg.Storage.Backend))
	}
	if _, err := time.LoadLocation(cfg.App.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("app.timezone %q: %w", cfg.App.Timezone, err))
	}
	if cfg.App.Language != "pt" && cfg.App.Language != "en" {
		errs = append(errs, fmt.Errorf("app.language must be pt or en; got %q", cfg.App.Language))
	}
	if _, err := zapcore.ParseLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, fmt.Errorf("logging.level: %w", err))
	}
	if cfg.Logging.Format != "console" && cfg.Logging.Format != "json" {
		errs = append(errs, fmt.Errorf("logging.format must be console or json; got %q", cfg.Logging.Format))
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", cfg.Server.Port))
	}
	if cfg.Server.ShutdownTimeout < 0 {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout must not be negative"))
	}
	if strings.TrimSpace(cfg.Identity.Token) != "" && strings.TrimSpace(cfg.Identity.Secret) == "" {
		errs = append(errs, errors.New("identity.secret is required when identity.token is set"))
	}

	return errors.Join(errs...)
}

// Location returns the configured time zone. Validate has already checked it.
func (cfg *Config) Location() *time.Location {
	location, err := time.LoadLocation(cfg.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return location
}
