// Package config loads process configuration from file and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Log      LogConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr string
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string
	Format string // text or json
}

// SMTPConfig holds the alert email relay settings. An empty Addr
// disables outgoing mail.
type SMTPConfig struct {
	Addr string
	From string
}

// AuthConfig holds API token settings. An empty Secret leaves the API
// unauthenticated.
type AuthConfig struct {
	// Secret signs issued JWTs.
	Secret string
	// AdminPasswordHash is the bcrypt hash checked by the token endpoint.
	AdminPasswordHash string
}

// Load reads configuration from file and env. Env var overrides use
// prefix GESTOR_ (e.g. GESTOR_SERVER_ADDR).
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "gestor", "gestor.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("smtp.addr", "")
	v.SetDefault("smtp.from", "")
	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.admin_password_hash", "")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("GESTOR_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "gestor"))
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("GESTOR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// config file is optional
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}
