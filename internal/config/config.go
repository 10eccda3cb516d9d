// Package config loads service configuration from cargodesk.yaml and
// the environment via Viper. A missing config file is not an error;
// every key has a working default so the service starts bare.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config keys.
const (
	KeyHTTPPort        = "http.port"
	KeyDBDSN           = "db.dsn"
	KeyUpstreamBaseURL = "upstream.base_url"
	KeyUpstreamTimeout = "upstream.timeout"
	KeySessionMaxAge   = "session.max_age"
	KeySessionIdle     = "session.idle_timeout"
)

// Config is the resolved service configuration.
type Config struct {
	HTTPPort        int
	DBDSN           string
	UpstreamBaseURL string
	UpstreamTimeout time.Duration
	SessionMaxAge   time.Duration
	SessionIdle     time.Duration
}

// Load reads cargodesk.yaml from the given directory (or the working
// directory when empty), layering CARGODESK_* environment variables on
// top. A missing file falls back to defaults.
func Load(configDir string) (Config, error) {
	v := viper.New()
	v.SetDefault(KeyHTTPPort, 8080)
	v.SetDefault(KeyDBDSN, "cargodesk.db")
	v.SetDefault(KeyUpstreamBaseURL, "")
	v.SetDefault(KeyUpstreamTimeout, "30s")
	v.SetDefault(KeySessionMaxAge, "24h")
	v.SetDefault(KeySessionIdle, "30m")

	v.SetConfigName("cargodesk")
	v.SetConfigType("yaml")
	if configDir != "" {
		v.AddConfigPath(configDir)
	} else {
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("CARGODESK")
	// Dotted keys map to CARGODESK_HTTP_PORT style variables.
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := Config{
		HTTPPort:        v.GetInt(KeyHTTPPort),
		DBDSN:           v.GetString(KeyDBDSN),
		UpstreamBaseURL: v.GetString(KeyUpstreamBaseURL),
		UpstreamTimeout: v.GetDuration(KeyUpstreamTimeout),
		SessionMaxAge:   v.GetDuration(KeySessionMaxAge),
		SessionIdle:     v.GetDuration(KeySessionIdle),
	}
	if cfg.HTTPPort <= 0 || cfg.HTTPPort > 65535 {
		return Config{}, fmt.Errorf("invalid http.port: %d", cfg.HTTPPort)
	}
	return cfg, nil
}
