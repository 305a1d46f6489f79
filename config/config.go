package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type AuthConfig struct {
	// Secret signs session tokens. Token minting is external; this service
	// only verifies.
	Secret string `mapstructure:"secret"`
}

type RealtimeConfig struct {
	// ThrottleCooldown gates pull-style stats requests per connection.
	ThrottleCooldown time.Duration `mapstructure:"throttle_cooldown"`
	// SweepInterval is the janitor tick; IdleTimeout the eviction threshold.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	// SendBuffer is the outbound event buffer per connection.
	SendBuffer int `mapstructure:"send_buffer"`
	// AllowedOrigins whitelists browser origins for the websocket
	// handshake. Empty keeps the permissive development default.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LoadConfig reads the optional config file, applies REALTIME_* env
// overrides and command-line flags, and watches the file for changes.
// The throttle/sweep constants are reference defaults, not requirements.
func LoadConfig(path string, args []string) (*Config, error) {
	v := viper.New()

	v.SetDefault("http.addr", ":8090")
	v.SetDefault("auth.secret", "")
	v.SetDefault("realtime.throttle_cooldown", 3*time.Second)
	v.SetDefault("realtime.sweep_interval", 5*time.Minute)
	v.SetDefault("realtime.idle_timeout", 30*time.Minute)
	v.SetDefault("realtime.send_buffer", 256)
	v.SetDefault("realtime.allowed_origins", []string{})

	v.SetEnvPrefix("REALTIME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fs := pflag.NewFlagSet("realtime-service", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.String("http.addr", v.GetString("http.addr"), "HTTP listen address")
	fs.Duration("realtime.throttle_cooldown", v.GetDuration("realtime.throttle_cooldown"), "stats request cooldown per connection")
	if err := fs.Parse(args); err != nil && err != pflag.ErrHelp {
		return nil, fmt.Errorf("config: parse flags: %w", err)
	}
	if err := v.BindPFlags(fs); err != nil {
		return nil, fmt.Errorf("config: bind flags: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
		// Running on defaults and environment only.
	} else {
		// Runtime values are read once at construction; a change requires a
		// restart, but surfacing the edit helps operators notice stale state.
		v.OnConfigChange(func(e fsnotify.Event) {
			slog.Info("config file changed, restart to apply", "file", e.Name)
		})
		v.WatchConfig()
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}
