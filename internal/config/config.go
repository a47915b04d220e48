package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix  = "CHASER"
	ConfigEnv  = "CHASER_CONFIG"
	Transports = "proxy|bridge"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Name   string
	Room   string
	Server string

	Transport    string
	ProxyCommand []string
	ProxyDir     string
	Modern       bool
	BridgeURL    string

	FogOfWar       bool
	TuningFile     string
	Seed           uint64
	EngineInterval time.Duration
	PollInterval   time.Duration
	DrainPeriod    time.Duration

	LogLevel       string
	LogDevelopment bool

	HTTPAddr     string
	DBDSN        string
	Journal      bool
	JournalQueue int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("name", "chaserbot")
	v.SetDefault("room", "default")
	v.SetDefault("server", "http://localhost:3000")
	v.SetDefault("transport", "proxy")
	v.SetDefault("proxy_command", []string{"bun", "run", "src/proxy.ts"})
	v.SetDefault("proxy_dir", "")
	v.SetDefault("modern", false)
	v.SetDefault("bridge_url", "")
	v.SetDefault("fog_of_war", false)
	v.SetDefault("tuning_file", "")
	v.SetDefault("seed", uint64(0))
	v.SetDefault("engine_interval", "50ms")
	v.SetDefault("poll_interval", "10ms")
	v.SetDefault("drain_period", "500ms")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_development", false)
	v.SetDefault("http_addr", "")
	v.SetDefault("db_dsn", "")
	v.SetDefault("journal", true)
	v.SetDefault("journal_queue", 256)
}

// Load reads CHASER_* environment variables on top of an optional YAML file
// named by CHASER_CONFIG.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path := strings.TrimSpace(os.Getenv(ConfigEnv)); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Name:           strings.TrimSpace(v.GetString("name")),
		Room:           strings.TrimSpace(v.GetString("room")),
		Server:         strings.TrimSpace(v.GetString("server")),
		Transport:      strings.ToLower(strings.TrimSpace(v.GetString("transport"))),
		ProxyCommand:   v.GetStringSlice("proxy_command"),
		ProxyDir:       v.GetString("proxy_dir"),
		Modern:         v.GetBool("modern"),
		BridgeURL:      strings.TrimSpace(v.GetString("bridge_url")),
		FogOfWar:       v.GetBool("fog_of_war"),
		TuningFile:     v.GetString("tuning_file"),
		Seed:           v.GetUint64("seed"),
		EngineInterval: v.GetDuration("engine_interval"),
		PollInterval:   v.GetDuration("poll_interval"),
		DrainPeriod:    v.GetDuration("drain_period"),
		LogLevel:       v.GetString("log_level"),
		LogDevelopment: v.GetBool("log_development"),
		HTTPAddr:       strings.TrimSpace(v.GetString("http_addr")),
		DBDSN:          strings.TrimSpace(v.GetString("db_dsn")),
		Journal:        v.GetBool("journal"),
		JournalQueue:   v.GetInt("journal_queue"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch {
	case c.Name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidConfig)
	case c.Room == "":
		return fmt.Errorf("%w: room is empty", ErrInvalidConfig)
	case c.Transport != "proxy" && c.Transport != "bridge":
		return fmt.Errorf("%w: transport %q, want %s", ErrInvalidConfig, c.Transport, Transports)
	case c.Transport == "proxy" && len(c.ProxyCommand) == 0:
		return fmt.Errorf("%w: proxy_command is empty", ErrInvalidConfig)
	case c.Transport == "bridge" && c.BridgeURL == "":
		return fmt.Errorf("%w: bridge_url is required for the bridge transport", ErrInvalidConfig)
	case c.EngineInterval <= 0 || c.PollInterval <= 0:
		return fmt.Errorf("%w: intervals must be positive", ErrInvalidConfig)
	case c.DrainPeriod < 0 || c.JournalQueue < 0:
		return fmt.Errorf("%w: drain_period and journal_queue must not be negative", ErrInvalidConfig)
	}
	return nil
}
