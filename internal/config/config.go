// Package config provides Viper-based configuration loading for the table server
// and its operator tools.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable override, e.g.
// TRAVELLER_DATABASE_HOST.
const EnvPrefix = "TRAVELLER"

// ServerConfig holds top-level server settings.
type ServerConfig struct {
	// Name identifies this instance in logs.
	Name string `mapstructure:"name"`
	// ShutdownTimeout bounds how long services get to stop.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RedisConfig holds settings for the recent-roll feed.
type RedisConfig struct {
	// Addr is the "host:port" of the Redis server.
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	// KeyPrefix namespaces every key written by this instance.
	KeyPrefix string `mapstructure:"key_prefix"`
}

// TelnetConfig holds Telnet acceptor settings.
type TelnetConfig struct {
	// Host is the bind address for the Telnet listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the Telnet listener.
	Port int `mapstructure:"port"`
	// ReadTimeout is the per-read timeout for Telnet connections.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`
	// WriteTimeout is the per-write timeout for Telnet connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// CommandRate is the sustained number of commands per second a connection may issue.
	CommandRate float64 `mapstructure:"command_rate"`
	// CommandBurst is the number of commands a connection may issue at once.
	CommandBurst int `mapstructure:"command_burst"`
	// MaxSessions caps concurrent connections; 0 means unlimited.
	MaxSessions int `mapstructure:"max_sessions"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (t TelnetConfig) Addr() string {
	return fmt.Sprintf("%s:%d", t.Host, t.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
	// Output is "stderr", "stdout" or a file path logs are appended to.
	Output string `mapstructure:"output"`
}

// MetricsConfig holds the Prometheus endpoint settings.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// Addr returns the "host:port" listen address of the metrics endpoint.
func (m MetricsConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Host, m.Port)
}

// RulesConfig holds table rules and roll feed settings.
type RulesConfig struct {
	// DefaultDifficulty is the task check target when none is given.
	DefaultDifficulty int `mapstructure:"default_difficulty"`
	// MaxDice caps the number of dice in a single roll request.
	MaxDice int `mapstructure:"max_dice"`
	// RollFeedSize is how many recent rolls are kept per campaign.
	RollFeedSize int `mapstructure:"roll_feed_size"`
	// RollFeedTTL expires a campaign's feed after inactivity.
	RollFeedTTL time.Duration `mapstructure:"roll_feed_ttl"`
}

// ContentConfig locates static game content.
type ContentConfig struct {
	// SectorDir holds the sector YAML files.
	SectorDir string `mapstructure:"sector_dir"`
	// WatchSectors reloads sectors when files in SectorDir change.
	WatchSectors bool `mapstructure:"watch_sectors"`
	// ReloadDebounce is the quiet period before a reload.
	ReloadDebounce time.Duration `mapstructure:"reload_debounce"`
}

// Config is the top-level application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Telnet   TelnetConfig   `mapstructure:"telnet"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Rules    RulesConfig    `mapstructure:"rules"`
	Content  ContentConfig  `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string
	for _, err := range []error{
		validateServer(c.Server),
		validateDatabase(c.Database),
		validateRedis(c.Redis),
		validateTelnet(c.Telnet),
		validateLogging(c.Logging),
		validateMetrics(c.Metrics),
		validateRules(c.Rules),
		validateContent(c.Content),
	} {
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateServer(s ServerConfig) error {
	var errs []string
	if s.Name == "" {
		errs = append(errs, "server.name must not be empty")
	}
	if s.ShutdownTimeout < 0 {
		errs = append(errs, "server.shutdown_timeout must not be negative")
	}
	return joinErrs(errs)
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if !validPort(d.Port) {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	return joinErrs(errs)
}

func validateRedis(r RedisConfig) error {
	var errs []string
	if r.Addr == "" {
		errs = append(errs, "redis.addr must not be empty")
	}
	if r.DB < 0 {
		errs = append(errs, fmt.Sprintf("redis.db must be >= 0, got %d", r.DB))
	}
	return joinErrs(errs)
}

func validateTelnet(t TelnetConfig) error {
	var errs []string
	if !validPort(t.Port) {
		errs = append(errs, fmt.Sprintf("telnet.port must be 1-65535, got %d", t.Port))
	}
	if t.ReadTimeout < 0 {
		errs = append(errs, "telnet.read_timeout must not be negative")
	}
	if t.WriteTimeout < 0 {
		errs = append(errs, "telnet.write_timeout must not be negative")
	}
	if t.CommandRate <= 0 {
		errs = append(errs, fmt.Sprintf("telnet.command_rate must be > 0, got %g", t.CommandRate))
	}
	if t.CommandBurst < 1 {
		errs = append(errs, fmt.Sprintf("telnet.command_burst must be >= 1, got %d", t.CommandBurst))
	}
	if t.MaxSessions < 0 {
		errs = append(errs, fmt.Sprintf("telnet.max_sessions must be >= 0, got %d", t.MaxSessions))
	}
	return joinErrs(errs)
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	if strings.TrimSpace(l.Output) == "" {
		return errors.New("logging.output must not be empty")
	}
	return nil
}

func validateMetrics(m MetricsConfig) error {
	if !m.Enabled {
		return nil
	}
	var errs []string
	if !validPort(m.Port) {
		errs = append(errs, fmt.Sprintf("metrics.port must be 1-65535, got %d", m.Port))
	}
	if !strings.HasPrefix(m.Path, "/") {
		errs = append(errs, fmt.Sprintf("metrics.path must start with /, got %q", m.Path))
	}
	return joinErrs(errs)
}

func validateRules(r RulesConfig) error {
	var errs []string
	if r.DefaultDifficulty < 2 || r.DefaultDifficulty > 20 {
		errs = append(errs, fmt.Sprintf("rules.default_difficulty must be 2-20, got %d", r.DefaultDifficulty))
	}
	if r.MaxDice < 1 || r.MaxDice > 1000 {
		errs = append(errs, fmt.Sprintf("rules.max_dice must be 1-1000, got %d", r.MaxDice))
	}
	if r.RollFeedSize < 1 {
		errs = append(errs, fmt.Sprintf("rules.roll_feed_size must be >= 1, got %d", r.RollFeedSize))
	}
	if r.RollFeedTTL < 0 {
		errs = append(errs, "rules.roll_feed_ttl must not be negative")
	}
	return joinErrs(errs)
}

func validateContent(c ContentConfig) error {
	if c.SectorDir == "" {
		return errors.New("content.sector_dir must not be empty")
	}
	if c.ReloadDebounce < 0 {
		return errors.New("content.reload_debounce must not be negative")
	}
	return nil
}

func validPort(p int) bool {
	return p >= 1 && p <= 65535
}

func joinErrs(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New(strings.Join(errs, "; "))
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := NewViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromViper(v)
}

// NewViper returns a Viper instance with defaults and TRAVELLER_ environment
// overrides applied, ready for a config file or flags to be layered on.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "tableserver")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "traveller")
	v.SetDefault("database.password", "traveller")
	v.SetDefault("database.name", "traveller")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "traveller:")

	v.SetDefault("telnet.host", "0.0.0.0")
	v.SetDefault("telnet.port", 4000)
	v.SetDefault("telnet.read_timeout", "30m")
	v.SetDefault("telnet.write_timeout", "30s")
	v.SetDefault("telnet.command_rate", 5.0)
	v.SetDefault("telnet.command_burst", 10)
	v.SetDefault("telnet.max_sessions", 64)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.output", "stderr")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.host", "0.0.0.0")
	v.SetDefault("metrics.port", 9100)
	v.SetDefault("metrics.path", "/metrics")

	v.SetDefault("rules.default_difficulty", 8)
	v.SetDefault("rules.max_dice", 100)
	v.SetDefault("rules.roll_feed_size", 50)
	v.SetDefault("rules.roll_feed_ttl", "168h")

	v.SetDefault("content.sector_dir", "content/sectors")
	v.SetDefault("content.watch_sectors", true)
	v.SetDefault("content.reload_debounce", "500ms")
}
