/*
Package config loads runtime settings for the server and the CLI.

SOURCES (highest precedence first):
  1. Environment variables, prefixed LEAVE_ with dots as underscores
     (database.dsn -> LEAVE_DATABASE_DSN)
  2. A YAML config file (explicit path, or ./leave.yaml, or ~/.leave-engine/leave.yaml)
  3. Defaults below

EXAMPLE (leave.yaml):
  server:
    port: 8080
  database:
    driver: postgres
    dsn: postgres://leave:secret@db/leave?sslmode=disable
  certificates:
    driver: s3
    s3:
      bucket: leave-certificates
      region: eu-west-3
  leave:
    annual_type: annual
    types: [annual, sick, other, maternity]
    balance_types: [annual]
    certificate_types: [sick, maternity]
  holidays:
    defaults:
      - date: "01-01"
        name: New Year's Day
  scheduler:
    interval: 30m
*/
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/warp/leave-engine/leave"
)

type Config struct {
	Server       Server       `mapstructure:"server"`
	Database     Database     `mapstructure:"database"`
	Certificates Certificates `mapstructure:"certificates"`
	Leave        LeaveTypes   `mapstructure:"leave"`
	Holidays     Holidays     `mapstructure:"holidays"`
	Log          Log          `mapstructure:"log"`
	Scheduler    Scheduler    `mapstructure:"scheduler"`
}

type Server struct {
	Port int `mapstructure:"port"`
}

type Database struct {
	Driver string `mapstructure:"driver"` // sqlite | postgres
	DSN    string `mapstructure:"dsn"`
}

type Certificates struct {
	Driver string `mapstructure:"driver"` // fs | s3 | none
	Dir    string `mapstructure:"dir"`
	S3     S3     `mapstructure:"s3"`
}

type S3 struct {
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	Endpoint  string `mapstructure:"endpoint"`
	PathStyle bool   `mapstructure:"path_style"`
	Prefix    string `mapstructure:"prefix"`
}

type LeaveTypes struct {
	AnnualType       string   `mapstructure:"annual_type"`
	Types            []string `mapstructure:"types"`
	BalanceTypes     []string `mapstructure:"balance_types"`
	CertificateTypes []string `mapstructure:"certificate_types"`
}

type Holidays struct {
	Defaults []HolidayEntry `mapstructure:"defaults"`
}

// HolidayEntry is a fixed-date holiday written as MM-DD.
type HolidayEntry struct {
	Date string `mapstructure:"date"`
	Name string `mapstructure:"name"`
}

type Scheduler struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval"`
}

type Log struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // text | json
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/leave.db")
	v.SetDefault("certificates.driver", "fs")
	v.SetDefault("certificates.dir", "./data/certificates")
	v.SetDefault("certificates.s3.bucket", "")
	v.SetDefault("certificates.s3.region", "us-east-1")
	v.SetDefault("certificates.s3.endpoint", "")
	v.SetDefault("certificates.s3.path_style", false)
	v.SetDefault("certificates.s3.prefix", "certificates")
	v.SetDefault("leave.annual_type", string(leave.TypeAnnual))
	v.SetDefault("leave.types", []string{string(leave.TypeAnnual), string(leave.TypeSick), string(leave.TypeOther)})
	v.SetDefault("leave.balance_types", []string{string(leave.TypeAnnual)})
	v.SetDefault("leave.certificate_types", []string{string(leave.TypeSick)})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("scheduler.enabled", true)
	v.SetDefault("scheduler.interval", time.Hour)
}

// Load reads the configuration. An empty path searches the default locations
// and tolerates a missing file; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("LEAVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("leave")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".leave-engine"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("database.driver: unsupported %q (sqlite, postgres)", c.Database.Driver)
	}
	switch c.Certificates.Driver {
	case "fs", "none", "":
	case "s3":
		if c.Certificates.S3.Bucket == "" {
			return fmt.Errorf("certificates.s3.bucket is required for the s3 driver")
		}
	default:
		return fmt.Errorf("certificates.driver: unsupported %q (fs, s3, none)", c.Certificates.Driver)
	}
	if c.Scheduler.Enabled && c.Scheduler.Interval <= 0 {
		return fmt.Errorf("scheduler.interval must be positive")
	}
	if _, err := c.TypeRules(); err != nil {
		return err
	}
	if _, err := c.FixedHolidays(); err != nil {
		return err
	}
	return nil
}

// TypeRules converts the leave section into engine rules.
func (c *Config) TypeRules() (leave.TypeRules, error) {
	annual := leave.Type(strings.TrimSpace(c.Leave.AnnualType))
	if annual == "" {
		return leave.TypeRules{}, fmt.Errorf("leave.annual_type is required")
	}

	rules := leave.TypeRules{
		Splittable:          annual,
		DebitsBalance:       make(map[leave.Type]bool),
		RequiresCertificate: make(map[leave.Type]bool),
	}
	for _, t := range c.Leave.Types {
		if t = strings.TrimSpace(t); t != "" {
			rules.Known = append(rules.Known, leave.Type(t))
		}
	}
	if len(rules.Known) > 0 && !rules.IsKnown(annual) {
		return leave.TypeRules{}, fmt.Errorf("leave.annual_type %q is not listed in leave.types", annual)
	}
	for _, t := range c.Leave.BalanceTypes {
		rules.DebitsBalance[leave.Type(strings.TrimSpace(t))] = true
	}
	for _, t := range c.Leave.CertificateTypes {
		rules.RequiresCertificate[leave.Type(strings.TrimSpace(t))] = true
	}
	return rules, nil
}

// FixedHolidays returns the configured defaults, or the stock calendar when none are set.
func (c *Config) FixedHolidays() ([]leave.FixedHoliday, error) {
	if len(c.Holidays.Defaults) == 0 {
		return leave.DefaultFixedHolidays(), nil
	}
	out := make([]leave.FixedHoliday, 0, len(c.Holidays.Defaults))
	for _, e := range c.Holidays.Defaults {
		// 2024 is a leap year, so 02-29 parses.
		t, err := time.Parse("2006-01-02", "2024-"+strings.TrimSpace(e.Date))
		if err != nil {
			return nil, fmt.Errorf("holidays.defaults: bad date %q (use MM-DD)", e.Date)
		}
		if strings.TrimSpace(e.Name) == "" {
			return nil, fmt.Errorf("holidays.defaults: %s has no name", e.Date)
		}
		out = append(out, leave.FixedHoliday{Month: t.Month(), Day: t.Day(), Name: e.Name})
	}
	return out, nil
}

// NewLogger builds the slog logger described by the log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(c.Log.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
