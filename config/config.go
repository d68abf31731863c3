package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"axiapac.com/punchclock/utils"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Database DatabaseConfig `yaml:"database"`
	Punch    PunchConfig    `yaml:"punch"`
	Timer    TimerConfig    `yaml:"timer"`
	Location LocationConfig `yaml:"location"`
	Slack    SlackConfig    `yaml:"slack"`
	Log      LogConfig      `yaml:"log"`
	Report   ReportConfig   `yaml:"report"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
	// SigningSecret is the base64 HMAC key for identity tokens.
	SigningSecret string `yaml:"signingSecret"`
}

type BackendConfig struct {
	BaseURL string `yaml:"baseUrl"`
}

type DatabaseConfig struct {
	DSN            string `yaml:"dsn"`
	SSMName        string `yaml:"ssmName"`
	Name           string `yaml:"name"`
	MaxConnections int    `yaml:"maxConnections"`
	LogLevel       string `yaml:"logLevel"`
}

// Enabled reports whether sessions and the journal go to MySQL rather than
// memory.
func (d DatabaseConfig) Enabled() bool {
	return d.DSN != "" || d.SSMName != ""
}

type PunchConfig struct {
	Timezone              string   `yaml:"timezone"`
	DeviceClass           string   `yaml:"deviceClass"`
	ExcludedDeviceClasses []string `yaml:"excludedDeviceClasses"`
	OfficesFile           string   `yaml:"officesFile"`
}

type TimerConfig struct {
	TickInterval      time.Duration `yaml:"tickInterval"`
	IdentityFile      string        `yaml:"identityFile"`
	IdentityPoll      time.Duration `yaml:"identityPoll"`
	ClockSyncInterval time.Duration `yaml:"clockSyncInterval"`
}

type LocationConfig struct {
	MaxAge time.Duration `yaml:"maxAge"`
}

type SlackConfig struct {
	Token        string `yaml:"token"`
	InfoChannel  string `yaml:"infoChannel"`
	ErrorChannel string `yaml:"errorChannel"`
}

func (s SlackConfig) Enabled() bool {
	return s.Token != "" && (s.InfoChannel != "" || s.ErrorChannel != "")
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type ReportConfig struct {
	Bucket string `yaml:"bucket"`
	Prefix string `yaml:"prefix"`
}

func Default() Config {
	return Config{
		Server:   ServerConfig{Addr: "0.0.0.0:8090"},
		Database: DatabaseConfig{Name: "punchclock", MaxConnections: 10, LogLevel: "warn"},
		Punch: PunchConfig{
			Timezone:              "Australia/Brisbane",
			DeviceClass:           "WEB",
			ExcludedDeviceClasses: []string{"BIOMETRIC"},
		},
		Timer: TimerConfig{
			TickInterval:      time.Second,
			IdentityPoll:      2 * time.Second,
			ClockSyncInterval: 15 * time.Minute,
		},
		Location: LocationConfig{MaxAge: 5 * time.Minute},
		Log:      LogConfig{Level: "info", Format: "text"},
		Report:   ReportConfig{Prefix: "punch-reports/"},
	}
}

// Load reads the optional YAML file at path, then applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg, err := Read(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Read is Load without validation, for tools that only need part of the
// configuration.
func Read(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var invalid []string

	setString(&c.Server.Addr, "PUNCHCLOCK_ADDR")
	setString(&c.Server.SigningSecret, "AXIAPAC_SIGNING_SECRET")
	setString(&c.Backend.BaseURL, "PUNCHCLOCK_BACKEND_URL")
	setString(&c.Database.DSN, "DSN")
	setString(&c.Database.SSMName, "PUNCHCLOCK_DB_SSM_NAME")
	setString(&c.Database.Name, "PUNCHCLOCK_DB_NAME")
	setString(&c.Database.LogLevel, "PUNCHCLOCK_DB_LOG_LEVEL")
	setString(&c.Punch.Timezone, "PUNCHCLOCK_TIMEZONE")
	setString(&c.Punch.DeviceClass, "PUNCHCLOCK_DEVICE_CLASS")
	setString(&c.Punch.OfficesFile, "PUNCHCLOCK_OFFICES_FILE")
	setString(&c.Timer.IdentityFile, "PUNCHCLOCK_IDENTITY_FILE")
	setString(&c.Slack.Token, "SLACK_BOT_TOKEN")
	setString(&c.Slack.InfoChannel, "SLACK_INFO_CHANNEL")
	setString(&c.Slack.ErrorChannel, "SLACK_ERROR_CHANNEL")
	setString(&c.Log.Level, "PUNCHCLOCK_LOG_LEVEL")
	setString(&c.Log.Format, "PUNCHCLOCK_LOG_FORMAT")
	setString(&c.Report.Bucket, "PUNCHCLOCK_REPORT_BUCKET")

	if v := env("PUNCHCLOCK_EXCLUDED_DEVICE_CLASSES"); v != "" {
		c.Punch.ExcludedDeviceClasses = utils.Filter(
			utils.Map(strings.Split(v, ","), strings.TrimSpace),
			func(s string) bool { return s != "" },
		)
	}

	if v := env("PUNCHCLOCK_DB_MAX_CONNECTIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			invalid = append(invalid, "PUNCHCLOCK_DB_MAX_CONNECTIONS")
		} else {
			c.Database.MaxConnections = n
		}
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"PUNCHCLOCK_TICK_INTERVAL", &c.Timer.TickInterval},
		{"PUNCHCLOCK_IDENTITY_POLL", &c.Timer.IdentityPoll},
		{"PUNCHCLOCK_CLOCK_SYNC_INTERVAL", &c.Timer.ClockSyncInterval},
		{"PUNCHCLOCK_LOCATION_MAX_AGE", &c.Location.MaxAge},
	}
	for _, d := range durations {
		v := env(d.key)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil || parsed < 0 {
			invalid = append(invalid, d.key)
			continue
		}
		*d.dst = parsed
	}

	if len(invalid) > 0 {
		return fmt.Errorf("invalid environment values: %s", strings.Join(invalid, ", "))
	}
	return nil
}

func (c *Config) Validate() error {
	var missing []string
	if c.Server.SigningSecret == "" {
		missing = append(missing, "server.signingSecret (AXIAPAC_SIGNING_SECRET)")
	}
	if c.Backend.BaseURL == "" {
		missing = append(missing, "backend.baseUrl (PUNCHCLOCK_BACKEND_URL)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	if c.Timer.TickInterval <= 0 {
		return fmt.Errorf("timer.tickInterval must be positive")
	}
	return nil
}

// TimeZone resolves the display timezone.
func (c *Config) TimeZone() *time.Location {
	return utils.LoadLocation(c.Punch.Timezone)
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := env(key); v != "" {
		*dst = v
	}
}
