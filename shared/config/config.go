package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks a missing or invalid setting; the run must abort
// before taking any action.
var ErrConfiguration = errors.New("configuration error")

// EnvPrefix is the prefix for environment overrides, e.g. CAMWATCH_CAMERA_HOST
const EnvPrefix = "CAMWATCH"

type Config struct {
	Camera     CameraConfig     `yaml:"camera"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Weather    WeatherConfig    `yaml:"weather"`
	Notify     NotifyConfig     `yaml:"notify"`
	State      StateConfig      `yaml:"state"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Schedule   string           `yaml:"schedule" envconfig:"SCHEDULE"`
	Debug      bool             `yaml:"debug" envconfig:"DEBUG"`
}

// CameraConfig describes the SFTP drop directory the camera uploads into
type CameraConfig struct {
	Host           string `yaml:"host" envconfig:"HOST" validate:"required"`
	Port           int    `yaml:"port" envconfig:"PORT" validate:"gt=0,lt=65536"`
	Username       string `yaml:"username" envconfig:"USERNAME" validate:"required"`
	PasswordFile   string `yaml:"password_file" envconfig:"PASSWORD_FILE" validate:"required"`
	KnownHostsFile string `yaml:"known_hosts_file" envconfig:"KNOWN_HOSTS_FILE"`
	Directory      string `yaml:"directory" envconfig:"DIRECTORY" validate:"required"`
	Extension      string `yaml:"extension" envconfig:"EXTENSION" validate:"required,startswith=."`

	Password string `yaml:"-" ignored:"true"`
}

type TelegramConfig struct {
	APIURL     string `yaml:"api_url" envconfig:"API_URL" validate:"required,url"`
	TokenFile  string `yaml:"token_file" envconfig:"TOKEN_FILE" validate:"required"`
	ChatIDFile string `yaml:"chat_id_file" envconfig:"CHAT_ID_FILE" validate:"required"`
	ThreadID   string `yaml:"thread_id" envconfig:"THREAD_ID"`
	Silent     *bool  `yaml:"silent" envconfig:"SILENT"`

	Token  string `yaml:"-" ignored:"true"`
	ChatID string `yaml:"-" ignored:"true"`
}

// IsSilent reports whether messages go out without a notification sound.
// Unset means silent.
func (t TelegramConfig) IsSilent() bool {
	return t.Silent == nil || *t.Silent
}

type WeatherConfig struct {
	URL      string        `yaml:"url" envconfig:"URL" validate:"required,url"`
	Location string        `yaml:"location" envconfig:"LOCATION" validate:"required"`
	Language string        `yaml:"language" envconfig:"LANGUAGE"`
	Timeout  time.Duration `yaml:"timeout" envconfig:"TIMEOUT" validate:"gt=0"`
}

// NotifyConfig holds the decision inputs that vary per installation
type NotifyConfig struct {
	Title           string  `yaml:"title" envconfig:"TITLE"`
	Timezone        string  `yaml:"timezone" envconfig:"TIMEZONE" validate:"required"`
	Country         string  `yaml:"country" envconfig:"COUNTRY" validate:"required,len=2"`
	Subdivision     string  `yaml:"subdivision" envconfig:"SUBDIVISION"`
	WindowHours     float64 `yaml:"window_hours" envconfig:"WINDOW_HOURS" validate:"gt=0"`
	MaxTemperatureC float64 `yaml:"max_temperature_c" envconfig:"MAX_TEMPERATURE_C"`
}

type StateConfig struct {
	DataDir    string `yaml:"data_dir" envconfig:"DATA_DIR" validate:"required"`
	MarkerFile string `yaml:"marker_file" envconfig:"MARKER_FILE" validate:"required"`
}

type MonitoringConfig struct {
	HealthPort int `yaml:"health_port" envconfig:"HEALTH_PORT"`
}

// Load reads the YAML config file, applies environment overrides and reads
// the credential files. Every failure wraps ErrConfiguration.
func Load() (*Config, error) {
	_ = godotenv.Load()

	configFile := os.Getenv("CONFIG_FILE")
	if configFile == "" {
		configFile = "config.yaml"
	}

	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file %s: %v", ErrConfiguration, configFile, err)
	}

	return Parse(data)
}

// Parse builds a Config from YAML bytes plus the environment
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrConfiguration, err)
	}

	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("%w: failed to apply environment overrides: %v", ErrConfiguration, err)
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w: config validation failed: %v", ErrConfiguration, err)
	}

	if err := cfg.loadSecrets(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Camera.Port == 0 {
		c.Camera.Port = 22
	}
	if c.Camera.Extension == "" {
		c.Camera.Extension = ".jpg"
	}
	if c.Telegram.APIURL == "" {
		c.Telegram.APIURL = "https://api.telegram.org"
	}
	if c.Weather.URL == "" {
		c.Weather.URL = "https://wttr.in"
	}
	if c.Weather.Language == "" {
		c.Weather.Language = "de"
	}
	if c.Weather.Timeout == 0 {
		c.Weather.Timeout = 30 * time.Second
	}
	if c.Notify.Timezone == "" {
		c.Notify.Timezone = "Europe/Berlin"
	}
	if c.Notify.Country == "" {
		c.Notify.Country = "DE"
	}
	if c.Notify.WindowHours == 0 {
		c.Notify.WindowHours = 7.5
	}
	if c.Notify.MaxTemperatureC == 0 {
		c.Notify.MaxTemperatureC = 3.0
	}
	if c.State.DataDir == "" {
		c.State.DataDir = "data"
	}
	if c.State.MarkerFile == "" {
		c.State.MarkerFile = "last_sent.txt"
	}
	if c.Monitoring.HealthPort == 0 {
		c.Monitoring.HealthPort = 8080
	}
	if c.Schedule == "" {
		c.Schedule = "0 */10 * * * *" // every 10 minutes
	}
}

func (c *Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if _, err := time.LoadLocation(c.Notify.Timezone); err != nil {
		return fmt.Errorf("unknown timezone %q: %w", c.Notify.Timezone, err)
	}
	return nil
}

// Location returns the configured local timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Notify.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) loadSecrets() error {
	var err error
	if c.Telegram.Token, err = ReadSecretFile(c.Telegram.TokenFile); err != nil {
		return fmt.Errorf("bot token: %w", err)
	}
	if c.Telegram.ChatID, err = ReadSecretFile(c.Telegram.ChatIDFile); err != nil {
		return fmt.Errorf("chat id: %w", err)
	}
	if c.Camera.Password, err = ReadSecretFile(c.Camera.PasswordFile); err != nil {
		return fmt.Errorf("camera password: %w", err)
	}
	return nil
}

// ReadSecretFile returns the trimmed contents of a credential file; missing
// or blank files are configuration errors.
func ReadSecretFile(path string) (string, error) {
	path = ExpandHome(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read %s: %v", ErrConfiguration, path, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrConfiguration, path)
	}
	return value, nil
}

// ExpandHome resolves a leading "~/" against the user's home directory
func ExpandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
