// Package config assembles connectctl settings from defaults, an optional
// YAML file, environment variables and command line overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/compose-spec/compose-go/v2/dotenv"
	"gopkg.in/yaml.v3"
)

const (
	EnvPrefix      = "CONNECTCTL_"
	EnvFileName    = ".env"
	ConfigFileName = "config.yaml"
	DatabaseFile   = "connectctl.db"

	EncryptionKeyVar = EnvPrefix + "ENCRYPTION_KEY"
)

var validLogLevels = []string{"debug", "info", "warning", "error", "silent"}

// EnvProvider abstracts environment variable access for testing
type EnvProvider interface {
	Getenv(key string) string
	UserHomeDir() (string, error)
}

// DefaultEnvProvider implements EnvProvider using real OS functions
type DefaultEnvProvider struct{}

func (p *DefaultEnvProvider) Getenv(key string) string {
	return os.Getenv(key)
}

func (p *DefaultEnvProvider) UserHomeDir() (string, error) {
	return os.UserHomeDir()
}

// GetDefaultDataDir returns the default data directory following the XDG Base Directory specification
func GetDefaultDataDir() string {
	return getDefaultDataDirWithEnv(&DefaultEnvProvider{})
}

func getDefaultDataDirWithEnv(env EnvProvider) string {
	if xdgDataHome := env.Getenv("XDG_DATA_HOME"); xdgDataHome != "" {
		return filepath.Join(xdgDataHome, "connectctl")
	}

	homeDir, _ := env.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "connectctl")
}

// Config holds the settings shared by every command.
type Config struct {
	DataDir      string
	DatabasePath string
	ConfigPath   string

	LogLevel     string
	ColorEnabled bool

	// RequestTimeout applies to ordinary API calls, DeployTimeout to bundle
	// uploads and deploy requests.
	RequestTimeout time.Duration
	DeployTimeout  time.Duration

	PollWait time.Duration
	// TaskTimeout bounds a task wait; zero waits forever.
	TaskTimeout time.Duration

	EncryptionKey string

	env EnvProvider
}

type yamlConfig struct {
	DataDir       string   `yaml:"data_dir"`
	DatabasePath  string   `yaml:"database_path"`
	LogLevel      string   `yaml:"log_level"`
	ColorEnabled  *bool    `yaml:"color_enabled"`
	HTTP          yamlHTTP `yaml:"http"`
	Task          yamlTask `yaml:"task"`
	EncryptionKey string   `yaml:"encryption_key"`
}

type yamlHTTP struct {
	RequestTimeout string `yaml:"request_timeout"`
	DeployTimeout  string `yaml:"deploy_timeout"`
}

type yamlTask struct {
	PollWait string `yaml:"poll_wait"`
	Timeout  string `yaml:"timeout"`
}

// Option adjusts how a Config is built.
type Option func(*options)

type options struct {
	dataDir     string
	cliDefaults bool
}

// WithDataDir overrides the data directory from every other source.
func WithDataDir(dir string) Option {
	return func(o *options) { o.dataDir = dir }
}

// WithCLIDefaults makes logging silent unless configured otherwise.
func WithCLIDefaults() Option {
	return func(o *options) { o.cliDefaults = true }
}

// NewConfig builds a Config from the real environment. An empty configPath
// falls back to config.yaml in the data directory when it exists.
func NewConfig(configPath string, opts ...Option) (*Config, error) {
	return NewConfigWithEnv(configPath, &DefaultEnvProvider{}, opts...)
}

// NewConfigWithEnv creates a new configuration with a custom environment provider (for testing)
func NewConfigWithEnv(configPath string, env EnvProvider, opts ...Option) (*Config, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Config{env: env}
	c.setDefaults(o)

	explicit := configPath != ""
	if !explicit {
		configPath = c.discoverConfigFile(o)
	}
	if configPath != "" {
		if err := c.loadFromYamlFile(configPath, explicit); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	c.loadFromEnv()

	if o.dataDir != "" {
		c.DataDir = o.dataDir
	}

	c.derivePaths()

	// The .env file is only consulted once the data dir is final.
	if c.EncryptionKey == "" {
		c.EncryptionKey = c.readEncryptionKeyFromEnvFile()
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}

func (c *Config) setDefaults(o *options) {
	c.DataDir = getDefaultDataDirWithEnv(c.env)
	c.LogLevel = "info"
	if o.cliDefaults {
		c.LogLevel = "silent"
	}
	c.ColorEnabled = true
	c.RequestTimeout = 30 * time.Second
	c.DeployTimeout = 120 * time.Second
	c.PollWait = 500 * time.Millisecond
	c.TaskTimeout = 0
}

// discoverConfigFile looks for config.yaml in the data directory that the
// environment or the CLI selects.
func (c *Config) discoverConfigFile(o *options) string {
	dir := c.DataDir
	if v := c.env.Getenv(EnvPrefix + "DATA_DIR"); v != "" {
		dir = v
	}
	if o.dataDir != "" {
		dir = o.dataDir
	}
	path := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

func (c *Config) loadFromYamlFile(path string, explicit bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("failed to parse YAML config %s: %w", path, err)
	}
	c.ConfigPath = path

	if yc.DataDir != "" {
		c.DataDir = yc.DataDir
	}
	if yc.DatabasePath != "" {
		c.DatabasePath = yc.DatabasePath
	}
	if yc.LogLevel != "" {
		c.LogLevel = yc.LogLevel
	}
	if yc.ColorEnabled != nil {
		c.ColorEnabled = *yc.ColorEnabled
	}
	// Invalid durations are ignored and the defaults kept
	setDuration(&c.RequestTimeout, yc.HTTP.RequestTimeout)
	setDuration(&c.DeployTimeout, yc.HTTP.DeployTimeout)
	setDuration(&c.PollWait, yc.Task.PollWait)
	setDuration(&c.TaskTimeout, yc.Task.Timeout)
	if yc.EncryptionKey != "" {
		c.EncryptionKey = yc.EncryptionKey
	}
	return nil
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	if d, err := time.ParseDuration(v); err == nil {
		*dst = d
	}
}

// loadFromEnv loads configuration from environment variables
func (c *Config) loadFromEnv() {
	if v := c.env.Getenv(EnvPrefix + "DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := c.env.Getenv(EnvPrefix + "DATABASE_PATH"); v != "" {
		c.DatabasePath = v
	}
	if v := c.env.Getenv(EnvPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := c.env.Getenv(EnvPrefix + "COLOR_ENABLED"); v != "" {
		if enabled, err := strconv.ParseBool(v); err == nil {
			c.ColorEnabled = enabled
		}
	}
	setDuration(&c.RequestTimeout, c.env.Getenv(EnvPrefix+"REQUEST_TIMEOUT"))
	setDuration(&c.DeployTimeout, c.env.Getenv(EnvPrefix+"DEPLOY_TIMEOUT"))
	setDuration(&c.PollWait, c.env.Getenv(EnvPrefix+"POLL_WAIT"))
	setDuration(&c.TaskTimeout, c.env.Getenv(EnvPrefix+"TASK_TIMEOUT"))
	if v := c.env.Getenv(EncryptionKeyVar); v != "" {
		c.EncryptionKey = v
	}
}

// EnvFilePath is the .env file in the data directory.
func (c *Config) EnvFilePath() string {
	return filepath.Join(c.DataDir, EnvFileName)
}

func (c *Config) readEncryptionKeyFromEnvFile() string {
	envVars, err := dotenv.Read(c.EnvFilePath())
	if err != nil {
		// A missing .env file is fine
		return ""
	}
	return envVars[EncryptionKeyVar]
}

// PersistEncryptionKey appends key to the .env file in the data directory
// and makes it the configured key.
func (c *Config) PersistEncryptionKey(key string) error {
	if err := os.MkdirAll(c.DataDir, 0o700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	f, err := os.OpenFile(c.EnvFilePath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", c.EnvFilePath(), err)
	}
	defer f.Close() //nolint:errcheck

	if _, err := fmt.Fprintf(f, "%s=%s\n", EncryptionKeyVar, key); err != nil {
		return fmt.Errorf("failed to write %s: %w", c.EnvFilePath(), err)
	}
	c.EncryptionKey = key
	return nil
}

func (c *Config) derivePaths() {
	if c.DatabasePath == "" {
		c.DatabasePath = filepath.Join(c.DataDir, DatabaseFile)
	}
}

func (c *Config) validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got: %v", c.RequestTimeout)
	}
	if c.DeployTimeout <= 0 {
		return fmt.Errorf("deploy timeout must be positive, got: %v", c.DeployTimeout)
	}
	if c.PollWait <= 0 {
		return fmt.Errorf("poll wait must be positive, got: %v", c.PollWait)
	}
	if c.TaskTimeout < 0 {
		return fmt.Errorf("task timeout cannot be negative, got: %v", c.TaskTimeout)
	}
	return nil
}
