package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"
)

// Config is the complete client configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Auth      AuthConfig      `yaml:"auth"`
	Photos    PhotosConfig    `yaml:"photos"`
	Log       LogConfig       `yaml:"log"`
	Discovery DiscoveryConfig `yaml:"discovery"`
}

// ServerConfig points the client at the backend
type ServerConfig struct {
	BaseURL  string `yaml:"base_url"`
	TimeoutS int    `yaml:"timeout_s"` // Per request timeout in seconds
}

// AuthConfig holds the credentials used for the password login
type AuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	UserID   int64  `yaml:"user_id"` // Own account id, needed to change preferences
}

// PhotosConfig enables presigned photo URLs when Bucket is set
type PhotosConfig struct {
	Bucket      string `yaml:"bucket"`
	Region      string `yaml:"region"`
	PresignTTLS int    `yaml:"presign_ttl_s"`
}

// LogConfig controls the zap backend
type LogConfig struct {
	Level       string `yaml:"level"` // trace, debug, info, warn, error
	Development bool   `yaml:"development"`
}

// DiscoveryConfig tunes the presentation layer around the discovery session
type DiscoveryConfig struct {
	AutoRefill bool `yaml:"auto_refill"` // Refill once when a batch is exhausted
}

// Environment variables read by Load
const (
	EnvServer   = "SPORTMATCH_SERVER"
	EnvTimeout  = "SPORTMATCH_TIMEOUT_S"
	EnvUsername = "SPORTMATCH_USERNAME"
	EnvPassword = "SPORTMATCH_PASSWORD"
	EnvUserID   = "SPORTMATCH_USER_ID"
	EnvLogLevel = "SPORTMATCH_LOG_LEVEL"
	EnvBucket   = "S3_BUCKET_NAME"
	EnvRegion   = "AWS_REGION"
)

// Default returns the configuration used when nothing else is provided
func Default() Config {
	return Config{
		Server: ServerConfig{
			BaseURL:  "http://localhost:8000",
			TimeoutS: 10,
		},
		Photos: PhotosConfig{
			PresignTTLS: 300,
		},
		Log: LogConfig{
			Level: "info",
		},
		Discovery: DiscoveryConfig{
			AutoRefill: true,
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file at path,
// an optional .env file and SPORTMATCH_* environment variables, in that order.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvServer); v != "" {
		c.Server.BaseURL = v
	}
	if v := os.Getenv(EnvTimeout); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvTimeout, v, err)
		}
		c.Server.TimeoutS = n
	}
	if v := os.Getenv(EnvUsername); v != "" {
		c.Auth.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.Auth.Password = v
	}
	if v := os.Getenv(EnvUserID); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvUserID, v, err)
		}
		c.Auth.UserID = id
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvBucket); v != "" {
		c.Photos.Bucket = v
	}
	if v := os.Getenv(EnvRegion); v != "" {
		c.Photos.Region = v
	}
	return nil
}

// Flags holds the command line overrides registered by RegisterFlags
type Flags struct {
	fs *pflag.FlagSet

	ConfigPath   string
	server       string
	username     string
	password     string
	logLevel     string
	userID       int64
	timeoutS     int
	development  bool
	noAutoRefill bool
}

// RegisterFlags adds the client flags to fs
func RegisterFlags(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}
	fs.StringVarP(&f.ConfigPath, "config", "c", "", "Path to a YAML config file")
	fs.StringVar(&f.server, "server", "", "Backend base URL (e.g. https://api.example.com)")
	fs.StringVarP(&f.username, "username", "u", "", "Login username")
	fs.StringVarP(&f.password, "password", "p", "", "Login password")
	fs.Int64Var(&f.userID, "user-id", 0, "Own account id, enables the prefs command")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	fs.IntVar(&f.timeoutS, "timeout", 0, "Request timeout in seconds")
	fs.BoolVar(&f.development, "dev", false, "Human readable development logging")
	fs.BoolVar(&f.noAutoRefill, "no-auto-refill", false, "Do not refill automatically when a batch runs out")
	return f
}

// Apply copies every flag that was set on the command line into c
func (f *Flags) Apply(c *Config) {
	if f.fs.Changed("server") {
		c.Server.BaseURL = f.server
	}
	if f.fs.Changed("username") {
		c.Auth.Username = f.username
	}
	if f.fs.Changed("password") {
		c.Auth.Password = f.password
	}
	if f.fs.Changed("user-id") {
		c.Auth.UserID = f.userID
	}
	if f.fs.Changed("log-level") {
		c.Log.Level = f.logLevel
	}
	if f.fs.Changed("timeout") {
		c.Server.TimeoutS = f.timeoutS
	}
	if f.fs.Changed("dev") {
		c.Log.Development = f.development
	}
	if f.fs.Changed("no-auto-refill") {
		c.Discovery.AutoRefill = !f.noAutoRefill
	}
}

// Validate reports every invalid field at once
func (c *Config) Validate() error {
	var err error

	u, perr := url.Parse(c.Server.BaseURL)
	switch {
	case c.Server.BaseURL == "":
		err = multierr.Append(err, errors.New("server.base_url is required"))
	case perr != nil:
		err = multierr.Append(err, fmt.Errorf("server.base_url is invalid: %w", perr))
	case u.Scheme != "http" && u.Scheme != "https":
		err = multierr.Append(err, fmt.Errorf("server.base_url must be http or https, got %q", u.Scheme))
	}
	if c.Server.TimeoutS <= 0 {
		err = multierr.Append(err, fmt.Errorf("server.timeout_s must be positive, got %d", c.Server.TimeoutS))
	}
	if c.Auth.Username == "" {
		err = multierr.Append(err, errors.New("auth.username is required"))
	}
	if c.Auth.Password == "" {
		err = multierr.Append(err, errors.New("auth.password is required"))
	}
	if c.Auth.UserID < 0 {
		err = multierr.Append(err, fmt.Errorf("auth.user_id must not be negative, got %d", c.Auth.UserID))
	}
	if c.Photos.Bucket != "" && c.Photos.PresignTTLS <= 0 {
		err = multierr.Append(err, fmt.Errorf("photos.presign_ttl_s must be positive, got %d", c.Photos.PresignTTLS))
	}
	return err
}

// Timeout returns the request timeout as a duration
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Server.TimeoutS) * time.Second
}

// PresignTTL returns the lifetime of presigned photo URLs
func (c *Config) PresignTTL() time.Duration {
	return time.Duration(c.Photos.PresignTTLS) * time.Second
}

// BaseURL returns the server URL without a trailing slash
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.Server.BaseURL, "/")
}
