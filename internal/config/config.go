package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/devfolio-dev/folio/internal/errors"
)

const (
	// ConfigFileName is the name of the JSON configuration file.
	ConfigFileName = "folio.json"

	// YAMLConfigFileName is the name of the YAML configuration file.
	YAMLConfigFileName = "folio.yaml"

	// DefaultPort is the default dev API server port.
	DefaultPort = 8080

	// DefaultHost is the default dev API server host.
	DefaultHost = "localhost"

	// DefaultInterval is the default toggle debounce interval.
	DefaultInterval = time.Second

	// DefaultMaxAttachments matches the editor's image count ceiling.
	DefaultMaxAttachments = 50
)

// Config represents the complete folio configuration.
type Config struct {
	// Toggle configures optimistic toggles (likes).
	Toggle ToggleConfig `json:"toggle,omitempty" yaml:"toggle,omitempty"`

	// Editor configures attachment tracking in the rich document editor.
	Editor EditorConfig `json:"editor,omitempty" yaml:"editor,omitempty"`

	// Server configures the dev API server.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// S3 configures the optional S3 upload store.
	S3 S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`

	// Log configures structured logging.
	Log LogConfig `json:"log,omitempty" yaml:"log,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ToggleConfig contains optimistic toggle settings.
type ToggleConfig struct {
	// Interval is the debounce quiet period (e.g., "1s").
	Interval string `json:"interval,omitempty" yaml:"interval,omitempty"`

	// BaseURL is the resource URL the add-like/remove-like endpoints hang off.
	BaseURL string `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`

	// BeaconTimeout bounds the fire-and-forget teardown request.
	BeaconTimeout string `json:"beaconTimeout,omitempty" yaml:"beaconTimeout,omitempty"`
}

// EditorConfig contains attachment tracking settings.
type EditorConfig struct {
	// ImageTags are the element tags treated as attachments.
	ImageTags []string `json:"imageTags,omitempty" yaml:"imageTags,omitempty"`

	// RefAttr is the attribute carrying the committed reference.
	RefAttr string `json:"refAttr,omitempty" yaml:"refAttr,omitempty"`

	// RecordedAttr marks elements whose reference is already registered.
	RecordedAttr string `json:"recordedAttr,omitempty" yaml:"recordedAttr,omitempty"`

	// FieldName is the hidden form field name used per reference.
	FieldName string `json:"fieldName,omitempty" yaml:"fieldName,omitempty"`

	// MaxAttachments rejects mutations that exceed it. Zero disables the check.
	MaxAttachments int `json:"maxAttachments,omitempty" yaml:"maxAttachments,omitempty"`
}

// ServerConfig contains dev API server settings.
type ServerConfig struct {
	Host string `json:"host,omitempty" yaml:"host,omitempty"`
	Port int    `json:"port,omitempty" yaml:"port,omitempty"`

	// DB is the like store DSN: a SQLite path, postgres:// or mysql://.
	DB string `json:"db,omitempty" yaml:"db,omitempty"`

	// UploadDir is where DiskStore keeps uploads.
	UploadDir string `json:"uploadDir,omitempty" yaml:"uploadDir,omitempty"`

	// UploadTargets are the accepted ?target= values for image uploads.
	UploadTargets []string `json:"uploadTargets,omitempty" yaml:"uploadTargets,omitempty"`

	// MaxUploadSize in bytes.
	MaxUploadSize int64 `json:"maxUploadSize,omitempty" yaml:"maxUploadSize,omitempty"`

	// SessionCache bounds the number of live editor sessions.
	SessionCache int `json:"sessionCache,omitempty" yaml:"sessionCache,omitempty"`

	// UploadMaxAge is how long an unclaimed upload is kept (e.g., "24h").
	UploadMaxAge string `json:"uploadMaxAge,omitempty" yaml:"uploadMaxAge,omitempty"`

	// AllowedOrigins are the CORS origins the server answers.
	// A single "*" wildcard per entry is allowed, e.g. "http://localhost:*".
	AllowedOrigins []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
}

// S3Config contains S3 upload store settings. Empty Bucket disables S3.
type S3Config struct {
	Bucket    string `json:"bucket,omitempty" yaml:"bucket,omitempty"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	AccessKey string `json:"accessKey,omitempty" yaml:"accessKey,omitempty"`
	SecretKey string `json:"secretKey,omitempty" yaml:"secretKey,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty" yaml:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty" yaml:"format,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Toggle: ToggleConfig{
			Interval:      "1s",
			BaseURL:       "http://localhost:8080/api/portfolio",
			BeaconTimeout: "2s",
		},
		Editor: EditorConfig{
			ImageTags:      []string{"img"},
			RefAttr:        "data-ref",
			RecordedAttr:   "data-recorded",
			FieldName:      "images",
			MaxAttachments: DefaultMaxAttachments,
		},
		Server: ServerConfig{
			Host:          DefaultHost,
			Port:          DefaultPort,
			DB:            "folio.db",
			UploadDir:     "uploads",
			UploadTargets: []string{"portfolio", "community", "profile"},
			MaxUploadSize: 10 << 20,
			SessionCache:  256,
			UploadMaxAge:  "24h",
			AllowedOrigins: []string{
				"http://localhost:*",
				"http://127.0.0.1:*",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configuration from the specified directory.
// It prefers folio.json and falls back to folio.yaml.
func Load(dir string) (*Config, error) {
	jsonPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(jsonPath); err == nil {
		return LoadFile(jsonPath)
	}
	yamlPath := filepath.Join(dir, YAMLConfigFileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return LoadFile(yamlPath)
	}
	return nil, errors.New("E141").
		WithDetail("No " + ConfigFileName + " or " + YAMLConfigFileName + " found in " + dir)
}

// LoadFile reads configuration from the specified file path.
// The format is chosen by extension: .yaml/.yml is YAML, anything else JSON.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No configuration found at " + path)
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault loads the config in dir, returning defaults when none exists.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.HasCode(err, "E141") {
		cfg = New()
		cfg.applyEnv()
		return cfg, nil
	}
	return cfg, err
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E120").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E120").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	d := New()

	if c.Toggle.Interval == "" {
		c.Toggle.Interval = d.Toggle.Interval
	}
	if c.Toggle.BaseURL == "" {
		c.Toggle.BaseURL = d.Toggle.BaseURL
	}
	if c.Toggle.BeaconTimeout == "" {
		c.Toggle.BeaconTimeout = d.Toggle.BeaconTimeout
	}

	if len(c.Editor.ImageTags) == 0 {
		c.Editor.ImageTags = d.Editor.ImageTags
	}
	if c.Editor.RefAttr == "" {
		c.Editor.RefAttr = d.Editor.RefAttr
	}
	if c.Editor.RecordedAttr == "" {
		c.Editor.RecordedAttr = d.Editor.RecordedAttr
	}
	if c.Editor.FieldName == "" {
		c.Editor.FieldName = d.Editor.FieldName
	}

	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.DB == "" {
		c.Server.DB = d.Server.DB
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = d.Server.UploadDir
	}
	if len(c.Server.UploadTargets) == 0 {
		c.Server.UploadTargets = d.Server.UploadTargets
	}
	if c.Server.MaxUploadSize == 0 {
		c.Server.MaxUploadSize = d.Server.MaxUploadSize
	}
	if c.Server.SessionCache == 0 {
		c.Server.SessionCache = d.Server.SessionCache
	}
	if c.Server.UploadMaxAge == "" {
		c.Server.UploadMaxAge = d.Server.UploadMaxAge
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = d.Server.AllowedOrigins
	}

	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}

	c.applyEnv()
}

// applyEnv applies FOLIO_* environment overrides.
func (c *Config) applyEnv() {
	if v := os.Getenv("FOLIO_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("FOLIO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("FOLIO_DB"); v != "" {
		c.Server.DB = v
	}
	if v := os.Getenv("FOLIO_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New("E120").
			WithDetail("server.port must be between 0 and 65535")
	}
	if _, err := time.ParseDuration(c.Toggle.Interval); err != nil {
		return errors.New("E120").
			WithDetail("toggle.interval is not a duration: " + c.Toggle.Interval)
	}
	if _, err := time.ParseDuration(c.Toggle.BeaconTimeout); err != nil {
		return errors.New("E120").
			WithDetail("toggle.beaconTimeout is not a duration: " + c.Toggle.BeaconTimeout)
	}
	if _, err := time.ParseDuration(c.Server.UploadMaxAge); err != nil {
		return errors.New("E120").
			WithDetail("server.uploadMaxAge is not a duration: " + c.Server.UploadMaxAge)
	}
	if c.Editor.MaxAttachments < 0 {
		return errors.New("E120").
			WithDetail("editor.maxAttachments must not be negative")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("E120").
			WithDetail("log.format must be text or json, got " + c.Log.Format)
	}
	return nil
}

// Interval returns the parsed toggle debounce interval.
func (c *Config) Interval() time.Duration {
	d, err := time.ParseDuration(c.Toggle.Interval)
	if err != nil || d <= 0 {
		return DefaultInterval
	}
	return d
}

// BeaconTimeout returns the parsed teardown request timeout.
func (c *Config) BeaconTimeout() time.Duration {
	d, err := time.ParseDuration(c.Toggle.BeaconTimeout)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// UploadMaxAge returns how long unclaimed uploads are kept.
func (c *Config) UploadMaxAge() time.Duration {
	d, err := time.ParseDuration(c.Server.UploadMaxAge)
	if err != nil || d <= 0 {
		return 24 * time.Hour
	}
	return d
}

// Address returns the host:port the dev server listens on.
func (c *Config) Address() string {
	return c.Server.Host + ":" + strconv.Itoa(c.Server.Port)
}

// LogLevel returns the slog level for Log.Level.
func (c *Config) LogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// NewLogger builds the slog logger described by Log.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel()}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
