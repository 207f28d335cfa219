package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	cderror "github.com/msto63/cobdoc/foundation/core/error"
	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable that points at the config file
const EnvConfigPath = "COBDOC_CONFIG"

// Config holds the complete application configuration
type Config struct {
	General  GeneralConfig  `toml:"general" yaml:"general"`
	Parser   ParserConfig   `toml:"parser" yaml:"parser"`
	Analysis AnalysisConfig `toml:"analysis" yaml:"analysis"`
	Store    StoreConfig    `toml:"store" yaml:"store"`
	Server   ServerConfig   `toml:"server" yaml:"server"`
}

// GeneralConfig holds general application settings
type GeneralConfig struct {
	Name      string `toml:"name" yaml:"name"`
	DataDir   string `toml:"data_dir" yaml:"data_dir"`
	LogLevel  string `toml:"log_level" yaml:"log_level"`
	LogFormat string `toml:"log_format" yaml:"log_format"`
	LogFile   string `toml:"log_file" yaml:"log_file"`
}

// ParserConfig holds front-end limits
type ParserConfig struct {
	MaxInputLength int `toml:"max_input_length" yaml:"max_input_length"`
}

// AnalysisConfig holds static analyzer settings
type AnalysisConfig struct {
	NestedCalls   bool     `toml:"nested_calls" yaml:"nested_calls"`
	MaxTraceDepth int      `toml:"max_trace_depth" yaml:"max_trace_depth"`
	Timeout       Duration `toml:"timeout" yaml:"timeout"`
	CacheSize     int      `toml:"cache_size" yaml:"cache_size"` // 0 disables the result cache
	CacheTTL      Duration `toml:"cache_ttl" yaml:"cache_ttl"`
}

// StoreConfig holds run history persistence settings
type StoreConfig struct {
	Enabled bool   `toml:"enabled" yaml:"enabled"`
	Path    string `toml:"path" yaml:"path"`
}

// ServerConfig holds gRPC server settings
type ServerConfig struct {
	Host              string   `toml:"host" yaml:"host"`
	Port              int      `toml:"port" yaml:"port"`
	EnableReflection  bool     `toml:"reflection" yaml:"reflection"`
	KeepaliveInterval Duration `toml:"keepalive_interval" yaml:"keepalive_interval"`
	KeepaliveTimeout  Duration `toml:"keepalive_timeout" yaml:"keepalive_timeout"`
	ShutdownTimeout   Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// Duration wraps time.Duration for TOML and YAML parsing
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText formats the duration as a string
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// UnmarshalYAML parses a duration scalar
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	return d.UnmarshalText([]byte(node.Value))
}

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := newPrefilled()
	cfg.applyDefaults()
	return cfg
}

// newPrefilled returns a Config holding the defaults that cannot be told
// apart from an explicit zero after decoding
func newPrefilled() *Config {
	return &Config{
		Analysis: AnalysisConfig{CacheSize: 128},
		Store:    StoreConfig{Enabled: true},
		Server:   ServerConfig{EnableReflection: true},
	}
}

// Load loads configuration from a TOML or YAML file, chosen by extension
func Load(path string) (*Config, error) {
	// Expand environment variables in path
	path = os.ExpandEnv(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cderror.Newf("config file not found: %s", path).
				WithCode(cderror.CodeNotFound).
				WithOperation("config.Load")
		}
		return nil, cderror.Wrap(err, "failed to read config").
			WithCode(cderror.CodeConfigError).
			WithOperation("config.Load")
	}

	cfg := newPrefilled()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		_, err = toml.Decode(string(data), cfg)
	}
	if err != nil {
		return nil, cderror.Wrap(err, "failed to parse config").
			WithCode(cderror.CodeConfigError).
			WithDetail("path", path).
			WithOperation("config.Load")
	}

	// Expand environment variables before defaults derive paths from them
	cfg.expandEnvVars()

	// Apply defaults
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from the COBDOC_CONFIG environment
// variable or the first default location that exists. Without any config
// file the defaults are returned.
func LoadFromEnv() (*Config, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = findDefaultPath()
	}

	if path == "" {
		return Default(), nil
	}

	return Load(path)
}

// DefaultPaths lists the locations searched when COBDOC_CONFIG is unset
func DefaultPaths() []string {
	paths := []string{
		"./configs/config.toml",
		"./configs/config.yaml",
		"./config.toml",
		"./config.yaml",
	}
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config/cobdoc/config.toml"))
	}
	return paths
}

func findDefaultPath() string {
	for _, p := range DefaultPaths() {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// General
	if c.General.Name == "" {
		c.General.Name = "cobdoc"
	}
	if c.General.DataDir == "" {
		c.General.DataDir = "./data"
	}
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	if c.General.LogFormat == "" {
		c.General.LogFormat = "text"
	}

	// Parser
	if c.Parser.MaxInputLength == 0 {
		c.Parser.MaxInputLength = 1 << 20
	}

	// Analysis
	if c.Analysis.MaxTraceDepth == 0 {
		c.Analysis.MaxTraceDepth = 10
	}
	if c.Analysis.Timeout.Duration == 0 {
		c.Analysis.Timeout.Duration = 30 * time.Second
	}
	if c.Analysis.CacheTTL.Duration == 0 {
		c.Analysis.CacheTTL.Duration = 10 * time.Minute
	}

	// Store
	if c.Store.Path == "" {
		c.Store.Path = filepath.Join(c.General.DataDir, "cobdoc.db")
	}

	// Server
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 9300
	}
	if c.Server.KeepaliveInterval.Duration == 0 {
		c.Server.KeepaliveInterval.Duration = 30 * time.Second
	}
	if c.Server.KeepaliveTimeout.Duration == 0 {
		c.Server.KeepaliveTimeout.Duration = 10 * time.Second
	}
	if c.Server.ShutdownTimeout.Duration == 0 {
		c.Server.ShutdownTimeout.Duration = 10 * time.Second
	}
}

// expandEnvVars expands environment variables in path-like values
func (c *Config) expandEnvVars() {
	c.General.DataDir = os.ExpandEnv(c.General.DataDir)
	c.General.LogFile = os.ExpandEnv(c.General.LogFile)
	c.Store.Path = os.ExpandEnv(c.Store.Path)
	c.Server.Host = os.ExpandEnv(c.Server.Host)
}

// Validate checks value ranges
func (c *Config) Validate() error {
	invalid := func(key string, value interface{}) error {
		return cderror.Newf("invalid config value for %s: %v", key, value).
			WithCode(cderror.CodeConfigError).
			WithDetail("key", key).
			WithOperation("config.Validate")
	}

	if c.Parser.MaxInputLength < 0 {
		return invalid("parser.max_input_length", c.Parser.MaxInputLength)
	}
	if c.Analysis.MaxTraceDepth < 0 {
		return invalid("analysis.max_trace_depth", c.Analysis.MaxTraceDepth)
	}
	if c.Analysis.CacheSize < 0 {
		return invalid("analysis.cache_size", c.Analysis.CacheSize)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("server.port", c.Server.Port)
	}
	switch strings.ToLower(c.General.LogFormat) {
	case "json", "text", "console", "logfmt":
	default:
		return invalid("general.log_format", c.General.LogFormat)
	}
	return nil
}

// ServerAddress returns the host:port the gRPC server listens on
func (c *Config) ServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
