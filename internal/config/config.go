package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultAddress is the bind address used when neither the command line nor a
// configuration file provides one.
const DefaultAddress = "[::1]:4000"

// LogLevel defines the minimum severity for application logs.
type LogLevel string

const (
	LogLevelDebug   LogLevel = "DEBUG"
	LogLevelInfo    LogLevel = "INFO"
	LogLevelWarning LogLevel = "WARNING"
	LogLevelError   LogLevel = "ERROR"
)

// LogFormat selects how log lines are rendered.
type LogFormat string

const (
	// LogFormatConsole renders colored, human oriented lines.
	LogFormatConsole LogFormat = "console"
	// LogFormatJSON renders one JSON object per line.
	LogFormatJSON LogFormat = "json"
)

// Config is the top-level configuration structure for the server.
type Config struct {
	Server  *ServerConfig  `json:"server,omitempty" toml:"server,omitempty" yaml:"server,omitempty"`
	Logging *LoggingConfig `json:"logging,omitempty" toml:"logging,omitempty" yaml:"logging,omitempty"`
}

// ServerConfig holds general server settings.
type ServerConfig struct {
	// Address is an IP literal with port, e.g. "127.0.0.1:8080" or "[::1]:4000".
	Address *string `json:"address,omitempty" toml:"address,omitempty" yaml:"address,omitempty"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Quiet    *bool     `json:"quiet,omitempty" toml:"quiet,omitempty" yaml:"quiet,omitempty"`
	LogLevel LogLevel  `json:"log_level,omitempty" toml:"log_level,omitempty" yaml:"log_level,omitempty"`
	Format   LogFormat `json:"format,omitempty" toml:"format,omitempty" yaml:"format,omitempty"`
}

// ConfigError reports a problem with a configuration file or value.
type ConfigError struct {
	FilePath string
	Message  string
	Err      error
}

func (e *ConfigError) Error() string {
	var sb strings.Builder
	sb.WriteString("config")
	if e.FilePath != "" {
		sb.WriteString(" ")
		sb.WriteString(e.FilePath)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Message)
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *ConfigError) Unwrap() error { return e.Err }

type fileFormat int

const (
	formatUnknown fileFormat = iota
	formatJSON
	formatTOML
	formatYAML
)

// Default returns a configuration with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// LoadConfig reads, parses, defaults and validates the configuration file at
// filePath. The format is chosen by extension (.json, .toml, .yaml, .yml);
// for any other extension the content is sniffed: a leading '{' means JSON,
// anything else is parsed as TOML.
func LoadConfig(filePath string) (*Config, error) {
	if filePath == "" {
		return nil, &ConfigError{Message: "configuration file path cannot be empty"}
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, &ConfigError{FilePath: filePath, Message: "failed to read configuration file", Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ConfigError{FilePath: filePath, Message: "configuration file is empty"}
	}

	cfg := &Config{}
	switch detectFormat(filePath, data) {
	case formatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(cfg); err != nil {
			return nil, &ConfigError{FilePath: filePath, Message: "failed to parse JSON configuration", Err: err}
		}
	case formatTOML:
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return nil, &ConfigError{FilePath: filePath, Message: "failed to parse TOML configuration", Err: err}
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, &ConfigError{FilePath: filePath, Message: fmt.Sprintf("unknown TOML keys: %v", undecoded)}
		}
	case formatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, &ConfigError{FilePath: filePath, Message: "failed to parse YAML configuration", Err: err}
		}
	default:
		return nil, &ConfigError{FilePath: filePath, Message: "unable to determine configuration format"}
	}

	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		var cfgErr *ConfigError
		if errors.As(err, &cfgErr) && cfgErr.FilePath == "" {
			cfgErr.FilePath = filePath
		}
		return nil, err
	}
	return cfg, nil
}

func detectFormat(filePath string, data []byte) fileFormat {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".json":
		return formatJSON
	case ".toml":
		return formatTOML
	case ".yaml", ".yml":
		return formatYAML
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return formatUnknown
	}
	if trimmed[0] == '{' {
		return formatJSON
	}
	return formatTOML
}

// ApplyDefaults fills every unset field of cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server == nil {
		cfg.Server = &ServerConfig{}
	}
	if cfg.Server.Address == nil {
		addr := DefaultAddress
		cfg.Server.Address = &addr
	}

	if cfg.Logging == nil {
		cfg.Logging = &LoggingConfig{}
	}
	if cfg.Logging.Quiet == nil {
		quiet := false
		cfg.Logging.Quiet = &quiet
	}
	if cfg.Logging.LogLevel == "" {
		cfg.Logging.LogLevel = LogLevelInfo
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = LogFormatConsole
	}
}

// Validate checks a defaulted configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &ConfigError{Message: "configuration cannot be nil"}
	}
	if cfg.Server == nil || cfg.Server.Address == nil {
		return &ConfigError{Message: "server.address is not configured"}
	}
	if _, err := ParseListenAddress(*cfg.Server.Address); err != nil {
		return &ConfigError{Message: "invalid server.address", Err: err}
	}

	if cfg.Logging == nil {
		return &ConfigError{Message: "logging section is missing"}
	}
	switch cfg.Logging.LogLevel {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
	default:
		return &ConfigError{Message: fmt.Sprintf("invalid logging.log_level %q", cfg.Logging.LogLevel)}
	}
	switch cfg.Logging.Format {
	case LogFormatConsole, LogFormatJSON:
	default:
		return &ConfigError{Message: fmt.Sprintf("invalid logging.format %q", cfg.Logging.Format)}
	}
	return nil
}

// ParseListenAddress parses an IP literal with port. Host names are rejected
// so that the bound interface is never ambiguous.
func ParseListenAddress(addr string) (netip.AddrPort, error) {
	if strings.TrimSpace(addr) == "" {
		return netip.AddrPort{}, errors.New("address cannot be empty")
	}
	ap, err := netip.ParseAddrPort(addr)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("address %q must be ip:port: %w", addr, err)
	}
	return ap, nil
}

// Address returns the configured bind address.
func (c *Config) Address() string {
	if c.Server == nil || c.Server.Address == nil {
		return DefaultAddress
	}
	return *c.Server.Address
}

// Quiet reports whether all output should be suppressed.
func (c *Config) Quiet() bool {
	return c.Logging != nil && c.Logging.Quiet != nil && *c.Logging.Quiet
}
