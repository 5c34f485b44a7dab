package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Version information - set by GoReleaser during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// GetVersionInfo returns a formatted version string
func GetVersionInfo() string {
	return fmt.Sprintf("codetrack version %s, commit %s, built at %s", version, commit, date)
}

type Config struct {
	Backend BackendConfig `mapstructure:"backend"`
	Session SessionConfig `mapstructure:"session"`
	Breaker BreakerConfig `mapstructure:"breaker"`
	SSO     SSOConfig     `mapstructure:"sso"`
	Logging LoggingConfig `mapstructure:"logging"`
	Server  ServerConfig  `mapstructure:"server"`
}

// BackendConfig describes the tracker API the client talks to.
type BackendConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
	APISpecFile string        `mapstructure:"api_spec_file"`
	UserAgent   string        `mapstructure:"user_agent"`
}

// SessionConfig controls where the backend's long-lived refresh cookie is kept
// between runs. The access credential itself is never written to disk.
type SessionConfig struct {
	CookieFile string `mapstructure:"cookie_file"`
}

type BreakerConfig struct {
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type SSOConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	StartPath  string `mapstructure:"start_path"`
}

type ServerMode string

const (
	ServerModeSSE   ServerMode = "sse"
	ServerModeSTDIO ServerMode = "stdio"
	ServerModeHTTP  ServerMode = "http"
)

type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	Host    string     `mapstructure:"host"`
	Mode    ServerMode `mapstructure:"mode"`
	Name    string     `mapstructure:"name"`
	Version string     `mapstructure:"version"`
}

type LoggingConfig struct {
	Level             string `mapstructure:"level"`
	Format            string `mapstructure:"format"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
	OutputPath        string `mapstructure:"output_path"`
	AppendToFile      bool   `mapstructure:"append_to_file"`
	DisableConsole    bool   `mapstructure:"disable_console"`
}

// InitFlags registers the persistent flags that override config keys.
func InitFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to a codetrack.yaml config file")
	fs.String("base-url", "", "Tracker API base URL")
	fs.String("log-level", "", "Log level (debug|info|warn|error)")
	fs.String("mode", "", "MCP server mode (stdio|sse|http)")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.base_url", "http://localhost:3000/api")
	v.SetDefault("backend.timeout", 30*time.Second)
	v.SetDefault("backend.user_agent", "codetrack/"+version)

	if dir, err := os.UserConfigDir(); err == nil {
		v.SetDefault("session.cookie_file", filepath.Join(dir, "codetrack", "cookies.json"))
	}

	v.SetDefault("breaker.max_requests", 1)
	v.SetDefault("breaker.interval", 60*time.Second)
	v.SetDefault("breaker.timeout", 30*time.Second)
	v.SetDefault("breaker.failure_ratio", 0.5)
	v.SetDefault("breaker.min_requests", 5)

	v.SetDefault("sso.listen_addr", "127.0.0.1:8765")
	v.SetDefault("sso.start_path", "/auth/google")

	v.SetDefault("logging.level", "warn")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.disable_stacktrace", true)

	v.SetDefault("server.mode", string(ServerModeSTDIO))
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.name", "codetrack")
	v.SetDefault("server.version", version)
}

// Load resolves the configuration from defaults, config file, environment
// (CODETRACK_*) and the given flag set, in increasing priority.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CODETRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	configFile := ""
	if fs != nil {
		configFile, _ = fs.GetString("config")
		bindings := map[string]string{
			"backend.base_url": "base-url",
			"logging.level":    "log-level",
			"server.mode":      "mode",
		}
		for key, name := range bindings {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("codetrack")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "codetrack"))
		}
		v.AddConfigPath("/etc/codetrack")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// An explicitly requested file must exist; the search paths are optional.
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks the fields the client cannot run without.
func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("backend.base_url is required, please adjust the config or pass --base-url or CODETRACK_BACKEND_BASE_URL environment variable")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.base_url %q is not an absolute URL", c.Backend.BaseURL)
	}
	switch c.Server.Mode {
	case ServerModeSSE, ServerModeSTDIO, ServerModeHTTP:
	default:
		return fmt.Errorf("unsupported server mode: %s", c.Server.Mode)
	}
	return nil
}
