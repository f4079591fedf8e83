package adapter

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/mmcdole/postbrowser/internal/search"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// DefaultSourceURL is the collection resource fetched when nothing else is configured
const DefaultSourceURL = "https://jsonplaceholder.typicode.com/posts"

// Config holds all application configuration
type Config struct {
	Source  SourceConfig  `mapstructure:"source"`
	Search  SearchConfig  `mapstructure:"search"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SourceConfig holds the collection resource settings
type SourceConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"` // 0 = transport default
}

// SearchConfig holds search field settings
type SearchConfig struct {
	Mode        search.Mode `mapstructure:"mode"`
	Query       string      `mapstructure:"query"`        // Initial query
	History     bool        `mapstructure:"history"`      // Remember submitted queries
	HistoryFile string      `mapstructure:"history_file"` // Empty = memory only
	HistorySize int         `mapstructure:"history_size"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	Mouse     bool `mapstructure:"mouse"`
	BodyLines int  `mapstructure:"body_lines"` // Max body lines per card, 0 = unlimited
	Plain     bool `mapstructure:"plain"`      // Print results instead of starting the TUI
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			URL:     DefaultSourceURL,
			Timeout: 30 * time.Second,
		},
		Search: SearchConfig{
			Mode:        search.ModeSubstring,
			History:     true,
			HistoryFile: filepath.Join(defaultDataPath(), "history.db"),
			HistorySize: 50,
		},
		UI: UIConfig{
			Mouse:     true,
			BodyLines: 3,
		},
		Logging: LoggingConfig{
			File:  filepath.Join(defaultDataPath(), "postbrowser.log"),
			Level: "INFO",
		},
	}
}

// defaultDataPath returns the directory for logs and history on the current OS
func defaultDataPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "postbrowser")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "postbrowser")
	}
}

// DefaultConfigPath returns the default config directory for the current OS
func DefaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "postbrowser")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "postbrowser")
	}
}

// RegisterFlags adds the flags that override config keys
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to config file")
	fs.String("url", "", "collection URL to fetch")
	fs.String("query", "", "initial search query")
	fs.String("mode", "", "search mode: substring, fuzzy or subsequence")
	fs.Bool("plain", false, "print matching posts instead of starting the UI")
}

// flagKeys maps flag names to the config keys they override
var flagKeys = map[string]string{
	"url":   "source.url",
	"query": "search.query",
	"mode":  "search.mode",
	"plain": "ui.plain",
}

// LoadConfig loads configuration from file, environment and flags.
// Flags only override when explicitly set; fs may be nil.
func LoadConfig(fs *pflag.FlagSet) (*Config, error) {
	v := newViper()

	configFile := ""
	if fs != nil {
		configFile, _ = fs.GetString("config")
	}
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(DefaultConfigPath())
		v.AddConfigPath(".")
	}

	// Environment variable overrides, e.g. POSTBROWSER_SOURCE_URL
	v.SetEnvPrefix("POSTBROWSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("error binding flag %s: %w", name, err)
				}
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newViper returns a viper instance seeded with every default, so env
// overrides work for keys that are absent from the config file.
func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range configValues(DefaultConfig()) {
		v.SetDefault(key, value)
	}
	return v
}

// configValues flattens cfg into snake_case viper keys
func configValues(cfg *Config) map[string]any {
	return map[string]any{
		"source.url":          cfg.Source.URL,
		"source.timeout":      cfg.Source.Timeout,
		"search.mode":         string(cfg.Search.Mode),
		"search.query":        cfg.Search.Query,
		"search.history":      cfg.Search.History,
		"search.history_file": cfg.Search.HistoryFile,
		"search.history_size": cfg.Search.HistorySize,
		"ui.mouse":            cfg.UI.Mouse,
		"ui.body_lines":       cfg.UI.BodyLines,
		"ui.plain":            cfg.UI.Plain,
		"logging.file":        cfg.Logging.File,
		"logging.level":       cfg.Logging.Level,
	}
}

// Validate checks the values that would otherwise fail late at runtime
func (c *Config) Validate() error {
	u, err := url.Parse(c.Source.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid source url %q: must be an absolute http(s) URL", c.Source.URL)
	}
	if c.Source.Timeout < 0 {
		return fmt.Errorf("invalid source timeout %s", c.Source.Timeout)
	}
	if !c.Search.Mode.Valid() {
		return fmt.Errorf("unknown search mode %q", c.Search.Mode)
	}
	if c.Search.HistorySize < 0 {
		return fmt.Errorf("invalid history size %d", c.Search.HistorySize)
	}
	if c.UI.BodyLines < 0 {
		return fmt.Errorf("invalid body lines %d", c.UI.BodyLines)
	}
	return nil
}

// SaveConfig writes cfg as YAML into dir (DefaultConfigPath when empty)
// and returns the written file path
func SaveConfig(cfg *Config, dir string) (string, error) {
	if dir == "" {
		dir = DefaultConfigPath()
	}

	// Ensure config directory exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	for key, value := range configValues(cfg) {
		// Transient values are not worth persisting
		if key == "search.query" || key == "ui.plain" {
			continue
		}
		if d, ok := value.(time.Duration); ok {
			value = d.String()
		}
		v.Set(key, value)
	}

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configFile, nil
}
