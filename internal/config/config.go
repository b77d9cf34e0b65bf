// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Supported page drivers.
const (
	DriverChromedp = "chromedp"
	DriverStatic   = "static"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Database() DatabaseConfig
	Browser() BrowserConfig
	Agenda() AgendaConfig
	Suite() SuiteConfig
	Fixture() FixtureConfig

	// Agenda Setters
	SetAgendaBaseURL(string)
	SetAgendaDriver(string)

	// Browser Setters
	SetBrowserHeadless(bool)

	// Suite Setters
	SetSuitePaths([]string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	DatabaseCfg DatabaseConfig `mapstructure:"database" yaml:"database"`
	BrowserCfg  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	AgendaCfg   AgendaConfig   `mapstructure:"agenda" yaml:"agenda"`
	SuiteCfg    SuiteConfig    `mapstructure:"suite" yaml:"suite"`
	FixtureCfg  FixtureConfig  `mapstructure:"fixture" yaml:"fixture"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Database() DatabaseConfig { return c.DatabaseCfg }
func (c *Config) Browser() BrowserConfig   { return c.BrowserCfg }
func (c *Config) Agenda() AgendaConfig     { return c.AgendaCfg }
func (c *Config) Suite() SuiteConfig       { return c.SuiteCfg }
func (c *Config) Fixture() FixtureConfig   { return c.FixtureCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetAgendaBaseURL(u string) { c.AgendaCfg.BaseURL = u }
func (c *Config) SetAgendaDriver(d string)  { c.AgendaCfg.Driver = d }
func (c *Config) SetBrowserHeadless(b bool) { c.BrowserCfg.Headless = b }
func (c *Config) SetSuitePaths(p []string)  { c.SuiteCfg.Paths = p }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// DatabaseConfig holds the results database connection details. An empty URL
// disables result persistence.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// BrowserConfig holds settings for the headless browser used by the chromedp driver.
type BrowserConfig struct {
	Headless          bool           `mapstructure:"headless" yaml:"headless"`
	DisableCache      bool           `mapstructure:"disable_cache" yaml:"disable_cache"`
	IgnoreTLSErrors   bool           `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	Debug             bool           `mapstructure:"debug" yaml:"debug"`
	ExecPath          string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args              []string       `mapstructure:"args" yaml:"args"`
	Viewport          map[string]int `mapstructure:"viewport" yaml:"viewport"`
	NavigationTimeout time.Duration  `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ActionTimeout     time.Duration  `mapstructure:"action_timeout" yaml:"action_timeout"`
}

// AgendaConfig describes where the agenda page lives and how to read it.
type AgendaConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	Path    string `mapstructure:"path" yaml:"path"`
	// Driver selects the page implementation: "chromedp" or "static".
	Driver              string          `mapstructure:"driver" yaml:"driver"`
	RequestTimeout      time.Duration   `mapstructure:"request_timeout" yaml:"request_timeout"`
	MaxActionsPerSecond float64         `mapstructure:"max_actions_per_second" yaml:"max_actions_per_second"`
	Selectors           SelectorsConfig `mapstructure:"selectors" yaml:"selectors"`
}

// SelectorsConfig names the markup hooks of the agenda page. Each driver
// derives its own query syntax (CSS or XPath) from these.
type SelectorsConfig struct {
	ListID         string `mapstructure:"list_id" yaml:"list_id"`
	ItemAttr       string `mapstructure:"item_attr" yaml:"item_attr"`
	BookmarkedAttr string `mapstructure:"bookmarked_attr" yaml:"bookmarked_attr"`
	TitleClass     string `mapstructure:"title_class" yaml:"title_class"`
	FormClass      string `mapstructure:"form_class" yaml:"form_class"`
	ToggleClass    string `mapstructure:"toggle_class" yaml:"toggle_class"`
}

// SuiteConfig configures the godog test suite.
type SuiteConfig struct {
	Name          string   `mapstructure:"name" yaml:"name"`
	Paths         []string `mapstructure:"paths" yaml:"paths"`
	Tags          string   `mapstructure:"tags" yaml:"tags"`
	Format        string   `mapstructure:"format" yaml:"format"`
	Concurrency   int      `mapstructure:"concurrency" yaml:"concurrency"`
	Strict        bool     `mapstructure:"strict" yaml:"strict"`
	StopOnFailure bool     `mapstructure:"stop_on_failure" yaml:"stop_on_failure"`
	Randomize     int64    `mapstructure:"randomize" yaml:"randomize"`
}

// FixtureConfig configures the bundled agenda application served by `serve`.
type FixtureConfig struct {
	Addr       string `mapstructure:"addr" yaml:"addr"`
	Seed       int    `mapstructure:"seed" yaml:"seed"`
	Bookmarked bool   `mapstructure:"bookmarked" yaml:"bookmarked"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "agenda-bdd")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.disable_cache", true)
	v.SetDefault("browser.ignore_tls_errors", false)
	v.SetDefault("browser.debug", false)
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.action_timeout", "10s")

	// -- Agenda --
	v.SetDefault("agenda.base_url", "http://localhost:8080")
	v.SetDefault("agenda.path", "/agenda")
	v.SetDefault("agenda.driver", DriverChromedp)
	v.SetDefault("agenda.request_timeout", "15s")
	v.SetDefault("agenda.max_actions_per_second", 10.0)
	v.SetDefault("agenda.selectors.list_id", "agenda-proposals")
	v.SetDefault("agenda.selectors.item_attr", "data-proposal-id")
	v.SetDefault("agenda.selectors.bookmarked_attr", "data-bookmarked")
	v.SetDefault("agenda.selectors.title_class", "proposal-title")
	v.SetDefault("agenda.selectors.form_class", "bookmark-form")
	v.SetDefault("agenda.selectors.toggle_class", "bookmark-toggle")

	// -- Suite --
	v.SetDefault("suite.name", "agenda")
	v.SetDefault("suite.paths", []string{})
	v.SetDefault("suite.format", "pretty")
	v.SetDefault("suite.concurrency", 1)
	v.SetDefault("suite.strict", true)
	v.SetDefault("suite.stop_on_failure", false)

	// -- Fixture --
	v.SetDefault("fixture.addr", "127.0.0.1:8080")
	v.SetDefault("fixture.seed", 5)
	v.SetDefault("fixture.bookmarked", false)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	_ = v.BindEnv("database.url", "AGENDA_BDD_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.DatabaseCfg.URL == "" {
		cfg.DatabaseCfg.URL = os.Getenv("AGENDA_BDD_DATABASE_URL")
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// expandPaths resolves a leading "~" in every file system path.
func (c *Config) expandPaths() error {
	if c.LoggerCfg.LogFile != "" {
		p, err := homedir.Expand(c.LoggerCfg.LogFile)
		if err != nil {
			return fmt.Errorf("failed to expand logger.log_file: %w", err)
		}
		c.LoggerCfg.LogFile = p
	}
	if c.BrowserCfg.ExecPath != "" {
		p, err := homedir.Expand(c.BrowserCfg.ExecPath)
		if err != nil {
			return fmt.Errorf("failed to expand browser.exec_path: %w", err)
		}
		c.BrowserCfg.ExecPath = p
	}
	for i, path := range c.SuiteCfg.Paths {
		p, err := homedir.Expand(path)
		if err != nil {
			return fmt.Errorf("failed to expand suite path %q: %w", path, err)
		}
		c.SuiteCfg.Paths[i] = p
	}
	return nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.AgendaCfg.Validate(); err != nil {
		return fmt.Errorf("agenda configuration invalid: %w", err)
	}
	if err := c.SuiteCfg.Validate(); err != nil {
		return fmt.Errorf("suite configuration invalid: %w", err)
	}
	if c.BrowserCfg.NavigationTimeout <= 0 {
		return fmt.Errorf("browser.navigation_timeout must be a positive duration")
	}
	if c.BrowserCfg.ActionTimeout <= 0 {
		return fmt.Errorf("browser.action_timeout must be a positive duration")
	}
	return nil
}

// Validate checks the agenda settings.
func (a *AgendaConfig) Validate() error {
	u, err := url.Parse(a.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("base_url must be an absolute URL, got %q", a.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base_url scheme must be http or https, got %q", u.Scheme)
	}
	switch strings.ToLower(a.Driver) {
	case DriverChromedp, DriverStatic:
	default:
		return fmt.Errorf("driver must be %q or %q, got %q", DriverChromedp, DriverStatic, a.Driver)
	}
	if a.MaxActionsPerSecond < 0 {
		return fmt.Errorf("max_actions_per_second must not be negative")
	}
	s := a.Selectors
	if s.ListID == "" || s.ItemAttr == "" || s.BookmarkedAttr == "" || s.TitleClass == "" || s.FormClass == "" || s.ToggleClass == "" {
		return fmt.Errorf("every selector (list_id, item_attr, bookmarked_attr, title_class, form_class, toggle_class) is required")
	}
	return nil
}

// Validate checks the suite settings.
func (s *SuiteConfig) Validate() error {
	if s.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be a positive integer")
	}
	if s.Format == "" {
		return fmt.Errorf("format is required")
	}
	return nil
}
