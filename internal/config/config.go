package config

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"github.com/kosmojs/dev/internal/errors"
	"github.com/kosmojs/dev/internal/paths"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = paths.ConfigFile

	// DefaultSourceFolder is the folder holding api/ and pages/.
	DefaultSourceFolder = "src"

	// DefaultFramework is the default frontend framework.
	DefaultFramework = "react"

	// DefaultRefineTypeName is the type name used for validation refinements.
	DefaultRefineTypeName = "TRefine"

	// DefaultPort is the default dev status server port.
	DefaultPort = 4000

	// DefaultHost is the default dev status server host.
	DefaultHost = "localhost"

	// DefaultOutDir is the default build output directory.
	DefaultOutDir = "dist"

	// DefaultWatchDelay is the default watcher stability delay in milliseconds.
	DefaultWatchDelay = 1000
)

// Worker isolation modes.
const (
	IsolationProcess   = "process"
	IsolationGoroutine = "goroutine"
)

var frameworks = []string{"react", "solid", "vue", "svelte"}

// Config represents the complete kosmo.json configuration.
type Config struct {
	// SourceFolder is the folder under the project root holding api/ and pages/.
	SourceFolder string `json:"sourceFolder,omitempty"`

	// Framework selects the page file extensions (react, solid, vue, svelte).
	Framework string `json:"framework,omitempty"`

	// BaseURL is the public base URL of the app.
	BaseURL string `json:"baseurl,omitempty"`

	// APIURL is the URL prefix API routes are served under.
	APIURL string `json:"apiurl,omitempty"`

	// OutDir is the build output directory.
	OutDir string `json:"outDir,omitempty"`

	// RefineTypeName is the type name used for runtime validation refinements.
	RefineTypeName string `json:"refineTypeName,omitempty"`

	// Generators lists user generators in registration order.
	Generators []ModuleConfig `json:"generators,omitempty"`

	// Formatters lists output formatters applied to rendered files.
	Formatters []ModuleConfig `json:"formatters,omitempty"`

	// Dev contains dev session configuration.
	Dev DevConfig `json:"dev,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// ModuleConfig names a registered module and its serializable options.
type ModuleConfig struct {
	// Module is the name the module is registered under.
	Module string `json:"module"`

	// Config is passed verbatim to the module factory.
	Config json.RawMessage `json:"config,omitempty"`
}

// DevConfig contains dev session settings.
type DevConfig struct {
	// Host is the host the status server binds to.
	Host string `json:"host,omitempty"`

	// Port is the status server port.
	Port int `json:"port,omitempty"`

	// Isolation is either "process" or "goroutine".
	Isolation string `json:"isolation,omitempty"`

	// Watch contains watcher settings.
	Watch WatchConfig `json:"watch,omitempty"`

	// Ignore contains glob patterns to ignore during watch.
	Ignore []string `json:"ignore,omitempty"`

	// Metrics exposes /metrics on the status server.
	Metrics bool `json:"metrics,omitempty"`
}

// WatchConfig contains watcher settings.
type WatchConfig struct {
	// Delay is how long a file must stay unchanged before it is handled, in milliseconds.
	Delay int `json:"delay,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		SourceFolder:   DefaultSourceFolder,
		Framework:      DefaultFramework,
		BaseURL:        "/",
		APIURL:         "/api",
		OutDir:         DefaultOutDir,
		RefineTypeName: DefaultRefineTypeName,
		Dev: DevConfig{
			Host:      DefaultHost,
			Port:      DefaultPort,
			Isolation: IsolationProcess,
			Watch:     WatchConfig{Delay: DefaultWatchDelay},
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for kosmo.json in the directory.
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)
	return LoadFile(configPath)
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E141").
				WithDetail("No kosmo.json found in " + filepath.Dir(path)).
				WithSuggestion("Create kosmo.json in the project root")
		}
		return nil, errors.New("E120").Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("E120").
			WithDetail("Failed to parse kosmo.json: " + err.Error()).
			WithSuggestion("Check that kosmo.json is valid JSON")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.New("E120").Wrap(err)
	}
	cfg.configPath = abs
	cfg.applyDefaults()

	return cfg, nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// SetAppRoot points the config at an app root without a config file.
func (c *Config) SetAppRoot(dir string) {
	c.configPath = filepath.Join(dir, ConfigFileName)
}

// AppRoot returns the project root.
func (c *Config) AppRoot() string {
	return c.Dir()
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.SourceFolder == "" {
		c.SourceFolder = DefaultSourceFolder
	}
	if c.Framework == "" {
		c.Framework = DefaultFramework
	}
	if c.RefineTypeName == "" {
		c.RefineTypeName = DefaultRefineTypeName
	}
	if c.OutDir == "" {
		c.OutDir = DefaultOutDir
	}

	// Dev
	if c.Dev.Host == "" {
		c.Dev.Host = DefaultHost
	}
	if c.Dev.Port == 0 {
		c.Dev.Port = DefaultPort
	}
	if c.Dev.Isolation == "" {
		c.Dev.Isolation = IsolationProcess
	}
	if c.Dev.Watch.Delay == 0 {
		c.Dev.Watch.Delay = DefaultWatchDelay
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if !slices.Contains(frameworks, c.Framework) {
		return errors.New("E121").
			WithDetailf("Unknown framework %q", c.Framework).
			WithSuggestion("Use one of react, solid, vue or svelte")
	}
	if filepath.IsAbs(c.SourceFolder) || c.SourceFolder == "." || c.SourceFolder == ".." {
		return errors.New("E122").
			WithDetail("sourceFolder must be a folder name relative to the project root")
	}
	if c.Dev.Port < 0 || c.Dev.Port > 65535 {
		return errors.New("E122").
			WithDetail("Port must be between 0 and 65535")
	}
	if c.Dev.Isolation != IsolationProcess && c.Dev.Isolation != IsolationGoroutine {
		return errors.New("E122").
			WithDetailf("dev.isolation must be %q or %q, got %q", IsolationProcess, IsolationGoroutine, c.Dev.Isolation)
	}
	if c.Dev.Watch.Delay < 0 {
		return errors.New("E122").
			WithDetail("dev.watch.delay must not be negative")
	}
	for i, g := range c.Generators {
		if g.Module == "" {
			return errors.New("E122").
				WithDetailf("generators[%d].module is empty", i)
		}
	}
	for i, f := range c.Formatters {
		if f.Module == "" {
			return errors.New("E122").
				WithDetailf("formatters[%d].module is empty", i)
		}
	}
	if dir := c.AppRoot(); dir != "" {
		if info, err := os.Stat(filepath.Join(dir, c.SourceFolder)); err != nil || !info.IsDir() {
			return errors.New("E123").
				WithDetail("Missing " + filepath.Join(dir, c.SourceFolder))
		}
	}
	return nil
}

// Paths returns the directory resolver for this project.
func (c *Config) Paths() paths.Resolver {
	return paths.New(c.AppRoot(), c.SourceFolder)
}

// PageExtensions returns the page file extensions for the configured framework.
func (c *Config) PageExtensions() []string {
	switch c.Framework {
	case "react", "solid":
		return []string{"tsx"}
	case "vue":
		return []string{"vue"}
	case "svelte":
		return []string{"svelte"}
	default:
		return []string{"tsx", "ts"}
	}
}

// WatchDelay returns the watcher stability delay.
func (c *Config) WatchDelay() time.Duration {
	return time.Duration(c.Dev.Watch.Delay) * time.Millisecond
}

// DevAddress returns the address string for the dev status server.
func (c *Config) DevAddress() string {
	return net.JoinHostPort(c.Dev.Host, strconv.Itoa(c.Dev.Port))
}

// DevURL returns the full URL for the dev status server.
func (c *Config) DevURL() string {
	return "http://" + c.DevAddress()
}

// OutputPath returns the absolute path to the build output directory.
func (c *Config) OutputPath() string {
	if filepath.IsAbs(c.OutDir) {
		return c.OutDir
	}
	return filepath.Join(c.Dir(), c.OutDir)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	path := filepath.Join(dir, ConfigFileName)
	_, err := os.Stat(path)
	return err == nil
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing kosmo.json, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E141").
				WithDetail("No kosmo.json found in " + startDir + " or any parent directory").
				WithSuggestion("Create kosmo.json in the project root")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		return nil, err
	}

	return Load(root)
}
