package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/haivivi/pcmsink/pkg/audio/resampler"
	"github.com/haivivi/pcmsink/pkg/audio/sink"
)

const (
	// DefaultBaseDir is the base configuration directory name
	DefaultBaseDir = ".pcmsink"
	// DefaultConfigFile is the default configuration filename
	DefaultConfigFile = "config.yaml"
)

// Config represents the main configuration structure for a CLI app
type Config struct {
	// AppName is the application name
	AppName string `yaml:"-"`

	// CurrentContext is the name of the currently active context
	CurrentContext string `yaml:"current_context,omitempty"`

	// Contexts is a map of context name to context configuration
	Contexts map[string]*Context `yaml:"contexts,omitempty"`

	// configPath is the path to the config file
	configPath string
}

// Context is one named output setup: which device to play through and how
// the sink in front of it is configured.
type Context struct {
	// Name is the context name
	Name string `yaml:"name"`

	// Backend selects the device: portaudio, oto or wav.
	Backend string `yaml:"backend,omitempty"`

	// Port selects the output within the backend (device name, index or
	// file path).
	Port string `yaml:"port,omitempty"`

	// BufferDesiredLength in frames. Unset means the default; 0 is a valid
	// setting.
	BufferDesiredLength *int `yaml:"buffer_desired_length,omitempty"`

	// LatencyOffset in frames.
	LatencyOffset int `yaml:"latency_offset,omitempty"`

	// ResampleMode is oneshot or continuous.
	ResampleMode string `yaml:"resample_mode,omitempty"`

	// Quality is the resampler preset: quick, low, medium, high, very-high.
	Quality string `yaml:"quality,omitempty"`

	// DeviceRate overrides the device sample rate where the backend allows it.
	DeviceRate int `yaml:"device_rate,omitempty"`

	// FramesPerBuffer is the device callback size; 0 lets the backend choose.
	FramesPerBuffer int `yaml:"frames_per_buffer,omitempty"`

	// Extra stores backend-specific settings
	Extra map[string]string `yaml:"extra,omitempty"`
}

// LoadConfig loads or creates configuration for the specified app
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from a custom path
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	var configPath string

	if customPath != "" {
		configPath = customPath
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, DefaultBaseDir, appName, DefaultConfigFile)
	}

	// Ensure config directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{
		AppName:    appName,
		Contexts:   make(map[string]*Context),
		configPath: configPath,
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Create empty config file
			return cfg, cfg.Save()
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Ensure contexts map is initialized
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}

	cfg.AppName = appName
	cfg.configPath = configPath

	return cfg, nil
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Path returns the config file path
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the config directory path
func (c *Config) Dir() string {
	return filepath.Dir(c.configPath)
}

// AddContext adds a new context
func (c *Config) AddContext(name string, ctx *Context) error {
	ctx.Name = name
	c.Contexts[name] = ctx
	return c.Save()
}

// DeleteContext removes a context
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	return c.Save()
}

// UseContext sets the current context
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

// GetContext returns a specific context
func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// GetCurrentContext returns the current context
func (c *Config) GetCurrentContext() (*Context, error) {
	if c.CurrentContext == "" {
		return nil, fmt.Errorf("no current context set")
	}
	return c.GetContext(c.CurrentContext)
}

// ResolveContext returns the context by name, or the current context if name
// is empty. With neither, it returns an empty context so every setting takes
// its default.
func (c *Config) ResolveContext(name string) (*Context, error) {
	if name == "" {
		if c.CurrentContext == "" {
			return &Context{}, nil
		}
		return c.GetCurrentContext()
	}
	return c.GetContext(name)
}

// ListContexts returns all context names, sorted
func (c *Config) ListContexts() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// GetExtra returns an extra value for the context
func (ctx *Context) GetExtra(key string) string {
	if ctx.Extra == nil {
		return ""
	}
	return ctx.Extra[key]
}

// SetExtra sets an extra value for the context
func (ctx *Context) SetExtra(key, value string) {
	if ctx.Extra == nil {
		ctx.Extra = make(map[string]string)
	}
	ctx.Extra[key] = value
}

// Options converts the context to sink options. Unknown names and out of
// range numbers are reported as sink.ErrInvalidConfig.
func (ctx *Context) Options() (sink.Options, error) {
	opts := sink.DefaultOptions()
	opts.PortSpec = ctx.Port
	if ctx.BufferDesiredLength != nil {
		opts.BufferDesiredLength = *ctx.BufferDesiredLength
	}
	opts.LatencyOffset = ctx.LatencyOffset

	mode, err := resampler.ParseMode(ctx.ResampleMode)
	if err != nil {
		return opts, fmt.Errorf("%w: %w", sink.ErrInvalidConfig, err)
	}
	opts.ResampleMode = mode

	q, err := resampler.ParseQuality(ctx.Quality)
	if err != nil {
		return opts, fmt.Errorf("%w: %w", sink.ErrInvalidConfig, err)
	}
	opts.Quality = q

	if ctx.DeviceRate < 0 {
		return opts, fmt.Errorf("%w: device rate %d", sink.ErrInvalidConfig, ctx.DeviceRate)
	}
	if ctx.FramesPerBuffer < 0 {
		return opts, fmt.Errorf("%w: frames per buffer %d", sink.ErrInvalidConfig, ctx.FramesPerBuffer)
	}
	return opts, opts.Validate()
}
