package cli

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/goccy/go-yaml"
)

const (
	DefaultBaseDir    = ".normacomex"
	DefaultConfigFile = "config.yaml"

	// EnvAPIKey is read when no context is configured.
	EnvAPIKey = "GEMINI_API_KEY"

	// EnvContextName names the context synthesized from EnvAPIKey.
	EnvContextName = "env"
)

// Extra keys understood by normabot.
const (
	ExtraChatModel     = "chat_model"
	ExtraChatProvider  = "chat_provider"
	ExtraOpenAIKey     = "openai_api_key"
	ExtraOpenAIBaseURL = "openai_base_url"
	ExtraTransport     = "transport"
	ExtraLanguage      = "language"
	ExtraExportDir     = "export_dir"
	ExtraS3Bucket      = "s3_bucket"
	ExtraS3Prefix      = "s3_prefix"
	ExtraS3Region      = "s3_region"
	ExtraS3Endpoint    = "s3_endpoint"
	ExtraS3AccessKey   = "s3_access_key"
	ExtraS3SecretKey   = "s3_secret_key"
	ExtraPublicBaseURL = "public_base_url"
	ExtraShareBaseURL  = "share_base_url"
)

// ExtraKeys lists the keys accepted by `config set`.
var ExtraKeys = []string{
	ExtraChatModel, ExtraChatProvider, ExtraOpenAIKey, ExtraOpenAIBaseURL,
	ExtraTransport, ExtraLanguage, ExtraExportDir,
	ExtraS3Bucket, ExtraS3Prefix, ExtraS3Region, ExtraS3Endpoint,
	ExtraS3AccessKey, ExtraS3SecretKey, ExtraPublicBaseURL, ExtraShareBaseURL,
}

// Config is the on-disk configuration of one app.
type Config struct {
	AppName        string              `yaml:"-"`
	CurrentContext string              `yaml:"current_context,omitempty"`
	Contexts       map[string]*Context `yaml:"contexts,omitempty"`

	configPath string
}

// Context is a named set of credentials and settings.
type Context struct {
	Name         string            `yaml:"name"`
	APIKey       string            `yaml:"api_key,omitempty"`
	BaseURL      string            `yaml:"base_url,omitempty"`
	Model        string            `yaml:"model,omitempty"`
	DefaultVoice string            `yaml:"default_voice,omitempty"`
	Extra        map[string]string `yaml:"extra,omitempty"`
}

// LoadConfig loads ~/.normacomex/<app>/config.yaml, creating it if missing.
func LoadConfig(appName string) (*Config, error) {
	return LoadConfigWithPath(appName, "")
}

// LoadConfigWithPath loads configuration from customPath, or from the
// default location when customPath is empty.
func LoadConfigWithPath(appName, customPath string) (*Config, error) {
	configPath := customPath
	if configPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		configPath = filepath.Join(home, DefaultBaseDir, appName, DefaultConfigFile)
	}
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	cfg := &Config{AppName: appName, configPath: configPath}
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
		cfg.Contexts = make(map[string]*Context)
		return cfg, cfg.Save()
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.Contexts == nil {
		cfg.Contexts = make(map[string]*Context)
	}
	cfg.AppName = appName
	cfg.configPath = configPath
	return cfg, nil
}

// Save writes the configuration with owner-only permissions.
func (c *Config) Save() error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(c.configPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) Path() string { return c.configPath }

func (c *Config) Dir() string { return filepath.Dir(c.configPath) }

// AddContext stores ctx under name, replacing any existing context.
func (c *Config) AddContext(name string, ctx *Context) error {
	ctx.Name = name
	c.Contexts[name] = ctx
	return c.Save()
}

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

func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return c.Save()
}

func (c *Config) GetContext(name string) (*Context, error) {
	ctx, ok := c.Contexts[name]
	if !ok {
		return nil, fmt.Errorf("context %q not found", name)
	}
	return ctx, nil
}

// Resolve returns the named context, or the current one when name is
// empty. Without a current context it falls back to a context built from
// $GEMINI_API_KEY.
func (c *Config) Resolve(name string) (*Context, error) {
	if name != "" {
		return c.GetContext(name)
	}
	if c.CurrentContext != "" {
		return c.GetContext(c.CurrentContext)
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		return &Context{Name: EnvContextName, APIKey: key}, nil
	}
	return nil, fmt.Errorf("no current context set and $%s is empty; run `config add-context`", EnvAPIKey)
}

// ListContexts returns the context names in sorted order.
func (c *Config) ListContexts() []string {
	return slices.Sorted(maps.Keys(c.Contexts))
}

func (ctx *Context) GetExtra(key string) string {
	if ctx.Extra == nil {
		return ""
	}
	return ctx.Extra[key]
}

// SetExtra sets key, or removes it when value is empty.
func (ctx *Context) SetExtra(key, value string) {
	if value == "" {
		delete(ctx.Extra, key)
		return
	}
	if ctx.Extra == nil {
		ctx.Extra = make(map[string]string)
	}
	ctx.Extra[key] = value
}

// ExtraOr returns the extra value for key, or def when unset.
func (ctx *Context) ExtraOr(key, def string) string {
	if v := ctx.GetExtra(key); v != "" {
		return v
	}
	return def
}

// MaskAPIKey hides all but the first and last four characters.
func MaskAPIKey(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", len(key)-8) + key[len(key)-4:]
}
