package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/pders01/sift/internal/validation"
)

const (
	KindJSON = "json"
	KindFeed = "feed"

	DefaultEndpoint = "https://jsonplaceholder.typicode.com/posts"
)

type Config struct {
	API    APIConfig    `mapstructure:"api"`
	Search SearchConfig `mapstructure:"search"`
	UI     UIConfig     `mapstructure:"ui"`
	Keys   KeyConfig    `mapstructure:"keys"`
	Log    LogConfig    `mapstructure:"log"`
}

type APIConfig struct {
	Endpoint   string        `mapstructure:"endpoint" validate:"required"`
	Kind       string        `mapstructure:"kind" validate:"oneof=json feed"`
	PageSize   int           `mapstructure:"page_size" validate:"min=1,max=100"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent  string        `mapstructure:"user_agent"`
	AllowLocal bool          `mapstructure:"allow_local"`
}

type SearchConfig struct {
	Debounce       time.Duration `mapstructure:"debounce" validate:"gte=0"`
	DefaultMode    string        `mapstructure:"default_mode" validate:"omitempty,oneof=title full fuzzy"`
	MaxQueryLength int           `mapstructure:"max_query_length" validate:"min=1"`
}

type UIConfig struct {
	Colors UIColors     `mapstructure:"colors"`
	Reader ReaderConfig `mapstructure:"reader"`
}

type UIColors struct {
	Primary   string `mapstructure:"primary" validate:"omitempty,hexcolor"`
	Secondary string `mapstructure:"secondary" validate:"omitempty,hexcolor"`
	Accent    string `mapstructure:"accent" validate:"omitempty,hexcolor"`
	Text      string `mapstructure:"text" validate:"omitempty,hexcolor"`
	Muted     string `mapstructure:"muted" validate:"omitempty,hexcolor"`
	Error     string `mapstructure:"error" validate:"omitempty,hexcolor"`
}

type ReaderConfig struct {
	DescriptionLength int `mapstructure:"description_length" validate:"min=0"`
	WordWrapMaxWidth  int `mapstructure:"word_wrap_max_width" validate:"gtefield=WordWrapMinWidth"`
	WordWrapMinWidth  int `mapstructure:"word_wrap_min_width" validate:"min=10"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier" validate:"oneof=ctrl alt"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit      string `mapstructure:"quit" validate:"required"`
	Search    string `mapstructure:"search" validate:"required"`
	NextPage  string `mapstructure:"next_page" validate:"required"`
	PrevPage  string `mapstructure:"prev_page" validate:"required"`
	CycleMode string `mapstructure:"cycle_mode" validate:"required"`
	Reload    string `mapstructure:"reload" validate:"required"`
	Back      string `mapstructure:"back" validate:"required"`
}

type LogConfig struct {
	Level      string `mapstructure:"level" validate:"omitempty,oneof=debug info warn warning error off"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"min=1"`
	MaxBackups int    `mapstructure:"max_backups" validate:"min=0"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		API: APIConfig{
			Endpoint:  DefaultEndpoint,
			Kind:      KindJSON,
			PageSize:  10,
			Timeout:   15 * time.Second,
			UserAgent: "sift/1.0 (https://github.com/pders01/sift)",
		},
		Search: SearchConfig{
			Debounce:       400 * time.Millisecond,
			DefaultMode:    "title",
			MaxQueryLength: 256,
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:   "#FF6B6B",
				Secondary: "#4ECDC4",
				Accent:    "#95E1D3",
				Text:      "#EAEAEA",
				Muted:     "#94A3B8",
				Error:     "#F87171",
			},
			Reader: ReaderConfig{
				DescriptionLength: 80,
				WordWrapMaxWidth:  120,
				WordWrapMinWidth:  40,
			},
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:      "q",
				Search:    "/",
				NextPage:  "n",
				PrevPage:  "p",
				CycleMode: "t",
				Reload:    "r",
				Back:      "esc",
			},
		},
		Log: LogConfig{
			Level:      "off",
			Path:       filepath.Join(homeDir, ".sift", "sift.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Default returns a fresh copy of the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// DefaultPath is where Load looks for config.toml when no path is given.
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "sift", "config.toml")
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("api.endpoint", cfg.API.Endpoint)
	v.SetDefault("api.kind", cfg.API.Kind)
	v.SetDefault("api.page_size", cfg.API.PageSize)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)
	v.SetDefault("api.allow_local", cfg.API.AllowLocal)

	v.SetDefault("search.debounce", cfg.Search.Debounce)
	v.SetDefault("search.default_mode", cfg.Search.DefaultMode)
	v.SetDefault("search.max_query_length", cfg.Search.MaxQueryLength)

	v.SetDefault("ui.colors.primary", cfg.UI.Colors.Primary)
	v.SetDefault("ui.colors.secondary", cfg.UI.Colors.Secondary)
	v.SetDefault("ui.colors.accent", cfg.UI.Colors.Accent)
	v.SetDefault("ui.colors.text", cfg.UI.Colors.Text)
	v.SetDefault("ui.colors.muted", cfg.UI.Colors.Muted)
	v.SetDefault("ui.colors.error", cfg.UI.Colors.Error)
	v.SetDefault("ui.reader.description_length", cfg.UI.Reader.DescriptionLength)
	v.SetDefault("ui.reader.word_wrap_max_width", cfg.UI.Reader.WordWrapMaxWidth)
	v.SetDefault("ui.reader.word_wrap_min_width", cfg.UI.Reader.WordWrapMinWidth)

	v.SetDefault("keys.modifier", cfg.Keys.Modifier)
	v.SetDefault("keys.bindings.quit", cfg.Keys.Bindings.Quit)
	v.SetDefault("keys.bindings.search", cfg.Keys.Bindings.Search)
	v.SetDefault("keys.bindings.next_page", cfg.Keys.Bindings.NextPage)
	v.SetDefault("keys.bindings.prev_page", cfg.Keys.Bindings.PrevPage)
	v.SetDefault("keys.bindings.cycle_mode", cfg.Keys.Bindings.CycleMode)
	v.SetDefault("keys.bindings.reload", cfg.Keys.Bindings.Reload)
	v.SetDefault("keys.bindings.back", cfg.Keys.Bindings.Back)

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.path", cfg.Log.Path)
	v.SetDefault("log.max_size_mb", cfg.Log.MaxSizeMB)
	v.SetDefault("log.max_backups", cfg.Log.MaxBackups)
}

// Load layers defaults, the TOML config file and SIFT_* environment
// variables. A .env file in the working directory is read first and never
// overrides variables that are already set.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("reading .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, defaultConfig())

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("SIFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	expandPaths(&config)
	config.Log.Level = strings.ToLower(strings.TrimSpace(config.Log.Level))

	if err := Validate(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints and the endpoint URL.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ev := validation.NewEndpointValidator()
	if cfg.API.AllowLocal {
		ev = validation.NewPermissiveEndpointValidator()
	}
	normalized, err := ev.ValidateAndNormalize(cfg.API.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid config: api.endpoint: %w", err)
	}
	cfg.API.Endpoint = normalized
	return nil
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Log.Path = expandPath(cfg.Log.Path)
}

// Save writes cfg as TOML. Durations are written in their string form so
// the file stays hand-editable.
func Save(config *Config, path string) error {
	doc := map[string]any{
		"api": map[string]any{
			"endpoint":    config.API.Endpoint,
			"kind":        config.API.Kind,
			"page_size":   config.API.PageSize,
			"timeout":     config.API.Timeout.String(),
			"user_agent":  config.API.UserAgent,
			"allow_local": config.API.AllowLocal,
		},
		"search": map[string]any{
			"debounce":         config.Search.Debounce.String(),
			"default_mode":     config.Search.DefaultMode,
			"max_query_length": config.Search.MaxQueryLength,
		},
		"ui": map[string]any{
			"colors": map[string]any{
				"primary":   config.UI.Colors.Primary,
				"secondary": config.UI.Colors.Secondary,
				"accent":    config.UI.Colors.Accent,
				"text":      config.UI.Colors.Text,
				"muted":     config.UI.Colors.Muted,
				"error":     config.UI.Colors.Error,
			},
			"reader": map[string]any{
				"description_length":  config.UI.Reader.DescriptionLength,
				"word_wrap_max_width": config.UI.Reader.WordWrapMaxWidth,
				"word_wrap_min_width": config.UI.Reader.WordWrapMinWidth,
			},
		},
		"keys": map[string]any{
			"modifier": config.Keys.Modifier,
			"bindings": map[string]any{
				"quit":       config.Keys.Bindings.Quit,
				"search":     config.Keys.Bindings.Search,
				"next_page":  config.Keys.Bindings.NextPage,
				"prev_page":  config.Keys.Bindings.PrevPage,
				"cycle_mode": config.Keys.Bindings.CycleMode,
				"reload":     config.Keys.Bindings.Reload,
				"back":       config.Keys.Bindings.Back,
			},
		},
		"log": map[string]any{
			"level":       config.Log.Level,
			"path":        config.Log.Path,
			"max_size_mb": config.Log.MaxSizeMB,
			"max_backups": config.Log.MaxBackups,
		},
	}

	data, err := toml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return os.WriteFile(path, data, 0o644)
}

// GenerateDefaultConfig writes the built-in configuration to path.
func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
