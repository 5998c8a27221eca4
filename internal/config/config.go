// Package config loads the application settings.
//
// Precedence, lowest to highest:
//  1. built-in defaults (Default)
//  2. an optional YAML file
//  3. environment variables, after a .env file in the working directory
//     has been merged into the environment (existing variables win)
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Facebook FacebookConfig `yaml:"facebook"`
	GenAI    GenAIConfig    `yaml:"genai"`
	Media    MediaConfig    `yaml:"media"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port int `yaml:"port"`
	// PublicBaseURL is the origin users and Instagram reach this server at.
	PublicBaseURL string `yaml:"public_base_url"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	SessionTTL time.Duration `yaml:"session_ttl"`
}

type FacebookConfig struct {
	AppID        string        `yaml:"app_id"`
	AppSecret    string        `yaml:"app_secret"`
	RedirectURI  string        `yaml:"redirect_uri"`
	GraphVersion string        `yaml:"graph_version"`
	GraphTimeout time.Duration `yaml:"graph_timeout"`
}

type GenAIConfig struct {
	APIKey     string `yaml:"api_key"`
	TextModel  string `yaml:"text_model"`
	ImageModel string `yaml:"image_model"`
}

type MediaConfig struct {
	Dir string `yaml:"dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:          8080,
			PublicBaseURL: "http://localhost:8080",
		},
		Database: DatabaseConfig{Path: "data/studio.db"},
		Auth:     AuthConfig{SessionTTL: 12 * time.Hour},
		Facebook: FacebookConfig{
			GraphVersion: "v18.0",
			GraphTimeout: 15 * time.Second,
		},
		GenAI: GenAIConfig{
			TextModel:  "gemini-2.5-flash",
			ImageModel: "imagen-4.0-generate-001",
		},
		Media:   MediaConfig{Dir: "data/media"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and the environment. It does not validate.
func Load(path string) (Config, error) {
	// A missing .env is normal in production.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("config: reading .env: %w", err)
	}

	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("DB_PATH", &c.Database.Path)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("FB_APP_ID", &c.Facebook.AppID)
	str("FB_APP_SECRET", &c.Facebook.AppSecret)
	str("FB_REDIRECT_URI", &c.Facebook.RedirectURI)
	str("FB_GRAPH_VERSION", &c.Facebook.GraphVersion)
	str("GEMINI_API_KEY", &c.GenAI.APIKey)
	str("GENAI_TEXT_MODEL", &c.GenAI.TextModel)
	str("GENAI_IMAGE_MODEL", &c.GenAI.ImageModel)
	str("MEDIA_DIR", &c.Media.Dir)
	str("PUBLIC_BASE_URL", &c.Server.PublicBaseURL)
	str("LOG_LEVEL", &c.Logging.Level)

	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid PORT %q: %w", v, err)
		}
		c.Server.Port = port
	}
	for key, dst := range map[string]*time.Duration{
		"GRAPH_TIMEOUT": &c.Facebook.GraphTimeout,
		"SESSION_TTL":   &c.Auth.SessionTTL,
	} {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("config: invalid %s %q: %w", key, v, err)
			}
			*dst = d
		}
	}
	return nil
}

// Validate reports every missing or malformed setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Server.Port))
	}
	if len(c.Auth.JWTSecret) < 16 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 16 characters"))
	}
	if c.Facebook.AppID == "" {
		errs = append(errs, errors.New("FB_APP_ID is required"))
	}
	if c.Facebook.AppSecret == "" {
		errs = append(errs, errors.New("FB_APP_SECRET is required"))
	}
	if c.Facebook.RedirectURI == "" {
		errs = append(errs, errors.New("FB_REDIRECT_URI is required"))
	}
	if !strings.HasPrefix(c.Facebook.GraphVersion, "v") {
		errs = append(errs, fmt.Errorf("FB_GRAPH_VERSION %q must look like v18.0", c.Facebook.GraphVersion))
	}
	if c.GenAI.APIKey == "" {
		errs = append(errs, errors.New("GEMINI_API_KEY is required"))
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// GraphBaseURL is the versioned Graph API root.
func (c Config) GraphBaseURL() string {
	return "https://graph.facebook.com/" + c.Facebook.GraphVersion
}

// DialogBaseURL is the versioned root of the Facebook Login dialog.
func (c Config) DialogBaseURL() string {
	return "https://www.facebook.com/" + c.Facebook.GraphVersion
}

// ParseLevel maps LOG_LEVEL to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}
