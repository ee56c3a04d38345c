// Package config loads runtime configuration from defaults, an optional TOML
// file, an optional .env file and environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/naka-gawa/stargazers/internal/gateway"
	"github.com/naka-gawa/stargazers/internal/usecase"
)

// DefaultMaxRepos is how many repositories can be charted at once.
const DefaultMaxRepos = 5

// Config holds all configuration for the application.
type Config struct {
	MaxRepos int      `toml:"max_repos"`
	Palette  []string `toml:"palette"`
	// ShareBaseURL is the base of links produced by the share command.
	ShareBaseURL string `toml:"share_base_url"`

	GitHub GitHubConfig `toml:"github"`
	Server ServerConfig `toml:"server"`
}

// GitHubConfig configures the stargazer loader.
type GitHubConfig struct {
	Backend         gateway.Backend `toml:"backend"`
	PageConcurrency int             `toml:"page_concurrency"`
	MaxPages        int             `toml:"max_pages"`
	// Token is never read from the file, only from GITHUB_TOKEN.
	Token string `toml:"-"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		MaxRepos:     DefaultMaxRepos,
		Palette:      append([]string(nil), usecase.DefaultPalette...),
		ShareBaseURL: "http://localhost:8080/",
		GitHub: GitHubConfig{
			Backend:         gateway.BackendREST,
			PageConcurrency: 4,
			MaxPages:        400,
		},
		Server: ServerConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
		},
	}
}

// Load builds the configuration. path may be empty; envFile may point at a
// missing file, which is ignored.
func Load(path, envFile string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.GitHub.Token = os.Getenv("GITHUB_TOKEN")
	if v := os.Getenv("STARGAZERS_MAX_REPOS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid STARGAZERS_MAX_REPOS %q: %w", v, err)
		}
		c.MaxRepos = n
	}
	if v := os.Getenv("STARGAZERS_BACKEND"); v != "" {
		c.GitHub.Backend = gateway.Backend(v)
	}
	if v := os.Getenv("STARGAZERS_ADDR"); v != "" {
		c.Server.Addr = v
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.MaxRepos < 1 {
		return fmt.Errorf("max_repos must be at least 1, got %d", c.MaxRepos)
	}
	if len(c.Palette) == 0 {
		return errors.New("palette must contain at least one color")
	}
	switch c.GitHub.Backend {
	case gateway.BackendREST, gateway.BackendGraphQL:
	default:
		return fmt.Errorf("unknown github backend %q", c.GitHub.Backend)
	}
	if c.GitHub.PageConcurrency < 1 {
		return fmt.Errorf("page_concurrency must be at least 1, got %d", c.GitHub.PageConcurrency)
	}
	return nil
}

// LoaderOptions returns the pagination options for the gateway.
func (c *Config) LoaderOptions() gateway.Options {
	return gateway.Options{
		PageConcurrency: c.GitHub.PageConcurrency,
		MaxPages:        c.GitHub.MaxPages,
	}
}
