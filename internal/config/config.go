// Package config loads the gateway configuration file. Secrets never live
// here; they come from the environment (see cmd/api).
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"chaingate.org/internal/ratelimit"
)

// Registration holds the sliding-window limits applied to account creation.
type Registration struct {
	AllowedUses int    `yaml:"allowed_uses"`
	Window      int    `yaml:"window"`
	Unit        string `yaml:"unit"`
}

// Limiter converts the section into a limiter config.
func (r Registration) Limiter() ratelimit.Config {
	return ratelimit.Config{
		AllowedUses: r.AllowedUses,
		Window:      r.Window,
		Unit:        ratelimit.Unit(r.Unit),
	}
}

// Creator is the ledger account that pays for and delegates to newly
// registered accounts.
type Creator struct {
	Username   string `yaml:"username"`
	Fee        string `yaml:"fee"`
	Delegation string `yaml:"delegation"`
}

// UserMetadata bounds the per-user metadata blob stored for app sessions.
type UserMetadata struct {
	MaxSize int `yaml:"max_size"`
}

// Config is the top-level gateway configuration.
type Config struct {
	Addr                 string       `yaml:"addr"`
	NodeURL              string       `yaml:"node_url"`
	AuthorizedOperations []string     `yaml:"authorized_operations"`
	Registration         Registration `yaml:"registration"`
	Creator              Creator      `yaml:"creator"`
	UserMetadata         UserMetadata `yaml:"user_metadata"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Addr:    ":8080",
		NodeURL: "https://api.steemit.com",
		AuthorizedOperations: []string{
			"vote", "comment", "delete_comment", "comment_options",
			"custom_json", "claim_reward_balance",
			"follow", "unfollow", "mute", "reblog",
		},
		Registration: Registration{AllowedUses: 1, Window: 1, Unit: string(ratelimit.UnitWeek)},
		UserMetadata: UserMetadata{MaxSize: 10240},
	}
}

// Load reads the YAML file at path over the defaults. A missing file is not
// an error; a malformed one is.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.NodeURL == "" {
		return errors.New("node_url must not be empty")
	}
	if c.UserMetadata.MaxSize < 0 {
		return errors.New("user_metadata.max_size must not be negative")
	}
	// Registration limits are checked again by the limiter at admission
	// time; rejecting them here surfaces typos at startup.
	if err := c.Registration.Limiter().Validate(); err != nil {
		return err
	}
	return nil
}
