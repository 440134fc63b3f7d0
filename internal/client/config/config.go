// Package config loads the terminal client's TOML configuration.
//
// Example ~/.config/notifydo/config.toml:
//
//	server = "https://notifydo.example.com/api"
//	state-path = "~/.local/state/notifydo/state.db"
//
//	[view]
//	sort = "priority"
//	show-completed = true
//	grouped = true
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/sakif/notifydo/internal/client/api"
	"github.com/sakif/notifydo/internal/organizer"
)

// Config is the client configuration. Zero values are filled by Load.
type Config struct {
	Server    string `toml:"server"`
	StatePath string `toml:"state-path"`
	View      View   `toml:"view"`
}

// View holds the default list presentation.
type View struct {
	Sort          string `toml:"sort"`
	ShowCompleted bool   `toml:"show-completed"`
	Grouped       bool   `toml:"grouped"`
}

// Dir is the default configuration directory (~/.config/notifydo).
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(base, "notifydo"), nil
}

// DefaultPath is Dir()/config.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() error {
	if c.Server == "" {
		c.Server = api.DefaultBaseURL
	}

	if c.StatePath == "" {
		dir, err := Dir()
		if err != nil {
			return err
		}
		c.StatePath = filepath.Join(dir, "state.db")
	} else {
		path, err := expandHome(c.StatePath)
		if err != nil {
			return err
		}
		c.StatePath = path
	}

	if c.View.Sort == "" {
		c.View.Sort = string(organizer.SortByDueDate)
	}
	if _, err := organizer.ParseSortKey(c.View.Sort); err != nil {
		return fmt.Errorf("config: view.sort: %w", err)
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expand %s: %w", path, err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
