package site

import (
	"fmt"
	"os"
)

// Config is the site section.
type Config struct {
	Title string `yaml:"title" toml:"title" env:"TITLE" default:"Portfolio"`
	// Background is the hero backdrop image.
	Background string `yaml:"background" toml:"background" env:"BACKGROUND" default:"https://images.unsplash.com/photo-1487412840181-f63f62e6a0ee"`
	// TemplatesDir switches to development mode: pages are parsed from this
	// directory instead of the embedded copies and re-parsed on change.
	TemplatesDir string `yaml:"templates_dir" toml:"templates_dir" env:"TEMPLATES_DIR"`
	MaxFormBytes int64  `yaml:"max_form_bytes" toml:"max_form_bytes" env:"MAX_FORM_BYTES" default:"1048576"`
}

func (c *Config) Validate() error {
	if c.TemplatesDir != "" {
		info, err := os.Stat(c.TemplatesDir)
		if err != nil {
			return fmt.Errorf("%w: templates_dir: %w", ErrInvalidConfig, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: templates_dir %s is not a directory", ErrInvalidConfig, c.TemplatesDir)
		}
	}
	if c.MaxFormBytes <= 0 {
		c.MaxFormBytes = 1 << 20
	}
	return nil
}
