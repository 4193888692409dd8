package content

import "fmt"

// Config is the content section.
type Config struct {
	// Store selects the backend: "memory" or "sqlite". sqlite uses the
	// database module's connection named by Connection.
	Store      string `yaml:"store" toml:"store" default:"memory" env:"STORE"`
	Connection string `yaml:"connection" toml:"connection" default:"default" env:"CONNECTION"`

	Admin AdminConfig `yaml:"admin" toml:"admin" env:"ADMIN"`

	// SeedSections creates the default sections when the store has none.
	SeedSections bool `yaml:"seed_sections" toml:"seed_sections" default:"true" env:"SEED_SECTIONS"`

	MaxBodyBytes int64 `yaml:"max_body_bytes" toml:"max_body_bytes" default:"1048576" env:"MAX_BODY_BYTES"`
}

// AdminConfig is the account created at startup when it does not exist.
// PasswordHash wins over Password; with neither set a random password is
// generated and logged once.
type AdminConfig struct {
	Username     string `yaml:"username" toml:"username" default:"admin" env:"USERNAME"`
	Password     string `yaml:"password" toml:"password" env:"PASSWORD"`
	PasswordHash string `yaml:"password_hash" toml:"password_hash" env:"PASSWORD_HASH"`
}

func (c *Config) Validate() error {
	switch c.Store {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedStore, c.Store)
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	return nil
}
