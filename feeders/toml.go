package feeders

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"
)

// TomlFeeder reads configuration from a TOML file.
type TomlFeeder struct {
	Path string
}

func NewTomlFeeder(path string) TomlFeeder {
	return TomlFeeder{Path: path}
}

func (t TomlFeeder) Feed(structure any) error {
	if _, err := toml.DecodeFile(t.Path, structure); err != nil {
		return fmt.Errorf("toml feeder: %s: %w", t.Path, err)
	}
	return nil
}

// FeedKey decodes the table named key into target. A missing table leaves
// target untouched.
func (t TomlFeeder) FeedKey(key string, target any) error {
	var all map[string]any
	if err := t.Feed(&all); err != nil {
		return err
	}

	value, exists := all[key]
	if !exists {
		return nil
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(value); err != nil {
		return fmt.Errorf("toml feeder: section %s: %w", key, err)
	}
	if _, err := toml.NewDecoder(&buf).Decode(target); err != nil {
		return fmt.Errorf("toml feeder: section %s: %w", key, err)
	}
	return nil
}
