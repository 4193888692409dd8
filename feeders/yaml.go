package feeders

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// YamlFeeder reads configuration from a YAML file.
type YamlFeeder struct {
	Path string
}

func NewYamlFeeder(path string) YamlFeeder {
	return YamlFeeder{Path: path}
}

func (y YamlFeeder) Feed(structure any) error {
	data, err := os.ReadFile(y.Path)
	if err != nil {
		return fmt.Errorf("yaml feeder: %w", err)
	}
	if err := yaml.Unmarshal(data, structure); err != nil {
		return fmt.Errorf("yaml feeder: %s: %w", y.Path, err)
	}
	return nil
}

// FeedKey decodes the top-level mapping entry named key into target. A
// missing key leaves target untouched.
func (y YamlFeeder) FeedKey(key string, target any) error {
	var all map[string]yaml.Node
	if err := y.Feed(&all); err != nil {
		return err
	}

	node, exists := all[key]
	if !exists {
		return nil
	}
	if err := node.Decode(target); err != nil {
		return fmt.Errorf("yaml feeder: section %s: %w", key, err)
	}
	return nil
}
