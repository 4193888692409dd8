package cmd

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/GoCodeAlone/folio"
	"github.com/GoCodeAlone/folio/modules/logmasker"
)

func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(newConfigSampleCommand())
	cmd.AddCommand(newConfigCheckCommand())
	return cmd
}

func newConfigSampleCommand() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Print every config section with its default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return WriteSampleConfig(cmd.OutOrStdout(), format)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "yaml", "Output format (yaml or toml)")
	return cmd
}

func newConfigCheckCommand() *cobra.Command {
	opts := AppOptions{LogLevel: "error"}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Load and validate configuration without starting the server",
		Long: `Load configuration from --config and the environment and run every
section's validation. Sections are checked the way serve loads them, so
database connections are not opened.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.LogOutput = cmd.ErrOrStderr()
			sections, err := LoadSections(opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK (%d sections)\n", len(sections))
			return nil
		},
	}
	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Path to a YAML or TOML config file")
	cmd.Flags().StringVar(&opts.EnvPrefix, "env-prefix", "FOLIO", "Prefix of configuration environment variables")
	return cmd
}

// defaultSections registers every module's config section and fills in its
// defaults.
func defaultSections() (map[string]any, error) {
	app := folio.NewStdApplication(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	for _, module := range Modules(nil) {
		if c, ok := module.(folio.Configurable); ok {
			if err := c.RegisterConfig(app); err != nil {
				return nil, err
			}
		}
	}

	sections := make(map[string]any)
	for name, cp := range app.ConfigSections() {
		cfg := cp.GetConfig()
		if err := folio.ApplyDefaults(cfg); err != nil {
			return nil, fmt.Errorf("section %s: %w", name, err)
		}
		sections[name] = cfg
	}
	return sections, nil
}

func WriteSampleConfig(w io.Writer, format string) error {
	sections, err := defaultSections()
	if err != nil {
		return err
	}

	switch format {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(sections); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	case "toml":
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(sections); err != nil {
			return fmt.Errorf("encoding toml: %w", err)
		}
		_, err := buf.WriteTo(w)
		return err
	}
	return fmt.Errorf("%w: %s", ErrUnsupportedConfigFormat, format)
}

// LoadSections feeds and validates every config section as Init would,
// without initializing modules.
func LoadSections(opts AppOptions) (map[string]folio.ConfigProvider, error) {
	base, err := NewLogger(opts.LogOutput, opts.LogLevel, "text")
	if err != nil {
		return nil, err
	}
	masker, err := logmasker.NewMaskingLogger(base, nil)
	if err != nil {
		return nil, err
	}
	configFeeders, err := ConfigFeeders(opts.ConfigFile, opts.EnvPrefix)
	if err != nil {
		return nil, err
	}

	app := folio.NewStdApplication(nil, masker)
	app.SetConfigFeeders(configFeeders...)
	for _, module := range Modules(masker) {
		if c, ok := module.(folio.Configurable); ok {
			if err := c.RegisterConfig(app); err != nil {
				return nil, err
			}
		}
	}
	if err := app.LoadConfig(); err != nil {
		return nil, err
	}
	return app.ConfigSections(), nil
}
