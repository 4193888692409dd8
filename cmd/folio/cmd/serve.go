package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

func NewServeCommand() *cobra.Command {
	opts := AppOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the portfolio site and API",
		Long: `Run the HTTP server. Configuration is read from --config (YAML or TOML)
and then from environment variables named PREFIX_SECTION_FIELD, for example
FOLIO_HTTPSERVER_PORT=8080 or FOLIO_CONTENT_ADMIN_PASSWORD=secret.

The server stops gracefully on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.LogOutput = cmd.ErrOrStderr()
			app, err := BuildApplication(opts)
			if err != nil {
				return err
			}
			return app.Run()
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", os.Getenv("FOLIO_CONFIG"), "Path to a YAML or TOML config file")
	cmd.Flags().StringVar(&opts.EnvPrefix, "env-prefix", "FOLIO", "Prefix of configuration environment variables; empty disables them")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&opts.LogFormat, "log-format", "text", "Log format (text or json)")
	return cmd
}
