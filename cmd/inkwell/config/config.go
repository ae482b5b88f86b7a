// Package configcmder provides the config command for managing persistent
// inkwell configuration stored in the .inkwell/ directory.
package configcmder

import (
	"github.com/spf13/cobra"
)

const configLongDesc string = `Manage persistent inkwell configuration.

Configuration is stored as config.toml in the .inkwell/ directory and provides
default values for command flags. CLI flags always take precedence over
config file values.

Keys use dotted notation matching the TOML section structure:
  storage.provider, storage.sqlite_path, storage.postgres_dsn,
  api.listen,
  vector_store.provider, vector_store.target, vector_store.sqlite_path,
  embedding.provider, embedding.target, embedding.model, embedding.dimensions,
  auth.secret, auth.subject, auth.trusted_header,
  auth.trust_local_origins, auth.local_origins,
  events.provider, events.brokers, events.topic

Use subcommands to get, set, or list configuration values:
  inkwell config set <key> <value>    Set a configuration value
  inkwell config get <key>            Get a configuration value
  inkwell config list                 List all configuration values

Examples:
  inkwell config set storage.provider postgres
  inkwell config set embedding.model nomic-embed-text
  inkwell config get auth.subject
  inkwell config list`

const configShortDesc string = "Manage persistent inkwell configuration"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}
