// Package inkwellcmder
package inkwellcmder

import (
	"github.com/spf13/cobra"

	configcmder "github.com/inkwellco/inkwell/cmd/inkwell/config"
	reindexcmder "github.com/inkwellco/inkwell/cmd/inkwell/reindex"
	servecmder "github.com/inkwellco/inkwell/cmd/inkwell/serve"
	tokencmder "github.com/inkwellco/inkwell/cmd/inkwell/token"
	versioncmder "github.com/inkwellco/inkwell/cmd/version"
)

const inkwellLongDesc string = `Inkwell is a personal blog platform with semantic search.

Run the server using:
  inkwell serve        Run the API server

Manage configuration and credentials:
  inkwell config       Get, set, and list configuration values
  inkwell token        Mint a session token locally

Maintenance:
  inkwell reindex      Rebuild the vector index from the content store`

const inkwellShortDesc string = "Inkwell - personal blog with semantic search"

func NewInkwellCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inkwell",
		Short: inkwellShortDesc,
		Long:  inkwellLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Override the .inkwell/ config directory")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(reindexcmder.NewReindexCmd())
	cmd.AddCommand(tokencmder.NewTokenCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
