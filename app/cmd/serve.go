package cmd

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexcodex/specnav/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the outline language server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.New(os.Stderr, "specnav: ", log.LstdFlags)
			srv := server.New(parseFunc(), globalCfg.SessionSettings(), logger)
			logger.Printf("language server listening on stdio")
			return srv.Serve(cmd.Context())
		},
	}
}
