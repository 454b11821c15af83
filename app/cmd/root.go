// Package cmd wires the specnav command tree.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexcodex/specnav/config"
	"github.com/lexcodex/specnav/parser"
)

var (
	cfgFile   string
	workspace string

	globalCfg *config.Config
)

// Execute is the entry point for the CLI.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd wires the cobra tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "specnav",
		Short:         "Structural outline navigator for spec files",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if workspace == "" {
				if wd, err := os.Getwd(); err == nil {
					workspace = wd
				} else {
					return err
				}
			}
			if cfgFile == "" {
				cfgFile = config.DefaultConfigPath(workspace)
			}
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			globalCfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&workspace, "workspace", "", "Workspace directory")
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to specnav config file")

	root.AddCommand(
		newServeCmd(),
		newOutlineCmd(),
		newBrowseCmd(),
	)
	return root
}

// parseFunc picks the configured external parser command, falling back
// to the embedded tree-sitter extractor.
func parseFunc() parser.Func {
	if globalCfg != nil && globalCfg.Parser.Command != "" {
		p := &parser.ExecParser{
			Command: globalCfg.Parser.Command,
			Args:    globalCfg.Parser.Args,
		}
		return p.Func()
	}
	return (&parser.TreeSitterParser{}).Func()
}
