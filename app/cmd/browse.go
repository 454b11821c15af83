package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lexcodex/specnav/session"
	"github.com/lexcodex/specnav/tui"
)

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <spec-file>",
		Short: "Browse a spec file's outline interactively",
		Long: "Browse opens the outline in a terminal browser. Activating a node\n" +
			"once highlights its extent; activating it again within the\n" +
			"double-click threshold exits, printing file:line:column for the\n" +
			"chosen spec.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			source := string(data)

			sess := session.New(parseFunc(), nil, log.New(io.Discard, "", 0),
				globalCfg.SessionSettings(), session.Hooks{})
			defer sess.Close()
			sess.ActivateEditor(path, languageOf(path), source, true)

			loc, err := tui.Run(cmd.Context(), sess, path, source)
			if err != nil {
				return err
			}
			if loc != nil {
				line, col := lineCol(source, loc.Offset)
				fmt.Fprintf(cmd.OutOrStdout(), "%s:%d:%d\n", loc.Path, line, col)
			}
			return nil
		},
	}
}

func languageOf(path string) string {
	switch {
	case strings.HasSuffix(path, ".ts"):
		return "typescript"
	case strings.HasSuffix(path, ".tsx"):
		return "typescriptreact"
	case strings.HasSuffix(path, ".jsx"):
		return "javascriptreact"
	default:
		return "javascript"
	}
}

// lineCol converts a byte offset to 1-based line and column.
func lineCol(source string, offset int) (int, int) {
	if offset > len(source) {
		offset = len(source)
	}
	before := source[:offset]
	line := strings.Count(before, "\n") + 1
	col := offset - strings.LastIndex(before, "\n")
	return line, col
}
