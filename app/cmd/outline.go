package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/lexcodex/specnav/outline"
	"github.com/lexcodex/specnav/parser"
)

func newOutlineCmd() *cobra.Command {
	var flat bool
	cmd := &cobra.Command{
		Use:   "outline <spec-file>",
		Short: "Print the structural outline of a spec file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			roots, err := parseFunc()(cmd.Context(), string(data))
			if errors.Is(err, parser.ErrFrameworkNotDetected) {
				fmt.Fprintln(cmd.OutOrStdout(), "no spec structure detected")
				return nil
			}
			if err != nil {
				return err
			}

			o := outline.Build(roots)
			if flat {
				printFlat(cmd.OutOrStdout(), o)
			} else {
				printTree(cmd.OutOrStdout(), o.Roots, 0)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&flat, "flat", false, "Print the pre-order list instead of the tree")
	return cmd
}

func printTree(w io.Writer, nodes []*outline.Node, depth int) {
	for _, node := range nodes {
		for i := 0; i < depth; i++ {
			fmt.Fprint(w, "  ")
		}
		fmt.Fprintf(w, "%s %s [%d-%d]\n", node.Icon(), node.Label(), node.Start, node.End)
		printTree(w, node.Children, depth+1)
	}
}

func printFlat(w io.Writer, o *outline.Outline) {
	for _, node := range o.Flat {
		fmt.Fprintf(w, "%s %s [%d-%d]\n", node.Icon(), node.Label(), node.Start, node.End)
	}
}
