package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/dhamidi/gll/bsr"
	"github.com/dhamidi/gll/format"
)

func newForestCmd(flags *globalFlags) *cobra.Command {
	var dot, lines, dump, all bool

	cmd := &cobra.Command{
		Use:          "forest <file>",
		Short:        "Parse a file and show the shared packed parse forest",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, doc, err := flags.parseFile(args[0])
			if err != nil {
				return err
			}
			set := doc.Result.Set

			if !doc.Accepted() {
				printDiagnostics(doc.Errors)
			}

			var enc format.ForestEncoder
			switch {
			case dot:
				enc = format.NewDOTEncoder(os.Stdout)
			case lines:
				enc = format.NewLineEncoder(os.Stdout)
			case dump:
				return set.Dump(os.Stdout)
			}
			if enc != nil {
				return enc.Encode(set)
			}

			nodes := set.Reachable()
			if all || !doc.Result.Accepted() {
				nodes = set.GetAll()
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"NODE", "ALT", "LEFT", "RIGHT", "PIVOTS", "AMBIGUOUS"})
			table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
			table.SetAlignment(tablewriter.ALIGN_LEFT)
			table.SetBorder(false)
			for n := range nodes {
				table.Append(row(n))
			}
			table.Render()

			st := doc.Result.Stats
			fmt.Printf("\n%d descriptors, %d GSS nodes, %d GSS edges, %d nodes, %d intermediate, %d pivots\n",
				st.Descriptors, st.GSSNodes, st.GSSEdges, st.Forest.Nodes, st.Forest.Intermediate, st.Forest.Pivots)
			if st.TimedOut {
				fmt.Println("parse stopped at the descriptor limit")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dot, "dot", false, "write the forest as a Graphviz digraph")
	cmd.Flags().BoolVar(&lines, "lines", false, "write one tab separated line per node")
	cmd.Flags().BoolVar(&dump, "dump", false, "write the raw node dump")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "list unreachable nodes too")
	cmd.MarkFlagsMutuallyExclusive("dot", "lines", "dump")

	return cmd
}

func row(n bsr.Node) []string {
	pivots := n.Pivots()
	parts := make([]string, len(pivots))
	for i, p := range pivots {
		parts[i] = strconv.Itoa(p)
	}
	ambiguous := ""
	if n.Ambiguous() {
		ambiguous = "yes"
	}
	return []string{
		n.Label(),
		strconv.Itoa(n.Alternate()),
		strconv.Itoa(n.LeftExtent()),
		strconv.Itoa(n.RightExtent()),
		strings.Join(parts, ","),
		ambiguous,
	}
}
