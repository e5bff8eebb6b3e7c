package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/gll/format"
)

func newParseCmd(flags *globalFlags) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:          "parse <file>",
		Short:        "Parse a file and print its syntax tree",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch outputFormat {
			case "text", "json":
			default:
				return fmt.Errorf("unknown format: %s", outputFormat)
			}

			p, doc, err := flags.parseFile(args[0])
			if err != nil {
				return err
			}

			if !doc.Accepted() {
				if outputFormat == "json" {
					if err := format.NewErrorsJSONEncoder(os.Stdout).Encode(doc.Errors); err != nil {
						return fmt.Errorf("encode errors: %w", err)
					}
					fmt.Println()
				} else {
					printDiagnostics(doc.Errors)
				}
				return fmt.Errorf("%s: %d syntax error(s)", args[0], len(doc.Errors))
			}

			tree, err := p.Tree(doc, nil)
			if err != nil {
				return err
			}

			switch outputFormat {
			case "json":
				if err := format.NewCSTJSONEncoder(os.Stdout).Encode(tree); err != nil {
					return fmt.Errorf("encode json: %w", err)
				}
				fmt.Println()
			default:
				set := doc.Result.Set
				fmt.Fprintf(os.Stderr, "%d root(s), %d ambiguous node(s)\n", len(set.GetRoots()), len(set.Ambiguities()))
				if err := tree.Print(os.Stdout); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "output format (text, json)")

	return cmd
}
