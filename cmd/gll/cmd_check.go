package main

import (
	"fmt"
	"os"
	"reflect"

	"github.com/spf13/cobra"
	"golang.org/x/exp/ebnf"

	"github.com/dhamidi/gll/grammar"
)

func newCheckCmd() *cobra.Command {
	var startProduction string
	var verify bool
	var printTable bool

	cmd := &cobra.Command{
		Use:           "check <file>",
		Short:         "Parse an EBNF grammar and check it can drive the parser",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			filename := args[0]

			f, err := os.Open(filename)
			if err != nil {
				return fmt.Errorf("open file: %w", err)
			}
			defer f.Close()

			src, err := ebnf.Parse(filename, f)
			if err != nil {
				printErrors(err)
				return err
			}

			if verify {
				if err := ebnf.Verify(src, startProduction); err != nil {
					printErrors(err)
					return err
				}
			}

			if startProduction == "" {
				return nil
			}

			g, err := grammar.FromEBNF(src, startProduction)
			if err != nil {
				printErrors(err)
				return err
			}

			if printTable {
				fmt.Print(g)
			}
			fmt.Printf("%s: %d nonterminals, %d alternates, %d terminals\n",
				filename, len(g.Nonterminals()), len(g.Table()), len(g.Terminals()))
			return nil
		},
	}

	cmd.Flags().StringVar(&startProduction, "start", "", "start production (if empty, only checks syntax)")
	cmd.Flags().BoolVar(&verify, "verify", false, "also require every production to be defined and reachable")
	cmd.Flags().BoolVarP(&printTable, "print", "p", false, "print the production table")

	return cmd
}

func printErrors(err error) {
	v := reflect.ValueOf(err)
	if v.Kind() == reflect.Slice {
		for i := 0; i < v.Len(); i++ {
			fmt.Println(v.Index(i).Interface())
		}
	} else {
		fmt.Println(err)
	}
}
