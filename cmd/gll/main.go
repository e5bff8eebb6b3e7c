package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
)

const version = "0.1.0"

func main() {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:     "gll",
		Short:   "Generalized LL parsing for EBNF grammars",
		Version: version,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			commonlog.Configure(flags.verbose, nil)
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "configuration file (default: ./gll.toml when present)")
	pf.StringVarP(&flags.grammar, "grammar", "g", "", "parser grammar, overrides the configuration")
	pf.StringVarP(&flags.lexicon, "lexicon", "l", "", "lexical grammar, overrides the configuration")
	pf.StringVarP(&flags.start, "start", "s", "", "start production, overrides the configuration")
	pf.CountVarP(&flags.verbose, "verbose", "v", "log verbosity, repeat for more")

	rootCmd.AddCommand(newParseCmd(&flags))
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newForestCmd(&flags))
	rootCmd.AddCommand(newLSPCmd(&flags))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
