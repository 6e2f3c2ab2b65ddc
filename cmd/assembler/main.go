package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"isaasm/internal/errsink"
)

func main() {
	var keepAM bool
	var verbose bool

	logger := logrus.New()

	root := &cobra.Command{
		Use:   "assembler <file1> [<file2> ...]",
		Short: "Two-pass assembler for the course ISA",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			}
			sink := errsink.New(logger)
			code, err := run(args, keepAM, verbose, sink, logger)
			if err != nil {
				logger.WithError(err).Warn("one or more files failed")
			}
			os.Exit(code)
			return nil
		},
	}

	flags := pflag.NewFlagSet("assembler", pflag.ContinueOnError)
	flags.BoolVar(&keepAM, "keep-am", false, "keep the macro-expanded .am intermediate file")
	flags.BoolVar(&verbose, "verbose", false, "enable debug-level logging and symbol-table dumps")
	root.Flags().AddFlagSet(flags)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
