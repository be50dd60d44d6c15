package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/raymyers/ralph-tc/pkg/compiler"
	"github.com/raymyers/ralph-tc/pkg/config"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"
)

var version = "0.1.0"

// Debug flags for dumping intermediate stages
var (
	dTokens   bool
	dSymtab   bool
	dReduce   bool
	dIR       bool
	dLIR      bool
	dLiveness bool
	dAlloc    bool
	dAsm      bool
)

// Output options
var (
	outputFile  string
	configFile  string
	outDir      string
	fingerprint bool
	verbose     bool
)

// dump is one stage dump, printed in pipeline order.
type dump struct {
	flag *bool
	text func(*compiler.Result) string
}

var dumps = []dump{
	{&dTokens, (*compiler.Result).TokensText},
	{&dSymtab, (*compiler.Result).SymbolsText},
	{&dReduce, (*compiler.Result).ReductionsText},
	{&dIR, (*compiler.Result).RawIRText},
	{&dLIR, (*compiler.Result).IRText},
	{&dLiveness, (*compiler.Result).LivenessText},
	{&dAlloc, (*compiler.Result).AllocText},
	{&dAsm, (*compiler.Result).AsmText},
}

func main() {
	os.Exit(run())
}

func run() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func newRootCmd(out, errOut io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ralph-tc [file]",
		Short: "ralph-tc compiles the toy language to RISC-style assembly",
		Long: `ralph-tc is a single-pass compiler for a toy language of integer
declarations, assignments, arithmetic and return. It builds three-operand
IR from parser events, legalizes it for the target, and allocates a fixed
register pool while emitting assembly.`,
		Version:       version,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				cmd.Help()
				return nil
			}

			err := compileFile(args[0], out)
			if err != nil {
				reportError(errOut, err)
			}

			return err
		},
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	rootCmd.Flags().BoolVar(&dTokens, "dtokens", false, "Dump tokens")
	rootCmd.Flags().BoolVar(&dSymtab, "dsymtab", false, "Dump symbol table")
	rootCmd.Flags().BoolVar(&dReduce, "dreduce", false, "Dump parser reductions")
	rootCmd.Flags().BoolVar(&dIR, "dir", false, "Dump IR as built")
	rootCmd.Flags().BoolVar(&dLIR, "dlir", false, "Dump legalized IR")
	rootCmd.Flags().BoolVar(&dLiveness, "dliveness", false, "Dump liveness table")
	rootCmd.Flags().BoolVar(&dAlloc, "dalloc", false, "Dump register allocation trace")
	rootCmd.Flags().BoolVar(&dAsm, "dasm", false, "Dump assembly")

	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write assembly to file")
	rootCmd.Flags().StringVar(&configFile, "config", "", "Target configuration (YAML)")
	rootCmd.Flags().StringVar(&outDir, "out-dir", "", "Write every stage artifact into directory")
	rootCmd.Flags().BoolVar(&fingerprint, "fingerprint", false, "Print xxhash64 of the IR and assembly dumps")
	rootCmd.Flags().BoolVar(&verbose, "verbose", false, "Log compilation stages to stderr")

	return rootCmd
}

func compileFile(filename string, out io.Writer) error {
	ctx := context.Background()
	if verbose {
		ctx = tlog.ContextWithSpan(ctx, tlog.Root())
	}

	cfg := config.Default()
	if configFile != "" {
		var err error
		cfg, err = config.Load(configFile)
		if err != nil {
			return err
		}
	}

	res, err := compiler.CompileFile(ctx, filename, cfg)
	if err != nil {
		return errors.Wrap(err, "%v", filename)
	}

	// outputs are written only after the whole compile succeeded
	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(res.AsmText()), 0o644); err != nil {
			return errors.Wrap(err, "write output")
		}
	}

	if outDir != "" {
		if err := res.WriteArtifacts(outDir); err != nil {
			return err
		}
	}

	dumped := false
	for _, d := range dumps {
		if *d.flag {
			fmt.Fprint(out, d.text(res))
			dumped = true
		}
	}

	if fingerprint {
		if err := res.WriteFingerprint(out); err != nil {
			return err
		}
		dumped = true
	}

	if !dumped && outputFile == "" && outDir == "" {
		fmt.Fprint(out, res.AsmText())
	}

	return nil
}

// reportError prints err, in red when errOut is a terminal.
func reportError(errOut io.Writer, err error) {
	if f, ok := errOut.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(errOut, "\x1b[31mralph-tc: %v\x1b[0m\n", err)
		return
	}

	fmt.Fprintf(errOut, "ralph-tc: %v\n", err)
}
