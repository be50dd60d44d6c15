package compiler

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/raymyers/ralph-tc/pkg/asm"
	"github.com/raymyers/ralph-tc/pkg/ir"
	"github.com/raymyers/ralph-tc/pkg/parser"
	"tlog.app/go/errors"
)

// Artifact file names, one per stage.
const (
	TokensFile     = "token.txt"
	SymbolsFile    = "new_symbol_table.txt"
	ReductionsFile = "parser_list.txt"
	IRFile         = "intermediate_code.txt"
	AsmFile        = "assembly_language.asm"
)

func (r *Result) TokensText() string {
	var b bytes.Buffer
	for _, tok := range r.Tokens {
		fmt.Fprintln(&b, tok)
	}
	return b.String()
}

func (r *Result) SymbolsText() string {
	var b bytes.Buffer
	r.Symbols.Print(&b)
	return b.String()
}

func (r *Result) ReductionsText() string {
	var b bytes.Buffer
	parser.PrintReductions(&b, r.Reductions)
	return b.String()
}

func (r *Result) RawIRText() string { return irText(r.RawIR) }

// IRText is the legalized IR dump.
func (r *Result) IRText() string { return irText(r.IR) }

func irText(code []ir.Instruction) string {
	var b bytes.Buffer
	ir.NewPrinter(&b).PrintProgram(code)
	return b.String()
}

func (r *Result) LivenessText() string {
	var b bytes.Buffer
	r.Liveness.Print(&b)
	fmt.Fprintf(&b, "max pressure %d, %d registers\n", r.Pressure, len(r.Options.Registers))
	return b.String()
}

// AllocText prints the register state after every emitted line, then the
// eviction log.
func (r *Result) AllocText() string {
	var b bytes.Buffer

	for _, st := range r.Trace {
		fmt.Fprintf(&b, "%3d: %-24s", st.Line, st.Instr)

		for _, reg := range r.Options.Registers {
			if v, ok := st.Regs[reg]; ok {
				fmt.Fprintf(&b, " %s=%s", reg, v)
			}
		}

		fmt.Fprintln(&b)
	}

	for _, e := range r.Evictions {
		lost := ""
		if e.Lost {
			lost = " (value lost)"
		}
		fmt.Fprintf(&b, "evict line %d %s: %s -> %s, %s%s\n", e.Line, e.Reg, e.Evicted, e.Incoming, e.Reason, lost)
	}

	return b.String()
}

func (r *Result) AsmText() string {
	var b bytes.Buffer
	asm.NewPrinter(&b).PrintProgram(r.Asm)
	return b.String()
}

// Fingerprint returns xxhash64 of the IR dump and of the assembly dump.
func (r *Result) Fingerprint() (irSum, asmSum uint64) {
	return xxhash.Sum64String(r.IRText()), xxhash.Sum64String(r.AsmText())
}

// WriteFingerprint prints both sums, one per line.
func (r *Result) WriteFingerprint(w io.Writer) error {
	irSum, asmSum := r.Fingerprint()

	_, err := fmt.Fprintf(w, "%016x  %s\n%016x  %s\n", irSum, IRFile, asmSum, AsmFile)

	return err
}

// WriteArtifacts writes every stage dump into dir.
func (r *Result) WriteArtifacts(dir string) error {
	files := []struct {
		name string
		text string
	}{
		{TokensFile, r.TokensText()},
		{SymbolsFile, r.SymbolsText()},
		{ReductionsFile, r.ReductionsText()},
		{IRFile, r.IRText()},
		{AsmFile, r.AsmText()},
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create %v", dir)
	}

	for _, f := range files {
		path := filepath.Join(dir, f.name)

		if err := os.WriteFile(path, []byte(f.text), 0o644); err != nil {
			return errors.Wrap(err, "write %v", path)
		}
	}

	return nil
}
