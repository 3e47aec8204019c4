// Command dasm assembles a DCPU-16 source file into a big-endian
// object file: `dasm <input.asm> [-o <output.obj>]`.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/dcpu16/dcpu16/assembler"
	"github.com/dcpu16/dcpu16/object"
)

func main() {
	log.SetFlags(0)

	out := flag.String("o", "", "output object file (default: input with .obj extension)")
	flag.Parse()

	// Flags may also follow the input file, as in the usage line.
	args := flag.Args()
	if len(args) > 1 {
		first := args[0]
		flag.CommandLine.Parse(args[1:])
		args = append([]string{first}, flag.Args()...)
	}

	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s <input.asm> [-o <output.obj>]\n", os.Args[0])
		os.Exit(1)
	}
	inputFile := args[0]
	outputFile := *out
	if outputFile == "" {
		ext := filepath.Ext(inputFile)
		outputFile = strings.TrimSuffix(inputFile, ext) + ".obj"
	}

	if err := run(inputFile, outputFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(inputFile, outputFile string) error {
	src, err := os.ReadFile(inputFile)
	if err != nil {
		return errors.Wrapf(err, "reading %s", inputFile)
	}

	words, err := assembler.New().Assemble(inputFile, string(src))
	if err != nil {
		// LexicalError/ResolutionError already carry the file:line
		// diagnostic in the exact format the spec requires; print it
		// verbatim rather than wrapping it.
		return err
	}

	f, err := os.Create(outputFile)
	if err != nil {
		return errors.Wrapf(err, "creating %s", outputFile)
	}
	if _, err := f.Write(object.Encode(words)); err != nil {
		f.Close()
		os.Remove(outputFile)
		return errors.Wrapf(err, "writing %s", outputFile)
	}
	return f.Close()
}
