// Command ddis disassembles a DCPU-16 object file, one instruction per
// line: `ddis <input.obj> [-o <out>]`. "-" reads the object from stdin.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/dcpu16/dcpu16/disassembler"
	"github.com/dcpu16/dcpu16/object"
)

func main() {
	log := func(err error) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out := flag.String("o", "", "output file (default: stdout)")
	flag.Parse()

	// Flags may also follow the input file, as in the usage line.
	args := flag.Args()
	if len(args) > 1 {
		first := args[0]
		flag.CommandLine.Parse(args[1:])
		args = append([]string{first}, flag.Args()...)
	}

	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s <input.obj|-> [-o <out>]\n", os.Args[0])
		os.Exit(1)
	}

	if err := run(args[0], *out); err != nil {
		log(err)
	}
}

func run(inputFile, outputFile string) error {
	var b []byte
	var err error
	if inputFile == "-" {
		b, err = io.ReadAll(os.Stdin)
		if err != nil {
			return errors.Wrap(err, "reading stdin")
		}
	} else {
		b, err = os.ReadFile(inputFile)
		if err != nil {
			return errors.Wrapf(err, "reading %s", inputFile)
		}
	}

	words, err := object.Decode(b)
	if err != nil {
		return errors.Wrap(err, "decoding object file")
	}

	text, err := disassembler.Disassemble(words)
	if err != nil {
		return errors.Wrap(err, "disassembling")
	}

	w := io.Writer(os.Stdout)
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return errors.Wrapf(err, "creating %s", outputFile)
		}
		defer f.Close()
		w = f
	}
	_, err = io.WriteString(w, text)
	return errors.Wrap(err, "writing output")
}
