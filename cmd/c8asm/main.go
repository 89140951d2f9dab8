// Package main implements a CHIP-8 assembler and ROM disassembler
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/eltongo/gochip8/chip8"
	"github.com/retroenv/retrogolib/buildinfo"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type optionFlags struct {
	output      string
	disassemble bool
	quiet       bool
}

func main() {
	options, input := readArguments()

	if !options.quiet {
		printBanner(options)
	}

	if err := run(options, input); err != nil {
		fmt.Println(fmt.Errorf("c8asm failed: %w", err))
		os.Exit(1)
	}
}

func readArguments() (optionFlags, string) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	options := optionFlags{}

	flags.StringVar(&options.output, "o", "", "name of the output file, derived from the input name if not given")
	flags.BoolVar(&options.disassemble, "d", false, "disassemble a ROM image instead of assembling source")
	flags.BoolVar(&options.quiet, "q", false, "perform operations quietly")

	err := flags.Parse(os.Args[1:])
	args := flags.Args()

	if err != nil || len(args) == 0 {
		printBanner(options)
		fmt.Printf("usage: c8asm [options] <source or ROM file>\n\n")
		flags.PrintDefaults()
		os.Exit(1)
	}

	return options, args[0]
}

func printBanner(options optionFlags) {
	if !options.quiet {
		fmt.Println("[--------------------------]")
		fmt.Println("[ c8asm - CHIP-8 assembler ]")
		fmt.Printf("[--------------------------]\n\n")
		fmt.Printf("version: %s\n\n", buildinfo.Version(version, commit, date))
	}
}

func run(options optionFlags, input string) error {
	if options.disassemble {
		return disasmFile(options, input)
	}

	return assembleFile(options, input)
}

func assembleFile(options optionFlags, input string) error {
	source, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading source '%s': %w", input, err)
	}

	out, err := chip8.Assemble(source)
	if err != nil {
		return fmt.Errorf("assembling '%s': %w", input, err)
	}

	output := options.output
	if output == "" {
		output = outputName(input)
	}

	if err := os.WriteFile(output, out.ROM, 0o644); err != nil {
		return fmt.Errorf("writing ROM '%s': %w", output, err)
	}

	if !options.quiet {
		fmt.Printf("wrote %d bytes to %s\n", len(out.ROM), output)
	}

	return nil
}

func disasmFile(options optionFlags, input string) error {
	rom, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("reading ROM '%s': %w", input, err)
	}

	var outputFile io.WriteCloser
	if options.output == "" {
		outputFile = os.Stdout
	} else {
		if outputFile, err = os.Create(options.output); err != nil {
			return fmt.Errorf("creating file '%s': %w", options.output, err)
		}
	}

	for _, line := range chip8.DisassembleROM(rom) {
		if _, err := fmt.Fprintln(outputFile, line); err != nil {
			return fmt.Errorf("writing listing: %w", err)
		}
	}

	if options.output != "" {
		if err := outputFile.Close(); err != nil {
			return fmt.Errorf("closing file: %w", err)
		}
	}

	return nil
}

// outputName derives the ROM file name from the source file name.
func outputName(input string) string {
	return strings.TrimSuffix(input, filepath.Ext(input)) + ".ch8"
}
