package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/eltongo/gochip8/chip8"
	"github.com/eltongo/gochip8/speakers"
	"github.com/retroenv/retrogolib/app"
	"github.com/retroenv/retrogolib/buildinfo"
	"github.com/retroenv/retrogolib/log"
	"github.com/sqweek/dialog"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

/// Frontend names accepted by the -ui flag.
///
const (
	uiSDL  = "sdl"
	uiTerm = "term"
)

type options struct {
	ui    string
	audio string
	scale int

	clock      int
	seed       int64
	permissive bool
	shiftQuirk bool
	loadQuirk  bool

	trace bool
	debug bool
	quiet bool
}

func init() {
	// SDL needs the main goroutine pinned to its OS thread
	runtime.LockOSThread()
}

func main() {
	opts, rom := readArguments()
	logger := newLogger(opts)

	logger.Info("gochip8", log.String("version", buildinfo.Version(version, commit, date)))

	if err := run(app.Context(), logger, opts, rom); err != nil {
		logger.Fatal(err.Error())
	}
}

func readArguments() (options, string) {
	flags := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	opts := options{}

	flags.StringVar(&opts.ui, "ui", uiSDL, "frontend to run (sdl/term)")
	flags.StringVar(&opts.audio, "audio", "beep", "audio backend (beep/oto/off)")
	flags.IntVar(&opts.scale, "scale", 10, "window pixels per CHIP-8 pixel")
	flags.IntVar(&opts.clock, "clock", chip8.DefaultClockHz, "instructions per second")
	flags.Int64Var(&opts.seed, "seed", 0, "random number seed, 0 seeds from the clock")
	flags.BoolVar(&opts.permissive, "permissive", false, "skip invalid opcodes instead of halting")
	flags.BoolVar(&opts.shiftQuirk, "shift-quirk", false, "SHR/SHL read VY instead of shifting VX in place")
	flags.BoolVar(&opts.loadQuirk, "load-quirk", false, "register dump/load leave I past the last register")
	flags.BoolVar(&opts.trace, "trace", false, "log every executed instruction")
	flags.BoolVar(&opts.debug, "debug", false, "enable debugging options for extended logging")
	flags.BoolVar(&opts.quiet, "q", false, "perform operations quietly")

	err := flags.Parse(os.Args[1:])
	args := flags.Args()

	// without a ROM argument the window frontend falls back to a
	// file dialog, the terminal frontend cannot
	if err != nil || (len(args) == 0 && opts.ui != uiSDL) {
		fmt.Printf("usage: gochip8 [options] <ROM file>\n\n")
		flags.PrintDefaults()
		os.Exit(1)
	}

	rom := ""
	if len(args) > 0 {
		rom = args[0]
	}

	return opts, rom
}

/// newLogger creates the logger, level switched by the -debug and -q
/// flags.
///
func newLogger(opts options) *log.Logger {
	cfg := log.DefaultConfig()
	if opts.debug {
		cfg.Level = log.DebugLevel
	} else if opts.quiet {
		cfg.Level = log.ErrorLevel
	}

	return log.NewWithConfig(cfg)
}

/// run builds the machine, loads the ROM and hands control to the
/// chosen frontend.
///
func run(ctx context.Context, logger *log.Logger, opts options, rom string) error {
	vm, err := newMachine(opts)
	if err != nil {
		return err
	}

	if rom == "" {
		if rom, err = pickROM(); err != nil {
			return err
		}
	}

	if err := vm.LoadFile(rom); err != nil {
		return fmt.Errorf("loading ROM: %w", err)
	}

	logger.Info("ROM loaded", log.String("file", rom), log.Int("hz", vm.ClockHz()))

	beeper, err := newBeeper(opts.audio)
	if err != nil {
		return err
	}
	defer func() {
		if err := beeper.Close(); err != nil {
			logger.Error("Closing audio", log.Err(err))
		}
	}()

	s := &session{
		vm:     vm,
		beeper: beeper,
		logger: logger,
		trace:  opts.trace,
	}

	switch opts.ui {
	case uiSDL:
		return runSDL(ctx, s, "gochip8 - "+filepath.Base(rom), opts.scale)
	case uiTerm:
		return runTerm(ctx, s, filepath.Base(rom))
	default:
		return fmt.Errorf("unknown frontend: %s", opts.ui)
	}
}

/// newMachine builds the virtual machine from the command line flags.
///
func newMachine(opts options) (*chip8.VM, error) {
	vmOpts := []chip8.Option{
		chip8.WithClockHz(opts.clock),
		chip8.WithQuirks(chip8.Quirks{
			ShiftY:     opts.shiftQuirk,
			IncrementI: opts.loadQuirk,
		}),
	}

	if opts.permissive {
		vmOpts = append(vmOpts, chip8.WithPermissiveDecode())
	}

	if opts.seed != 0 {
		vmOpts = append(vmOpts, chip8.WithSeed(opts.seed))
	}

	return chip8.New(vmOpts...)
}

/// newBeeper opens the audio backend named by the -audio flag.
///
func newBeeper(name string) (speakers.Beeper, error) {
	lib := speakers.AudioLib(name)
	if name == "off" {
		lib = speakers.Nil
	}

	return speakers.New(lib)
}

/// pickROM asks for a ROM file when none was given on the command
/// line.
///
func pickROM() (string, error) {
	file, err := dialog.File().Title("Open CHIP-8 ROM").Filter("CHIP-8 ROMs", "ch8", "c8", "rom").Load()
	if err != nil {
		if errors.Is(err, dialog.ErrCancelled) {
			return "", errors.New("no ROM file given")
		}

		return "", fmt.Errorf("opening ROM dialog: %w", err)
	}

	return file, nil
}
