package main

import (
	"time"

	"github.com/eltongo/gochip8/chip8"
	"github.com/eltongo/gochip8/speakers"
	"github.com/retroenv/retrogolib/log"
)

/// Frame cadence shared by both frontends.
///
const frameRate = time.Second / 60

/// Clock adjustment per speed key press, in instructions per second.
///
const clockStep = 100

/// session owns one machine on behalf of a frontend: pause and
/// single-step state, pacing for traced runs and the beeper output.
///
type session struct {
	vm     *chip8.VM
	beeper speakers.Beeper
	logger *log.Logger

	trace  bool
	paused bool

	stepDebt  time.Duration
	timerDebt time.Duration
}

/// frame advances the machine by one frame of wall-clock time and
/// mirrors the sound timer onto the beeper. A fault is logged once;
/// the machine stays halted on screen until reset.
///
func (s *session) frame(elapsed time.Duration) {
	if s.paused || s.vm.State() == chip8.Halted {
		s.beeper.SetBeeping(false)
		return
	}

	var err error
	if s.trace {
		err = s.traceFrame(elapsed)
	} else {
		err = s.vm.Advance(elapsed)
	}

	if err != nil {
		s.logger.Error("Machine halted", log.Err(err), log.Hex("pc", s.vm.PC()))
		s.beeper.SetBeeping(false)
		return
	}

	s.beeper.SetBeeping(s.vm.IsSounding())
}

/// traceFrame runs the frame one instruction at a time so every
/// executed instruction can be logged. Pacing matches the untraced
/// path: timers at 60 Hz, instructions at the configured clock, lost
/// time capped so stalls don't burst.
///
func (s *session) traceFrame(elapsed time.Duration) error {
	if elapsed > time.Second/4 {
		elapsed = time.Second / 4
	}

	s.timerDebt += elapsed
	for s.timerDebt >= frameRate {
		s.vm.TickTimers()
		s.timerDebt -= frameRate
	}

	period := time.Second / time.Duration(s.vm.ClockHz())

	s.stepDebt += elapsed
	for s.stepDebt >= period {
		s.stepDebt -= period

		if s.vm.State() == chip8.Running {
			s.logger.Info("Exec", log.String("instruction", s.vm.DisassembleAt(s.vm.PC())))
		}

		if err := s.vm.Step(); err != nil {
			return err
		}
	}

	return nil
}

/// step runs one instruction while paused.
///
func (s *session) step() {
	if !s.paused || s.vm.State() == chip8.Halted {
		return
	}

	s.logger.Info("Step", log.String("instruction", s.vm.DisassembleAt(s.vm.PC())))

	if err := s.vm.Step(); err != nil {
		s.logger.Error("Machine halted", log.Err(err))
	}
}

/// togglePause flips between running and paused.
///
func (s *session) togglePause() {
	s.paused = !s.paused

	if s.paused {
		s.logger.Info("Paused")
	} else {
		s.logger.Info("Resumed")
	}
}

/// reset reboots the loaded program and silences the beeper.
///
func (s *session) reset() {
	s.vm.Reset()
	s.beeper.SetBeeping(false)
	s.logger.Info("Machine reset")
}

/// setClockHz applies a speed change from the frontend keys.
///
func (s *session) setClockHz(hz int) {
	s.vm.SetClockHz(hz)
	s.logger.Info("Clock changed", log.Int("hz", s.vm.ClockHz()))
}
