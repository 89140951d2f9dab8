package main

import (
	"context"
	"fmt"
	"time"
	"unicode"

	"github.com/eltongo/gochip8/chip8"
	termbox "github.com/nsf/termbox-go"
)

/// Keypad mapping for the terminal, same COSMAC layout as the window
/// frontend.
///
var termKeyMap = map[rune]byte{
	'x': 0x0,
	'1': 0x1,
	'2': 0x2,
	'3': 0x3,
	'q': 0x4,
	'w': 0x5,
	'e': 0x6,
	'a': 0x7,
	's': 0x8,
	'd': 0x9,
	'z': 0xA,
	'c': 0xB,
	'4': 0xC,
	'r': 0xD,
	'f': 0xE,
	'v': 0xF,
}

/// Terminals deliver key presses only. A pressed key is released again
/// once no repeat arrives for this long.
///
const termKeyHold = 250 * time.Millisecond

/// termUI is the terminal frontend. Every pixel is two cells wide so
/// the 64x32 grid keeps roughly square proportions.
///
type termUI struct {
	session *session
	status  string
	held    [chip8.NumKeys]time.Time
}

/// runTerm drives the machine inside the terminal until ESC, Ctrl-C or
/// the context stops it.
///
func runTerm(ctx context.Context, s *session, status string) error {
	if err := termbox.Init(); err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}
	defer termbox.Close()

	ui := &termUI{session: s, status: status}

	// polling blocks, so it runs on its own goroutine until the
	// shutdown interrupt below
	events := make(chan termbox.Event, 64)
	go func() {
		for {
			ev := termbox.PollEvent()
			if ev.Type == termbox.EventInterrupt {
				return
			}

			events <- ev
		}
	}()
	defer termbox.Interrupt()

	frame := time.NewTicker(frameRate)
	defer frame.Stop()

	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-events:
			if !ui.handleEvent(ev) {
				return nil
			}
		case now := <-frame.C:
			ui.releaseStale(now)

			s.frame(now.Sub(last))
			last = now

			ui.render()
		}
	}
}

/// handleEvent maps one terminal event. Returns false to quit.
///
func (ui *termUI) handleEvent(ev termbox.Event) bool {
	if ev.Type != termbox.EventKey {
		return ev.Type != termbox.EventError
	}

	s := ui.session

	switch ev.Key {
	case termbox.KeyEsc, termbox.KeyCtrlC:
		return false
	case termbox.KeyBackspace, termbox.KeyBackspace2:
		s.reset()
		return true
	case termbox.KeySpace, termbox.KeyF5:
		s.togglePause()
		return true
	case termbox.KeyF6, termbox.KeyF10:
		s.step()
		return true
	}

	switch ch := unicode.ToLower(ev.Ch); ch {
	case '[':
		s.setClockHz(s.vm.ClockHz() - clockStep)
	case ']':
		s.setClockHz(s.vm.ClockHz() + clockStep)
	default:
		if key, ok := termKeyMap[ch]; ok {
			ui.press(key)
		}
	}

	return true
}

/// press records a key press and re-arms its release deadline.
///
func (ui *termUI) press(key byte) {
	ui.session.vm.SetKey(key, true)
	ui.held[key] = time.Now().Add(termKeyHold)
}

/// releaseStale releases keys whose hold deadline has passed.
///
func (ui *termUI) releaseStale(now time.Time) {
	for key, deadline := range ui.held {
		if !deadline.IsZero() && now.After(deadline) {
			ui.session.vm.SetKey(byte(key), false)
			ui.held[key] = time.Time{}
		}
	}
}

/// render repaints the pixel grid and the status line. The terminal
/// buffer diffs on flush, so a full repaint per frame stays cheap.
///
func (ui *termUI) render() {
	vm := ui.session.vm
	vm.ClearDisplayDirty()

	if err := termbox.Clear(termbox.ColorDefault, termbox.ColorDefault); err != nil {
		return
	}

	fb := vm.Framebuffer()
	for y := range fb {
		for x, lit := range fb[y] {
			bg := termbox.ColorBlack
			if lit {
				bg = termbox.ColorWhite
			}

			termbox.SetCell(x*2, y, ' ', termbox.ColorDefault, bg)
			termbox.SetCell(x*2+1, y, ' ', termbox.ColorDefault, bg)
		}
	}

	ui.renderStatus(chip8.DisplayHeight + 1)

	_ = termbox.Flush()
}

/// renderStatus draws one line of machine state under the grid.
///
func (ui *termUI) renderStatus(y int) {
	s := ui.session

	state := s.vm.State().String()
	if s.paused {
		state = "paused"
	}

	text := fmt.Sprintf("%s  %d Hz  %s  (ESC quit, SPACE pause, F6 step)",
		ui.status, s.vm.ClockHz(), state)

	for x, ch := range []rune(text) {
		termbox.SetCell(x, y, ch, termbox.ColorDefault, termbox.ColorDefault)
	}
}
