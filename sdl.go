package main

import (
	"context"
	"fmt"
	"time"

	"github.com/eltongo/gochip8/chip8"
	"github.com/veandco/go-sdl2/sdl"
)

/// Mapping of the modern keyboard to the CHIP-8 keypad (COSMAC layout:
/// 1234 / QWER / ASDF / ZXCV).
///
var sdlKeyMap = map[sdl.Scancode]byte{
	sdl.SCANCODE_X: 0x0,
	sdl.SCANCODE_1: 0x1,
	sdl.SCANCODE_2: 0x2,
	sdl.SCANCODE_3: 0x3,
	sdl.SCANCODE_Q: 0x4,
	sdl.SCANCODE_W: 0x5,
	sdl.SCANCODE_E: 0x6,
	sdl.SCANCODE_A: 0x7,
	sdl.SCANCODE_S: 0x8,
	sdl.SCANCODE_D: 0x9,
	sdl.SCANCODE_Z: 0xA,
	sdl.SCANCODE_C: 0xB,
	sdl.SCANCODE_4: 0xC,
	sdl.SCANCODE_R: 0xD,
	sdl.SCANCODE_F: 0xE,
	sdl.SCANCODE_V: 0xF,
}

/// sdlUI is the windowed frontend: the framebuffer scaled onto an SDL
/// renderer, keyboard events mapped onto the keypad.
///
type sdlUI struct {
	session *session

	window   *sdl.Window
	renderer *sdl.Renderer

	title  string
	scale  int
	redraw bool
}

/// runSDL opens the window and drives the machine until the window
/// closes or the context stops.
///
func runSDL(ctx context.Context, s *session, title string, scale int) error {
	if scale < 1 {
		scale = 1
	}

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return fmt.Errorf("initializing SDL: %w", err)
	}
	defer sdl.Quit()

	w := int32(chip8.DisplayWidth * scale)
	h := int32(chip8.DisplayHeight * scale)

	window, renderer, err := sdl.CreateWindowAndRenderer(w, h, sdl.WINDOW_SHOWN)
	if err != nil {
		return fmt.Errorf("creating window: %w", err)
	}
	defer window.Destroy()
	defer renderer.Destroy()

	window.SetTitle(title)

	ui := &sdlUI{
		session:  s,
		window:   window,
		renderer: renderer,
		title:    title,
		scale:    scale,
		redraw:   true,
	}

	frame := time.NewTicker(frameRate)
	defer frame.Stop()

	last := time.Now()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-frame.C:
			if !ui.pump() {
				return nil
			}

			s.frame(now.Sub(last))
			last = now

			ui.render()
		}
	}
}

/// pump drains pending window events. Returns false once the window
/// was closed or a control key asked to quit.
///
func (ui *sdlUI) pump() bool {
	for e := sdl.PollEvent(); e != nil; e = sdl.PollEvent() {
		switch ev := e.(type) {
		case *sdl.QuitEvent:
			return false
		case *sdl.WindowEvent:
			ui.redraw = true
		case *sdl.KeyboardEvent:
			if !ui.handleKey(ev) {
				return false
			}
		}
	}

	return true
}

/// handleKey feeds keypad keys to the machine and handles the control
/// keys. Returns false to quit.
///
func (ui *sdlUI) handleKey(ev *sdl.KeyboardEvent) bool {
	if key, ok := sdlKeyMap[ev.Keysym.Scancode]; ok {
		ui.session.vm.SetKey(key, ev.Type == sdl.KEYDOWN)
		return true
	}

	if ev.Type != sdl.KEYDOWN || ev.Repeat != 0 {
		return true
	}

	s := ui.session

	switch ev.Keysym.Scancode {
	case sdl.SCANCODE_ESCAPE:
		return false
	case sdl.SCANCODE_BACKSPACE:
		s.reset()

		// holding control during reset reboots paused
		if ev.Keysym.Mod&sdl.KMOD_CTRL != 0 && !s.paused {
			ui.togglePause()
		}
	case sdl.SCANCODE_SPACE, sdl.SCANCODE_F5:
		ui.togglePause()
	case sdl.SCANCODE_F6, sdl.SCANCODE_F10:
		s.step()
	case sdl.SCANCODE_LEFTBRACKET:
		s.setClockHz(s.vm.ClockHz() - clockStep)
	case sdl.SCANCODE_RIGHTBRACKET:
		s.setClockHz(s.vm.ClockHz() + clockStep)
	}

	return true
}

/// togglePause flips the pause state and tags the window title.
///
func (ui *sdlUI) togglePause() {
	ui.session.togglePause()

	if ui.session.paused {
		ui.window.SetTitle(ui.title + " (paused)")
	} else {
		ui.window.SetTitle(ui.title)
	}
}

/// render repaints the window when the machine drew since the last
/// frame or an event exposed the window.
///
func (ui *sdlUI) render() {
	vm := ui.session.vm

	if !ui.redraw && !vm.DisplayDirty() {
		return
	}

	ui.redraw = false
	vm.ClearDisplayDirty()

	r := ui.renderer
	r.SetDrawColor(143, 145, 133, 255)
	r.Clear()

	// the pixel color
	r.SetDrawColor(17, 29, 43, 255)

	fb := vm.Framebuffer()
	for y := range fb {
		for x, lit := range fb[y] {
			if !lit {
				continue
			}

			r.FillRect(&sdl.Rect{
				X: int32(x * ui.scale),
				Y: int32(y * ui.scale),
				W: int32(ui.scale),
				H: int32(ui.scale),
			})
		}
	}

	r.Present()
}
