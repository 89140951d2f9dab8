package speakers

import "fmt"

/// AudioLib names a playback backend.
///
type AudioLib string

const (
	Nil  AudioLib = "nil"
	Beep AudioLib = "beep"
	Oto  AudioLib = "oto"
)

/// Tone parameters shared by all backends.
///
const (
	sampleRate = 44100
	toneHz     = 440
	volume     = 0.25
)

/// Beeper is a speaker for the one sound CHIP-8 has: a tone that plays
/// while the sound timer is running.
///
type Beeper interface {
	/// SetBeeping starts or stops the tone. Safe to call from the
	/// machine loop while a backend renders on its own goroutine.
	///
	SetBeeping(on bool)

	/// Close releases the audio device.
	///
	Close() error
}

/// New creates the named playback backend.
///
func New(lib AudioLib) (Beeper, error) {
	switch lib {
	case Nil:
		return new(BeeperNil), nil
	case Beep:
		return newBeeperBeep()
	case Oto:
		return newBeeperOto()
	}

	return nil, fmt.Errorf("unknown audio backend: %s", lib)
}
