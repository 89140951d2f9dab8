package speakers

import (
	"sync/atomic"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
)

/// BeeperBeep renders the tone through the beep speaker mixer. The
/// streamer runs on the speaker's goroutine and produces the square
/// wave whenever the beeping flag is up.
///
type BeeperBeep struct {
	sampleRate beep.SampleRate

	// read atomically by the streamer
	beeping int32

	phase int
}

func newBeeperBeep() (*BeeperBeep, error) {
	s := &BeeperBeep{
		sampleRate: beep.SampleRate(sampleRate),
	}

	if err := speaker.Init(s.sampleRate, s.sampleRate.N(time.Second/20)); err != nil {
		return nil, err
	}

	speaker.Play(s.stream())

	return s, nil
}

func (s *BeeperBeep) SetBeeping(on bool) {
	var v int32
	if on {
		v = 1
	}

	atomic.StoreInt32(&s.beeping, v)
}

func (s *BeeperBeep) Close() error {
	speaker.Close()

	return nil
}

/// stream produces the square wave while beeping and silence otherwise.
///
func (s *BeeperBeep) stream() beep.Streamer {
	half := sampleRate / toneHz / 2

	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		beeping := atomic.LoadInt32(&s.beeping) == 1

		for i := range samples {
			var v float64

			if beeping {
				if s.phase/half%2 == 0 {
					v = volume
				} else {
					v = -volume
				}

				s.phase++
			}

			samples[i][0] = v
			samples[i][1] = v
		}

		return len(samples), true
	})
}
