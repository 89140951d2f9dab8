package speakers

import (
	"sync/atomic"

	"github.com/hajimehoshi/oto"
)

/// Full-scale square wave amplitude for 16-bit samples.
///
const amp = int16((1 << 15) * volume)

/// BeeperOto renders the tone through an oto player. A feeder goroutine
/// keeps writing 10 ms chunks of mono samples, silence when the beeping
/// flag is down.
///
type BeeperOto struct {
	context *oto.Context
	player  *oto.Player

	// read atomically by the feeder
	beeping int32

	done  chan struct{}
	phase int
}

func newBeeperOto() (*BeeperOto, error) {
	// 10 ms of mono 16-bit samples per write
	chunk := sampleRate / 100 * 2

	context, err := oto.NewContext(sampleRate, 1, 2, chunk*4)
	if err != nil {
		return nil, err
	}

	s := &BeeperOto{
		context: context,
		player:  context.NewPlayer(),
		done:    make(chan struct{}),
	}

	go s.feed(chunk)

	return s, nil
}

func (s *BeeperOto) SetBeeping(on bool) {
	var v int32
	if on {
		v = 1
	}

	atomic.StoreInt32(&s.beeping, v)
}

func (s *BeeperOto) Close() error {
	close(s.done)

	if err := s.player.Close(); err != nil {
		return err
	}

	return s.context.Close()
}

/// feed renders and writes wave chunks until Close. Write blocks on the
/// device buffer, which paces the loop.
///
func (s *BeeperOto) feed(chunk int) {
	half := sampleRate / toneHz / 2
	buf := make([]byte, chunk)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		beeping := atomic.LoadInt32(&s.beeping) == 1

		for i := 0; i < len(buf); i += 2 {
			var v int16

			if beeping {
				if s.phase/half%2 == 0 {
					v = amp
				} else {
					v = -amp
				}

				s.phase++
			}

			buf[i] = byte(v)
			buf[i+1] = byte(v >> 8)
		}

		if _, err := s.player.Write(buf); err != nil {
			return
		}
	}
}
