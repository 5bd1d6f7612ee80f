// Package sound plays short audio cues on the controller host.
package sound

import (
	"os"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/wav"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const sampleRate = beep.SampleRate(44100)

// player owns the clip that is currently playing.
type player struct {
	current *beep.Ctrl
	stream  beep.StreamSeekCloser
}

// cut silences and releases the current clip, if any.
func (p *player) cut() {
	if p.current != nil {
		speaker.Lock()
		p.current.Paused = true
		p.current.Streamer = nil
		speaker.Unlock()
		p.current = nil
	}
	if p.stream != nil {
		_ = p.stream.Close()
		p.stream = nil
	}
}

func (p *player) play(path string) error {
	p.cut()
	f, err := os.Open(path)
	if err != nil {
		return errors.Wrap(err, "open")
	}
	stream, _, err := wav.Decode(f)
	if err != nil {
		_ = f.Close()
		return errors.Wrap(err, "decode")
	}
	p.stream = stream
	p.current = &beep.Ctrl{Streamer: stream}
	speaker.Play(p.current)
	return nil
}

// InitSound starts the player goroutine.  Paths of WAV files sent on the returned
// channel are played in turn, each one cutting off the last.  Close the channel to
// stop the player.  If the speaker can't be opened, sounds are drained and dropped.
func InitSound(logger *zap.SugaredLogger) chan string {
	paths := make(chan string)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Warnw("sound player crashed", "panic", r)
			}
			for path := range paths {
				logger.Debugw("dropping sound", "path", path)
			}
		}()
		if err := speaker.Init(sampleRate, sampleRate.N(time.Second/5)); err != nil {
			logger.Warnw("failed to open speaker", "error", err)
			return
		}
		var p player
		defer p.cut()
		for path := range paths {
			if err := p.play(path); err != nil {
				logger.Warnw("failed to play sound", "path", path, "error", err)
			}
		}
	}()
	return paths
}
