// Package device plays engine output on the local sound card. It is kept
// apart from package player because the speaker backend needs cgo.
package device

import (
	"fmt"
	"time"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"

	"github.com/sonroyaalmerol/auria/internal/player"
)

type speakerOutput struct{}

// NewSpeakerOutput opens the default audio device. It may only be called once
// per process.
func NewSpeakerOutput(sampleRate int, buffer time.Duration) (player.Output, error) {
	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(buffer)); err != nil {
		return nil, fmt.Errorf("%w: %v", player.ErrNoDevice, err)
	}
	return speakerOutput{}, nil
}

func (speakerOutput) Play(s beep.Streamer) { speaker.Play(s) }
func (speakerOutput) Clear()               { speaker.Clear() }
func (speakerOutput) Lock()                { speaker.Lock() }
func (speakerOutput) Unlock()              { speaker.Unlock() }

func (speakerOutput) Close() error {
	speaker.Close()
	return nil
}
