package player

import (
	"bytes"
	"errors"
	"io"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/mp3"
)

var (
	ErrNoDevice     = errors.New("no audio output device")
	ErrDecodeFailed = errors.New("audio decode failed")
)

// Output is the mixer the engine plays into; package device provides the
// speaker-backed one. Lock and Unlock guard any mutation of a streamer that
// is currently being played.
type Output interface {
	Play(s beep.Streamer)
	Clear()
	Lock()
	Unlock()
	Close() error
}

// Decoder turns an in-memory encoded file into a seekable stream.
type Decoder interface {
	Decode(data []byte) (beep.StreamSeekCloser, beep.Format, error)
}

// MP3Decoder decodes the transcoder's mp3 output.
type MP3Decoder struct{}

func (MP3Decoder) Decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	return mp3.Decode(io.NopCloser(bytes.NewReader(data)))
}
