// Package player owns the audio output and the single current track.
package player

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/gopxl/beep/v2"

	"github.com/sonroyaalmerol/auria/internal/logging"
	"github.com/sonroyaalmerol/auria/internal/metrics"
)

const resampleQuality = 4

// Track is a decoded, not yet playing, audio source.
type Track struct {
	Locator string
	stream  beep.StreamSeekCloser
	format  beep.Format
}

func (t *Track) Close() error {
	if t == nil || t.stream == nil {
		return nil
	}
	return t.stream.Close()
}

// session is the track currently attached to the output.
type session struct {
	track *Track
	ctrl  *beep.Ctrl
}

// Engine plays at most one track at a time. Transport methods are meant to be
// called from a single goroutine; Status may be called from anywhere.
type Engine struct {
	out    Output
	dec    Decoder
	rate   beep.SampleRate
	logger *slog.Logger

	mu     sync.Mutex
	status PlayerStatus
	cur    *session
}

func NewEngine(out Output, dec Decoder, sampleRate int, logger *slog.Logger) *Engine {
	if dec == nil {
		dec = MP3Decoder{}
	}
	e := &Engine{
		out:    out,
		dec:    dec,
		rate:   beep.SampleRate(sampleRate),
		logger: logging.Component(logger, "player"),
		status: StatusIdle,
	}
	metrics.PlayerState.Set(float64(StatusIdle))
	return e
}

// Decode prepares data for playback without touching the current track.
func (e *Engine) Decode(locator string, data []byte) (*Track, error) {
	s, format, err := e.dec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeFailed, err)
	}
	return &Track{Locator: locator, stream: s, format: format}, nil
}

// Start replaces whatever is playing with t and begins playback.
func (e *Engine) Start(t *Track) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.stopLocked()

	var src beep.Streamer = t.stream
	if t.format.SampleRate != 0 && t.format.SampleRate != e.rate {
		src = beep.Resample(resampleQuality, t.format.SampleRate, e.rate, src)
	}
	sess := &session{track: t}
	sess.ctrl = &beep.Ctrl{Streamer: beep.Seq(src, beep.Callback(func() {
		// Runs on the output goroutine with the mixer locked.
		go e.finished(sess)
	}))}
	e.cur = sess
	e.out.Play(sess.ctrl)
	e.setStatusLocked(StatusPlaying)
	e.logger.Info("playing", "locator", t.Locator)
}

// LoadAndPlay stops the current track, then decodes and starts data. A decode
// failure leaves the engine idle.
func (e *Engine) LoadAndPlay(locator string, data []byte) error {
	e.mu.Lock()
	e.stopLocked()
	e.mu.Unlock()

	t, err := e.Decode(locator, data)
	if err != nil {
		return err
	}
	e.Start(t)
	return nil
}

// Pause is a no-op unless a track is playing.
func (e *Engine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusPlaying || e.cur == nil {
		return nil
	}
	e.out.Lock()
	e.cur.ctrl.Paused = true
	e.out.Unlock()
	e.setStatusLocked(StatusPaused)
	return nil
}

// Resume is a no-op unless a track is paused.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusPaused || e.cur == nil {
		return nil
	}
	e.out.Lock()
	e.cur.ctrl.Paused = false
	e.out.Unlock()
	e.setStatusLocked(StatusPlaying)
	return nil
}

// Stop discards the current track, if any.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	st := Status{State: e.status}
	if e.cur == nil {
		return st
	}
	t := e.cur.track
	st.Locator = t.Locator
	if t.format.SampleRate != 0 {
		e.out.Lock()
		pos, n := t.stream.Position(), t.stream.Len()
		e.out.Unlock()
		st.Position = t.format.SampleRate.D(pos)
		st.Length = t.format.SampleRate.D(n)
	}
	return st
}

// Close stops playback and releases the output device.
func (e *Engine) Close() error {
	e.Stop()
	return e.out.Close()
}

func (e *Engine) stopLocked() {
	if e.cur == nil {
		return
	}
	e.out.Clear()
	if err := e.cur.track.Close(); err != nil {
		e.logger.Debug("closing track", "locator", e.cur.track.Locator, "err", err)
	}
	e.cur = nil
	e.setStatusLocked(StatusIdle)
}

func (e *Engine) finished(sess *session) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cur != sess {
		return
	}
	e.logger.Info("track finished", "locator", sess.track.Locator)
	_ = sess.track.Close()
	e.cur = nil
	e.setStatusLocked(StatusIdle)
}

func (e *Engine) setStatusLocked(s PlayerStatus) {
	e.status = s
	metrics.PlayerState.Set(float64(s))
}
