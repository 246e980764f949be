package player

import "time"

type PlayerStatus int

const (
	StatusIdle PlayerStatus = iota
	StatusPlaying
	StatusPaused
)

func (s PlayerStatus) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusPaused:
		return "paused"
	default:
		return "idle"
	}
}

func (s PlayerStatus) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Status is a point-in-time snapshot of the engine.
type Status struct {
	State    PlayerStatus  `json:"state"`
	Locator  string        `json:"locator,omitempty"`
	Position time.Duration `json:"position_ns"`
	Length   time.Duration `json:"length_ns"`
}
