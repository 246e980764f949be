// Package deps checks for the external tools auria shells out to.
package deps

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/sonroyaalmerol/auria/internal/config"
)

type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

type Status struct {
	Requirement
	Path      string
	Available bool
	Detail    string
}

// Requirements lists the tools the configured pipeline needs.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "yt-dlp", Command: cfg.YtdlpPath, Description: "downloads audio and runs searches"},
		{Name: "ffmpeg", Command: cfg.FFmpegPath, Description: "normalizes loudness and encodes mp3"},
	}
}

func CheckBinaries(reqs []Requirement) []Status {
	out := make([]Status, 0, len(reqs))
	for _, req := range reqs {
		req.Command = strings.TrimSpace(req.Command)
		st := Status{Requirement: req}
		switch path, err := exec.LookPath(req.Command); {
		case req.Command == "":
			st.Detail = "command not configured"
		case err != nil:
			st.Detail = fmt.Sprintf("binary %q not found", req.Command)
		default:
			st.Path = path
			st.Available = true
		}
		out = append(out, st)
	}
	return out
}

// Missing joins an error for every required tool that is unavailable.
func Missing(statuses []Status) error {
	var errs []error
	for _, st := range statuses {
		if !st.Available && !st.Optional {
			errs = append(errs, fmt.Errorf("%s: %s", st.Name, st.Detail))
		}
	}
	return errors.Join(errs...)
}
