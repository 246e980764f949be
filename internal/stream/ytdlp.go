package stream

import (
	"context"
	"os/exec"

	ytdlp "github.com/lrstanley/go-ytdlp"
)

const (
	ToolDownloader = "yt-dlp"
	ToolTranscoder = "ffmpeg"

	// LoudnessFilter is applied by the transcoder to every fetched track.
	LoudnessFilter = "loudnorm=I=-16:TP=-1.5:LRA=11,volume=0.5"
	OutputFormat   = "mp3"
	OutputBitrate  = "128k"
)

// newYtdlp returns a go-ytdlp command bound to the configured executable so
// nothing is downloaded or installed behind the operator's back.
func newYtdlp(executable string) *ytdlp.Command {
	if executable == "" {
		executable = ToolDownloader
	}
	return ytdlp.New().SetExecutable(executable)
}

// DownloadCommand builds `yt-dlp -f bestaudio -o - <locator>`.
func DownloadCommand(ctx context.Context, executable, locator string) *exec.Cmd {
	return newYtdlp(executable).
		Format("bestaudio").
		NoPlaylist().
		Output("-").
		BuildCommand(ctx, locator)
}

// SearchCommand prepares a line-delimited JSON search. The query target is
// passed to Run by the caller.
func SearchCommand(executable string) *ytdlp.Command {
	return newYtdlp(executable).
		DumpJSON().
		DefaultSearch("ytsearch").
		NoPlaylist()
}

func transcodeArgs() []string {
	return []string{
		"-hide_banner",
		"-loglevel", "error",
		"-i", "pipe:0",
		"-vn",
		"-af", LoudnessFilter,
		"-f", OutputFormat,
		"-b:a", OutputBitrate,
		"-q:a", "2",
		"pipe:1",
	}
}

// TranscodeCommand builds the ffmpeg invocation that reads raw audio on stdin
// and writes loudness-normalized mp3 to stdout.
func TranscodeCommand(ctx context.Context, executable string) *exec.Cmd {
	if executable == "" {
		executable = ToolTranscoder
	}
	return exec.CommandContext(ctx, executable, transcodeArgs()...)
}
