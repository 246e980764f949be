package search

import (
	"context"

	"github.com/sonroyaalmerol/auria/internal/stream"
)

// YtdlpRunner runs searches with `yt-dlp --dump-json --default-search ytsearch`.
type YtdlpRunner struct {
	Executable string
}

func (r YtdlpRunner) Run(ctx context.Context, target string) (string, error) {
	res, err := stream.SearchCommand(r.Executable).Run(ctx, target)
	if err != nil {
		var stderr []byte
		if res != nil {
			stderr = []byte(res.Stderr)
		}
		return "", stream.NewToolError(stream.ToolDownloader, stderr, err)
	}
	return res.Stdout, nil
}
