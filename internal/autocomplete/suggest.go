package autocomplete

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sonroyaalmerol/auria/internal/utils"
)

const DefaultEndpoint = "https://suggestqueries.google.com/complete/search"

// Discord rejects choice names and values longer than this.
const maxChoiceLen = 100

// Suggester fetches YouTube query completions for slash command options.
type Suggester struct {
	Endpoint string
	Client   *http.Client
}

func NewSuggester() *Suggester {
	return &Suggester{Endpoint: DefaultEndpoint, Client: &http.Client{Timeout: 2 * time.Second}}
}

func (s *Suggester) YouTube(ctx context.Context, query string) ([]string, error) {
	u, err := url.Parse(s.Endpoint)
	if err != nil {
		return nil, err
	}
	q := u.Query()
	q.Set("client", "firefox")
	q.Set("ds", "yt")
	q.Set("q", query)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("suggest: unexpected status %d", resp.StatusCode)
	}

	// Response shape: ["query", ["s1", "s2", ...], ...]
	var parsed []any
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	if len(parsed) < 2 {
		return nil, nil
	}
	arr, ok := parsed[1].([]any)
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(arr))
	for _, v := range arr {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Choices returns at most limit autocomplete choices for query.
func (s *Suggester) Choices(ctx context.Context, query string, limit int) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	if limit <= 0 {
		limit = 10
	}
	yt, err := s.YouTube(ctx, query)
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, limit)
	for _, v := range yt {
		if len(out) >= limit {
			break
		}
		v = utils.Truncate(v, maxChoiceLen)
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: v, Value: v})
	}
	return out, err
}
