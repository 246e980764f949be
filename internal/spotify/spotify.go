package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2/clientcredentials"
)

// Market used for artist top tracks.
const Market = "US"

var ErrInvalidLink = errors.New("invalid spotify link")

type Track struct {
	Name   string
	Artist string
}

// Link is a parsed Spotify URI or open.spotify.com URL.
type Link struct {
	Kind string // track, album, playlist or artist
	ID   spotify.ID
}

func (l Link) String() string { return "spotify:" + l.Kind + ":" + string(l.ID) }

// Client wraps the Web API with client-credentials auth; no user login is
// involved.
type Client struct {
	raw *spotify.Client
}

func NewClientCredentials(clientID, clientSecret string) *Client {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	return &Client{raw: spotify.New(cfg.Client(context.Background()), spotify.WithRetry(true))}
}

// IsLink reports whether raw looks like a Spotify URI or open.spotify.com URL.
func IsLink(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.HasPrefix(raw, "spotify:") || strings.Contains(raw, "open.spotify.com/")
}

func ParseLink(raw string) (Link, error) {
	raw = strings.TrimSpace(raw)
	var kind, id string
	if rest, ok := strings.CutPrefix(raw, "spotify:"); ok {
		k, v, found := strings.Cut(rest, ":")
		if !found || v == "" || strings.Contains(v, ":") {
			return Link{}, fmt.Errorf("%w: %q", ErrInvalidLink, raw)
		}
		kind, id = k, v
	} else {
		u, err := url.Parse(raw)
		if err != nil {
			return Link{}, fmt.Errorf("%w: %v", ErrInvalidLink, err)
		}
		if u.Host != "open.spotify.com" && u.Host != "www.open.spotify.com" {
			return Link{}, fmt.Errorf("%w: host %q", ErrInvalidLink, u.Host)
		}
		parts := strings.Split(strings.Trim(u.Path, "/"), "/")
		// Localized URLs look like /intl-de/track/<id>.
		if len(parts) > 0 && strings.HasPrefix(parts[0], "intl-") {
			parts = parts[1:]
		}
		if len(parts) < 2 || parts[1] == "" {
			return Link{}, fmt.Errorf("%w: path %q", ErrInvalidLink, u.Path)
		}
		kind, id = parts[0], parts[1]
	}
	switch kind {
	case "track", "album", "playlist", "artist":
		return Link{Kind: kind, ID: spotify.ID(id)}, nil
	}
	return Link{}, fmt.Errorf("%w: unsupported type %q", ErrInvalidLink, kind)
}

// Tracks lists up to limit tracks behind a link. Albums and playlists are
// paged; artists yield their top tracks in Market.
func (c *Client) Tracks(ctx context.Context, link Link, limit int) ([]Track, error) {
	if limit <= 0 {
		limit = 1
	}
	switch link.Kind {
	case "track":
		t, err := c.raw.GetTrack(ctx, link.ID)
		if err != nil {
			return nil, err
		}
		return []Track{fromSimple(t.SimpleTrack)}, nil
	case "album":
		page, err := c.raw.GetAlbumTracks(ctx, link.ID, spotify.Limit(limit))
		if err != nil {
			return nil, err
		}
		out := make([]Track, 0, limit)
		for {
			for _, t := range page.Tracks {
				out = append(out, fromSimple(t))
			}
			if len(out) >= limit || page.Next == "" {
				break
			}
			if err := c.raw.NextPage(ctx, page); err != nil {
				break
			}
		}
		return clip(out, limit), nil
	case "playlist":
		page, err := c.raw.GetPlaylistItems(ctx, link.ID, spotify.Limit(limit))
		if err != nil {
			return nil, err
		}
		out := make([]Track, 0, limit)
		for {
			for _, it := range page.Items {
				// episodes and local files carry no track
				if it.Track.Track != nil {
					out = append(out, fromSimple(it.Track.Track.SimpleTrack))
				}
			}
			if len(out) >= limit || page.Next == "" {
				break
			}
			if err := c.raw.NextPage(ctx, page); err != nil {
				break
			}
		}
		return clip(out, limit), nil
	case "artist":
		top, err := c.raw.GetArtistsTopTracks(ctx, link.ID, Market)
		if err != nil {
			return nil, err
		}
		out := make([]Track, 0, len(top))
		for _, t := range top {
			out = append(out, fromSimple(t.SimpleTrack))
		}
		return clip(out, limit), nil
	}
	return nil, fmt.Errorf("%w: unsupported type %q", ErrInvalidLink, link.Kind)
}

func fromSimple(t spotify.SimpleTrack) Track {
	out := Track{Name: t.Name}
	if len(t.Artists) > 0 {
		out.Artist = t.Artists[0].Name
	}
	return out
}

func clip(tracks []Track, limit int) []Track {
	if len(tracks) > limit {
		return tracks[:limit]
	}
	return tracks
}
