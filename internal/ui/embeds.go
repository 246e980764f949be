package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/sonroyaalmerol/auria/internal/player"
	"github.com/sonroyaalmerol/auria/internal/processor"
	"github.com/sonroyaalmerol/auria/internal/search"
	"github.com/sonroyaalmerol/auria/internal/utils"
)

const (
	colorPlaying = 0x006400
	colorPaused  = 0x8B0000
	colorError   = 0x992222
	colorInfo    = 0x1E90FF

	maxTitle = 80
	barWidth = 10
)

// seekBar draws width segments with a knob at pos within length. An unknown
// length keeps the knob at the start.
func seekBar(pos, length time.Duration, width int) string {
	if width <= 0 {
		return ""
	}
	knob := 0
	if length > 0 && pos > 0 {
		knob = min(int(int64(width)*int64(pos)/int64(length)), width-1)
	}
	return strings.Repeat("▬", knob) + "🔘" + strings.Repeat("▬", width-knob-1)
}

func link(title, locator string) string {
	return fmt.Sprintf("[%s](%s)", utils.EscapeMd(utils.Truncate(title, maxTitle)), locator)
}

func BuildStatusEmbed(st player.Status, pending int) *discordgo.MessageEmbed {
	if st.State == player.StatusIdle || st.Locator == "" {
		return &discordgo.MessageEmbed{
			Title:       "Nothing Playing",
			Description: "No track is loaded",
			Color:       colorError,
		}
	}

	button := "▶️"
	color, title := colorPlaying, "Now Playing"
	if st.State == player.StatusPaused {
		button = "⏸️"
		color, title = colorPaused, "Paused"
	}
	desc := fmt.Sprintf("%s\n\n%s %s `[ %s/%s ]`",
		st.Locator,
		button, seekBar(st.Position, st.Length, barWidth),
		utils.PrettyDuration(st.Position), utils.PrettyDuration(st.Length),
	)

	embed := &discordgo.MessageEmbed{
		Title:       title,
		Description: desc,
		Color:       color,
	}
	if pending > 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d command(s) waiting", pending)}
	}
	return embed
}

func BuildSearchEmbed(query string, results []search.VideoDescriptor) *discordgo.MessageEmbed {
	if len(results) == 0 {
		return &discordgo.MessageEmbed{
			Title:       "No results",
			Description: fmt.Sprintf("Nothing found for `%s`", query),
			Color:       colorError,
		}
	}
	var b strings.Builder
	for i, d := range results {
		fmt.Fprintf(&b, "`%d.` %s\n", i+1, link(d.Title, d.Locator))
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("Results for %s", utils.Truncate(query, maxTitle)),
		Description: b.String(),
		Color:       colorInfo,
		Footer:      &discordgo.MessageEmbedFooter{Text: "Use /play with a link to start one"},
	}
}

// BuildResultEmbed renders the outcome of an intent for a follow-up message.
func BuildResultEmbed(res processor.Result) *discordgo.MessageEmbed {
	if !res.OK() {
		return &discordgo.MessageEmbed{
			Title:       fmt.Sprintf("%s failed", res.Intent.Kind),
			Description: utils.Truncate(res.Error, 1000),
			Color:       colorError,
		}
	}
	switch res.Intent.Kind {
	case processor.KindSearch:
		return BuildSearchEmbed(res.Intent.Query, res.Results.Sorted())
	default:
		return BuildStatusEmbed(res.Status, 0)
	}
}
