package view

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/pastelhn/hn-cli/internal/hackernews"
	tuitheme "github.com/pastelhn/hn-cli/internal/tui/theme"
)

var reANSICodes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

type StoryLineParams struct {
	Story    hackernews.Item
	Rank     int
	Now      time.Time
	ShowRank bool
	Active   bool
	Read     bool
	Width    int
}

// RenderStoryLine lays out one feed row: rank, cursor, title, and a
// right-aligned score/comments/age column.
func RenderStoryLine(p StoryLineParams, th tuitheme.Theme) string {
	cursorMarker := " "
	if p.Active {
		cursorMarker = ">"
	}

	prefix := fmt.Sprintf(" %s ", cursorMarker)
	if p.ShowRank {
		prefix = fmt.Sprintf("%3d. %s ", p.Rank+1, cursorMarker)
	}

	meta := StoryMetaLabel(p.Story, p.Now)
	available := p.Width - visibleLen(prefix) - 1 - visibleLen(meta)
	if available < 1 {
		available = 1
	}

	title := strings.TrimSpace(p.Story.Title)
	if title == "" {
		title = "(untitled)"
	}
	title = truncateWidth(title, available)
	styledTitle := th.StyleStoryTitle(p.Story, p.Read, title)

	gap := p.Width - visibleLen(prefix) - visibleLen(title) - visibleLen(meta)
	if gap < 1 {
		gap = 1
	}
	return th.RenderActiveLine(p.Active, prefix+styledTitle+strings.Repeat(" ", gap)+meta)
}

// StoryMetaLabel is the trailing column: "123pts 45c 3h". Jobs carry no
// score or comment count, so they show only their age.
func StoryMetaLabel(story hackernews.Item, now time.Time) string {
	age := ShortTimeLabel(now, story.Time)
	if story.Type == hackernews.TypeJob {
		return "[job " + age + "]"
	}
	return fmt.Sprintf("[%dpts %dc %s]", story.Score, story.Descendants, age)
}

// ShortTimeLabel compresses an item age to the HN style: 5m, 3h, 2d.
func ShortTimeLabel(now time.Time, unix int64) string {
	if unix <= 0 {
		return "?"
	}
	if now.IsZero() {
		now = time.Now()
	}
	then := time.Unix(unix, 0)
	if then.After(now) {
		return "now"
	}
	d := now.Sub(then)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d/time.Minute))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d/time.Hour))
	case d < 365*24*time.Hour:
		return fmt.Sprintf("%dd", int(d/(24*time.Hour)))
	default:
		return fmt.Sprintf("%dy", int(d/(365*24*time.Hour)))
	}
}

// RenderSearchHitLine lays out one Algolia hit with its author and age in
// the trailing column.
func RenderSearchHitLine(hit hackernews.SearchResult, now time.Time, active bool, width int, th tuitheme.Theme) string {
	cursorMarker := " "
	if active {
		cursorMarker = ">"
	}
	prefix := fmt.Sprintf(" %s ", cursorMarker)

	title := strings.TrimSpace(hit.Title)
	if title == "" {
		title = firstNonEmpty(strings.TrimSpace(hit.StoryTitle), "(comment)")
	}

	meta := fmt.Sprintf("[%dpts %s %s]", hit.Points, hit.Author, ShortTimeLabel(now, hit.CreatedAt))
	available := width - visibleLen(prefix) - 1 - visibleLen(meta)
	if available < 1 {
		available = 1
	}
	title = truncateWidth(title, available)

	gap := width - visibleLen(prefix) - visibleLen(title) - visibleLen(meta)
	if gap < 1 {
		gap = 1
	}
	return th.RenderActiveLine(active, prefix+title+strings.Repeat(" ", gap)+th.MetaValue.Render(meta))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// truncateWidth cuts on display cells rather than runes so wide CJK titles
// do not overflow the meta column.
func truncateWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	if maxWidth <= 3 {
		return strings.Repeat(".", maxWidth)
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

func visibleLen(s string) int {
	return runewidth.StringWidth(stripANSIText(s))
}

func stripANSIText(s string) string {
	return reANSICodes.ReplaceAllString(s, "")
}
