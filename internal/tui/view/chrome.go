package view

import (
	"fmt"
	"strings"

	"github.com/pastelhn/hn-cli/internal/hackernews"
	tuitheme "github.com/pastelhn/hn-cli/internal/tui/theme"
)

// FeedTabs renders the feed selector row shown under the title.
func FeedTabs(active hackernews.Feed, th tuitheme.Theme) string {
	parts := make([]string, 0, len(hackernews.Feeds))
	for _, feed := range hackernews.Feeds {
		if feed == active {
			parts = append(parts, th.FeedTabOn.Render(feed.Label()))
			continue
		}
		parts = append(parts, th.FeedTab.Render(feed.Label()))
	}
	return strings.Join(parts, " ")
}

func Toolbar(screen string) string {
	switch screen {
	case "thread":
		return "j/k scroll | tab/shift+tab next/prev comment | c collapse | o open | y copy | u author | esc back | ? help"
	case "profile":
		return "j/k move | enter open | f filter | esc back | ? help"
	case "search":
		return "type to search | enter run | s sort | f filter | esc back | ? help"
	default:
		return "j/k move | enter comments | tab feeds | o open | / search | r refresh | ? help | q quit"
	}
}

func StatusLine(loading bool, hasWarning bool, status, warning string, th tuitheme.Theme) string {
	state := "idle"
	if loading {
		state = "loading"
	}
	if hasWarning {
		state = "warning"
	}
	main := "Ready"
	if status != "" {
		main = status
	} else if hasWarning {
		main = warning
	}
	stateLabel := th.StateIdle.Render("state")
	switch state {
	case "warning":
		stateLabel = th.StateWarn.Render("state")
	case "loading":
		stateLabel = th.StateLoad.Render("state")
	}
	return fmt.Sprintf("%s: %s | %s", stateLabel, state, th.MetaValue.Render(main))
}

// ListFooter summarizes paging under the story list.
func ListFooter(feed hackernews.Feed, shown, total int, hasMore bool, th tuitheme.Theme) string {
	parts := []string{
		th.MetaLabel.Render("feed") + " " + th.MetaValue.Render(string(feed)),
		th.MetaValue.Render(fmt.Sprintf("%d of %d", shown, total)),
	}
	if hasMore {
		parts = append(parts, th.MetaValue.Render("scroll for more"))
	}
	return strings.Join(parts, " • ")
}
