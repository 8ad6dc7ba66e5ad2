package view

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/pastelhn/hn-cli/internal/hackernews"
	tuitheme "github.com/pastelhn/hn-cli/internal/tui/theme"
)

func TestRenderStoryLine_FitsWidthExactly(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	th := tuitheme.Default()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	story := hackernews.Item{
		ID:          1,
		Type:        hackernews.TypeStory,
		Title:       "A reasonably sized story title",
		By:          "alice",
		Score:       250,
		Descendants: 120,
		Time:        now.Add(-5 * time.Hour).Unix(),
	}

	for _, width := range []int{40, 78, 120} {
		line := RenderStoryLine(StoryLineParams{
			Story: story, Rank: 4, Now: now, ShowRank: true, Width: width,
		}, th)
		if got := visibleLen(line); got != width {
			t.Fatalf("width %d: line is %d cells: %q", width, got, line)
		}
	}
}

func TestRenderStoryLine_LongTitleTruncated(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	th := tuitheme.Default()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	story := hackernews.Item{
		Type:  hackernews.TypeStory,
		Title: strings.Repeat("long title ", 30),
		Time:  now.Add(-time.Hour).Unix(),
	}
	line := RenderStoryLine(StoryLineParams{Story: story, Now: now, Width: 60}, th)
	if got := visibleLen(line); got != 60 {
		t.Fatalf("expected 60 cells, got %d: %q", got, line)
	}
	if !strings.Contains(line, "...") {
		t.Fatalf("expected ellipsis in truncated title: %q", line)
	}
}

func TestStoryMetaLabel(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	story := hackernews.Item{Type: hackernews.TypeStory, Score: 42, Descendants: 7, Time: now.Add(-90 * time.Minute).Unix()}
	if got := StoryMetaLabel(story, now); got != "[42pts 7c 1h]" {
		t.Fatalf("unexpected story meta: %q", got)
	}

	job := hackernews.Item{Type: hackernews.TypeJob, Time: now.Add(-48 * time.Hour).Unix()}
	if got := StoryMetaLabel(job, now); got != "[job 2d]" {
		t.Fatalf("unexpected job meta: %q", got)
	}
}

func TestShortTimeLabel(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		then time.Time
		want string
	}{
		{"seconds ago", now.Add(-30 * time.Second), "now"},
		{"minutes", now.Add(-5 * time.Minute), "5m"},
		{"hours", now.Add(-3 * time.Hour), "3h"},
		{"days", now.Add(-50 * time.Hour), "2d"},
		{"years", now.Add(-400 * 24 * time.Hour), "1y"},
		{"future clock skew", now.Add(time.Minute), "now"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ShortTimeLabel(now, tc.then.Unix()); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}

	if got := ShortTimeLabel(now, 0); got != "?" {
		t.Fatalf("expected ? for missing timestamp, got %q", got)
	}
}

func TestTruncateWidth_CountsCells(t *testing.T) {
	// Wide runes occupy two cells each.
	wide := strings.Repeat("日", 10)
	got := truncateWidth(wide, 11)
	if w := visibleLen(got); w > 11 {
		t.Fatalf("truncated string still %d cells: %q", w, got)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}

	if got := truncateWidth("abc", 2); got != ".." {
		t.Fatalf("expected dots for tiny budget, got %q", got)
	}
	if got := truncateWidth("abc", 0); got != "" {
		t.Fatalf("expected empty string for zero budget, got %q", got)
	}
}
