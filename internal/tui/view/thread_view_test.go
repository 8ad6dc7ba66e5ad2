package view

import (
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/pastelhn/hn-cli/internal/hackernews"
	tuitheme "github.com/pastelhn/hn-cli/internal/tui/theme"
	tuithread "github.com/pastelhn/hn-cli/internal/tui/thread"
)

func TestStoryHeaderLines(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	th := tuitheme.Default()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	story := hackernews.Item{
		Title:       "Ask HN: Favorite debugging story?",
		By:          "alice",
		Score:       321,
		Descendants: 200,
		Time:        now.Add(-6 * time.Hour).Unix(),
		Text:        "Mine involves a <i>printer</i>.",
	}
	got := strings.Join(StoryHeaderLines(story, 80, now, th), "\n")

	for _, want := range []string{
		"Ask HN: Favorite debugging story?",
		"321 points by alice 6h | 200 comments",
		"Mine involves a printer.",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %q in header, got %q", want, got)
		}
	}
}

func TestCommentRowLines_IndentsByDepth(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	th := tuitheme.Default()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	row := tuithread.Row{
		Kind:  tuithread.RowComment,
		Depth: 2,
		Item: hackernews.Item{
			ID:   7,
			By:   "bob",
			Time: now.Add(-time.Hour).Unix(),
			Text: "Nested reply.",
		},
	}
	lines := CommentRowLines(row, 80, now, "alice", false, th)
	if len(lines) < 3 {
		t.Fatalf("expected header, body and separator, got %v", lines)
	}
	if !strings.HasPrefix(lines[0], "    bob") {
		t.Fatalf("expected 4-space indent on header, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "    Nested reply.") {
		t.Fatalf("expected indented body, got %q", lines[1])
	}
	if lines[len(lines)-1] != "" {
		t.Fatal("expected trailing separator line")
	}
}

func TestCommentRowLines_CollapsedPlaceholder(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	th := tuitheme.Default()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	row := tuithread.Row{
		Kind:          tuithread.RowComment,
		Collapsed:     true,
		HiddenReplies: 4,
		Item:          hackernews.Item{ID: 7, By: "bob", Time: now.Unix()},
	}
	lines := CommentRowLines(row, 80, now, "", false, th)
	if len(lines) != 2 {
		t.Fatalf("expected placeholder + separator, got %v", lines)
	}
	if !strings.Contains(lines[0], "[+5 replies hidden]") {
		t.Fatalf("expected hidden-subtree count including the comment itself, got %q", lines[0])
	}
}

func TestCommentRowLines_DeletedAndDead(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)
	th := tuitheme.Default()
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	deleted := tuithread.Row{Item: hackernews.Item{Deleted: true, Time: now.Unix()}}
	got := strings.Join(CommentRowLines(deleted, 80, now, "", false, th), "\n")
	if !strings.Contains(got, "[deleted]") {
		t.Fatalf("expected deleted marker, got %q", got)
	}

	dead := tuithread.Row{Item: hackernews.Item{By: "spammer", Dead: true, Text: "buy now", Time: now.Unix()}}
	got = strings.Join(CommentRowLines(dead, 80, now, "", false, th), "\n")
	if !strings.Contains(got, "[flagged]") {
		t.Fatalf("expected flagged marker, got %q", got)
	}
	if strings.Contains(got, "buy now") {
		t.Fatalf("flagged body leaked: %q", got)
	}
}

func TestRenderThreadLines_WindowAndBounds(t *testing.T) {
	lines := []string{"a", "b", "c", "d", "e"}

	if got := RenderThreadLines(lines, 1, 2); got != "b\nc\n" {
		t.Fatalf("unexpected window: %q", got)
	}
	if got := RenderThreadLines(lines, -5, 2); got != "a\nb\n" {
		t.Fatalf("expected clamp at top: %q", got)
	}
	if got := RenderThreadLines(lines, 99, 2); got != "e\n" {
		t.Fatalf("expected clamp at bottom: %q", got)
	}
	if got := RenderThreadLines(nil, 0, 2); got != "" {
		t.Fatalf("expected empty output: %q", got)
	}
}

func TestThreadMaxTop(t *testing.T) {
	if got := ThreadMaxTop(100, 30); got != 70 {
		t.Fatalf("expected 70, got %d", got)
	}
	if got := ThreadMaxTop(10, 30); got != 0 {
		t.Fatalf("expected 0 when everything fits, got %d", got)
	}
}
