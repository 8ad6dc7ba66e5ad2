package view

import (
	"fmt"
	"strings"
	"time"

	"github.com/pastelhn/hn-cli/internal/hackernews"
	"github.com/pastelhn/hn-cli/internal/render/comment"
	tuitheme "github.com/pastelhn/hn-cli/internal/tui/theme"
	tuithread "github.com/pastelhn/hn-cli/internal/tui/thread"
)

const commentIndent = 2

// StoryHeaderLines renders the thread banner: title, url, meta, and the
// story's own text for Ask/Show posts.
func StoryHeaderLines(story hackernews.Item, width int, now time.Time, th tuitheme.Theme) []string {
	title := strings.TrimSpace(story.Title)
	if title == "" {
		title = "(untitled)"
	}

	lines := make([]string, 0, 8)
	lines = append(lines, th.Title.Render(truncateWidth(title, width)))
	if story.URL != "" {
		lines = append(lines, th.MetaValue.Render(truncateWidth(story.URL, width)))
	}
	meta := fmt.Sprintf("%d points by %s %s", story.Score, story.By, ShortTimeLabel(now, story.Time))
	if story.Descendants > 0 {
		meta += fmt.Sprintf(" | %d comments", story.Descendants)
	}
	lines = append(lines, th.MetaLabel.Render(meta))

	if story.Text != "" {
		lines = append(lines, "")
		lines = append(lines, comment.Lines(story.Text, width)...)
	}
	lines = append(lines, "")
	return lines
}

// CommentRowLines renders one flattened comment row: an author line, the
// body indented by depth, and a trailing blank separator. Collapsed rows
// shrink to a single placeholder.
func CommentRowLines(row tuithread.Row, width int, now time.Time, opAuthor string, active bool, th tuitheme.Theme) []string {
	indent := strings.Repeat(" ", row.Depth*commentIndent)
	bodyWidth := width - row.Depth*commentIndent
	if bodyWidth < 16 {
		bodyWidth = 16
	}

	author := row.Item.By
	if author == "" {
		author = "[deleted]"
	}
	header := indent + th.StyleCommentAuthor(author, author == opAuthor && opAuthor != "") +
		" " + th.CommentMeta.Render(ShortTimeLabel(now, row.Item.Time))
	if active {
		header = th.RenderActiveLine(true, header)
	}

	if row.Collapsed {
		placeholder := fmt.Sprintf("%s[+%d replies hidden]", indent, row.HiddenReplies+1)
		if active {
			placeholder = th.RenderActiveLine(true, th.Collapsed.Render(placeholder))
		} else {
			placeholder = th.Collapsed.Render(placeholder)
		}
		return []string{placeholder, ""}
	}

	lines := make([]string, 0, 8)
	lines = append(lines, header)
	if row.Item.Deleted {
		lines = append(lines, indent+th.Collapsed.Render("[deleted]"))
	} else if row.Item.Dead {
		lines = append(lines, indent+th.Collapsed.Render("[flagged]"))
	} else {
		for _, line := range comment.Lines(row.Item.Text, bodyWidth) {
			lines = append(lines, indent+line)
		}
	}
	lines = append(lines, "")
	return lines
}

// ThreadMaxTop bounds scrolling so the last page stays full.
func ThreadMaxTop(linesLen, bodyHeight int) int {
	maxTop := linesLen - bodyHeight
	if maxTop < 0 {
		return 0
	}
	return maxTop
}

// RenderThreadLines slices a line buffer for the visible window.
func RenderThreadLines(lines []string, top, maxLines int) string {
	if len(lines) == 0 {
		return ""
	}
	if top < 0 {
		top = 0
	}
	if top > len(lines)-1 {
		top = len(lines) - 1
	}
	end := len(lines)
	if maxLines > 0 && top+maxLines < end {
		end = top + maxLines
	}
	return strings.Join(lines[top:end], "\n") + "\n"
}
