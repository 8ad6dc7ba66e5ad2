package state

import (
	"github.com/pastelhn/hn-cli/internal/hackernews"
	tuithread "github.com/pastelhn/hn-cli/internal/tui/thread"
)

func ClampCursor(cursor, size int) int {
	if size <= 0 {
		return 0
	}
	if cursor >= size {
		return size - 1
	}
	if cursor < 0 {
		return 0
	}
	return cursor
}

func PageStep(height int, hasStatus bool) int {
	if height <= 0 {
		return 10
	}
	headerLines := 5
	if hasStatus {
		headerLines += 2
	}
	step := height - headerLines
	if step < 3 {
		step = 3
	}
	return step
}

// CenteredWindow positions a height-sized window over totalRows so the
// cursor sits near the middle, clamped at both ends.
func CenteredWindow(totalRows, cursor, height int) (int, int) {
	if totalRows <= 0 {
		return 0, 0
	}
	if height <= 0 || totalRows <= height {
		return 0, totalRows
	}
	cursor = ClampCursor(cursor, totalRows)
	start := cursor - height/2
	if start < 0 {
		start = 0
	}
	maxStart := totalRows - height
	if start > maxStart {
		start = maxStart
	}
	return start, start + height
}

func StoryIndexByID(stories []hackernews.Item, id int64) int {
	for i, story := range stories {
		if story.ID == id {
			return i
		}
	}
	return -1
}

// CommentRowsBefore counts comment rows ahead of the given row index, for
// the "comment n of m" position indicator.
func CommentRowsBefore(rows []tuithread.Row, end int) int {
	if end <= 0 || len(rows) == 0 {
		return 0
	}
	if end > len(rows) {
		end = len(rows)
	}
	count := 0
	for i := 0; i < end; i++ {
		if rows[i].Kind == tuithread.RowComment {
			count++
		}
	}
	return count
}

// NextFeed cycles through the feed tabs in display order.
func NextFeed(current hackernews.Feed, delta int) hackernews.Feed {
	n := len(hackernews.Feeds)
	if n == 0 {
		return current
	}
	idx := 0
	for i, feed := range hackernews.Feeds {
		if feed == current {
			idx = i
			break
		}
	}
	idx = ((idx+delta)%n + n) % n
	return hackernews.Feeds[idx]
}
