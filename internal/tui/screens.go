package tui

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/pastelhn/hn-cli/internal/hackernews"
	tuistate "github.com/pastelhn/hn-cli/internal/tui/state"
	"github.com/pastelhn/hn-cli/internal/tui/view"
	"github.com/pastelhn/hn-cli/internal/tui/vlist"
)

func (m Model) View() string {
	var b strings.Builder
	title := m.theme.Title.Render("Hacker News")
	if m.loading || m.loadingMore {
		title += " " + m.spin.View()
	}
	b.WriteString(title)
	b.WriteString("\n")

	if m.showHelp {
		b.WriteString(view.Toolbar(m.screen.String()))
		b.WriteString("\n\n")
		b.WriteString(m.helpView())
		b.WriteString("\n")
		b.WriteString(m.statusArea())
		return b.String()
	}

	switch m.screen {
	case screenThread:
		m.renderThreadScreen(&b)
	case screenProfile:
		m.renderProfileScreen(&b)
	case screenSearch:
		m.renderSearchScreen(&b)
	default:
		m.renderListScreen(&b)
	}

	b.WriteString(m.statusArea())
	return b.String()
}

func (m Model) renderListScreen(b *strings.Builder) {
	b.WriteString(view.FeedTabs(m.feed, m.theme))
	b.WriteString("\n")
	b.WriteString(view.Toolbar("list"))
	b.WriteString("\n\n")

	if len(m.stories) == 0 {
		if m.loading {
			b.WriteString("Loading stories...\n")
		} else {
			b.WriteString("No stories available.\n")
		}
	} else {
		b.WriteString(m.list.Viewport())
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(view.ListFooter(m.feed, len(m.stories), m.total, m.hasMore, m.theme))
	b.WriteString("\n")
}

func (m Model) renderThreadScreen(b *strings.Builder) {
	b.WriteString(view.Toolbar("thread"))
	b.WriteString("\n\n")

	lines, _ := m.threadLines()
	if len(lines) == 0 {
		b.WriteString("No comments.\n")
	} else {
		b.WriteString(view.RenderThreadLines(lines, m.threadTop, m.bodyHeight()))
	}

	b.WriteString("\n")
	b.WriteString(m.threadFooter())
	b.WriteString("\n")
}

func (m Model) threadFooter() string {
	total := tuistate.CommentRowsBefore(m.threadRows, len(m.threadRows))
	at := tuistate.CommentRowsBefore(m.threadRows, m.threadCursor+1)
	label := fmt.Sprintf("comment %d of %d", at, total)
	if total == 0 {
		label = "no comments"
	}
	return m.theme.MetaLabel.Render("thread") + " " + m.theme.MetaValue.Render(label)
}

func (m Model) renderProfileScreen(b *strings.Builder) {
	b.WriteString(view.Toolbar("profile"))
	b.WriteString("\n\n")

	width := m.contentWidth()
	for _, line := range view.ProfileLines(m.profileUser, width, m.theme) {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.theme.MetaLabel.Render("submissions"))
	b.WriteString(" ")
	b.WriteString(m.theme.MetaValue.Render(view.SubmissionFilterLabel(m.submissionFilter)))
	b.WriteString("\n")

	if len(m.submissions.Items) == 0 {
		b.WriteString("No submissions.\n")
	} else {
		start, end := tuistate.CenteredWindow(len(m.submissions.Items), m.profileCursor, m.submissionListHeight())
		for i := start; i < end; i++ {
			b.WriteString(m.renderSubmissionLine(m.submissions.Items[i], i == m.profileCursor, width))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.profileFooter())
	b.WriteString("\n")
}

// submissionListHeight is what remains of the body after the profile card.
func (m Model) submissionListHeight() int {
	h := m.bodyHeight() - len(view.ProfileLines(m.profileUser, m.contentWidth(), m.theme)) - 2
	if h < minBodyHeight {
		h = minBodyHeight
	}
	return h
}

func (m Model) renderSubmissionLine(item hackernews.Item, active bool, width int) string {
	if item.Type != hackernews.TypeComment {
		return view.RenderStoryLine(view.StoryLineParams{
			Story:  item,
			Now:    m.nowFn(),
			Active: active,
			Read:   m.read[item.ID],
			Width:  width,
		}, m.theme)
	}

	marker := " "
	if active {
		marker = ">"
	}
	text := strings.Join(strings.Fields(item.Text), " ")
	if text == "" {
		text = "(comment)"
	}
	age := view.ShortTimeLabel(m.nowFn(), item.Time)
	line := fmt.Sprintf(" %s %s", marker, runewidth.Truncate(text, width-10, "..."))
	return m.theme.RenderActiveLine(active, line+" "+m.theme.MetaValue.Render("["+age+"]"))
}

func (m Model) profileFooter() string {
	label := fmt.Sprintf("%d of %d", len(m.submissions.Items), m.submissions.Total)
	if m.submissions.HasMore {
		label += " • n for more"
	}
	return m.theme.MetaLabel.Render("user") + " " + m.theme.MetaValue.Render(m.profileUser.ID) + " " + m.theme.MetaValue.Render(label)
}

func (m Model) renderSearchScreen(b *strings.Builder) {
	b.WriteString(view.Toolbar("search"))
	b.WriteString("\n\n")
	b.WriteString(m.searchInput.View())
	b.WriteString("\n\n")

	switch {
	case m.searchPending != "":
		b.WriteString(fmt.Sprintf("Searching for %q...\n", m.searchPending))
	case len(m.searchPage.Hits) == 0 && m.searchPage.Query != "":
		b.WriteString(fmt.Sprintf("No results for %q.\n", m.searchPage.Query))
	case len(m.searchPage.Hits) == 0:
		b.WriteString("Type a query and press enter.\n")
	default:
		width := m.contentWidth()
		start, end := tuistate.CenteredWindow(len(m.searchPage.Hits), m.searchCursor, m.searchListHeight())
		for i := start; i < end; i++ {
			b.WriteString(view.RenderSearchHitLine(m.searchPage.Hits[i], m.nowFn(), i == m.searchCursor && !m.searchTyping, width, m.theme))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.searchFooter())
	b.WriteString("\n")
}

func (m Model) searchListHeight() int {
	h := m.bodyHeight() - 2
	if h < minBodyHeight {
		h = minBodyHeight
	}
	return h
}

func (m Model) searchFooter() string {
	sortLabel := string(m.searchSort)
	filterLabel := string(m.searchFilter)
	parts := []string{
		m.theme.MetaLabel.Render("sort") + " " + m.theme.MetaValue.Render(sortLabel),
		m.theme.MetaLabel.Render("filter") + " " + m.theme.MetaValue.Render(filterLabel),
	}
	if m.searchPage.Query != "" {
		parts = append(parts, m.theme.MetaValue.Render(fmt.Sprintf("%d hits, page %d of %d",
			m.searchPage.TotalHits, m.searchPage.Page+1, m.searchPage.TotalPages)))
	}
	return strings.Join(parts, " • ")
}

func (m Model) statusArea() string {
	warning := ""
	if m.err != nil {
		warning = m.err.Error()
	}
	return view.StatusLine(m.loading || m.loadingMore, m.err != nil, m.status, warning, m.theme)
}

func (m Model) helpView() string {
	var b strings.Builder
	b.WriteString("Keys\n\n")
	b.WriteString("  Story list\n")
	b.WriteString("    j/k, arrows    move        g/G top/bottom   pgup/pgdn jump\n")
	b.WriteString("    tab/shift+tab  cycle feed  1-6 pick feed    r refresh\n")
	b.WriteString("    enter/c        comments    o open link      y copy link\n")
	b.WriteString("    u              author      / search         n next page\n\n")
	b.WriteString("  Thread\n")
	b.WriteString("    j/k scroll     tab next comment   c collapse/expand\n")
	b.WriteString("    e/l load replies   d hide deleted   o open   u author\n")
	b.WriteString("    esc back (saves position)\n\n")
	b.WriteString("  Profile\n")
	b.WriteString("    j/k move   enter open   f filter   n more   esc back\n\n")
	b.WriteString("  Search\n")
	b.WriteString("    type + enter run   s sort   f filter   n next page   esc back\n\n")
	b.WriteString("  ? toggles this help, q quits.\n")
	if m.initialLoadDone {
		outcome := "ok"
		if m.initialLoadFailed {
			outcome = "failed"
		}
		b.WriteString(fmt.Sprintf("\n  startup fetch: %s in %dms\n", outcome, m.initialLoadDuration.Milliseconds()))
	}
	return b.String()
}

// ListState exposes the windowed-list snapshot for diagnostics and tests.
func (m Model) ListState() vlist.State[hackernews.Item] {
	return m.list.State()
}
