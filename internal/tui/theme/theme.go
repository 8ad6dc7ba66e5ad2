package theme

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/pastelhn/hn-cli/internal/hackernews"
)

type Theme struct {
	Title      lipgloss.Style
	FeedTab    lipgloss.Style
	FeedTabOn  lipgloss.Style
	Rank       lipgloss.Style
	Score      lipgloss.Style
	MetaLabel  lipgloss.Style
	MetaValue  lipgloss.Style
	ActiveLine lipgloss.Style
	StateIdle  lipgloss.Style
	StateWarn  lipgloss.Style
	StateLoad  lipgloss.Style

	TitleStory lipgloss.Style
	TitleRead  lipgloss.Style
	TitleJob   lipgloss.Style
	TitleDead  lipgloss.Style

	CommentAuthor lipgloss.Style
	CommentOP     lipgloss.Style
	CommentMeta   lipgloss.Style
	Collapsed     lipgloss.Style
}

func Default() Theme {
	cpMauve := lipgloss.Color("#cba6f7")
	cpRed := lipgloss.Color("#f38ba8")
	cpPeach := lipgloss.Color("#fab387")
	cpYellow := lipgloss.Color("#f9e2af")
	cpGreen := lipgloss.Color("#a6e3a1")
	cpTeal := lipgloss.Color("#94e2d5")
	cpLavender := lipgloss.Color("#b4befe")
	cpText := lipgloss.Color("#cdd6f4")
	cpSubtext0 := lipgloss.Color("#a6adc8")
	cpSubtext1 := lipgloss.Color("#bac2de")
	cpOverlay1 := lipgloss.Color("#7f849c")
	cpSurface0 := lipgloss.Color("#313244")

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(cpMauve),
		FeedTab:    lipgloss.NewStyle().Foreground(cpSubtext0).Padding(0, 1),
		FeedTabOn:  lipgloss.NewStyle().Bold(true).Foreground(cpLavender).Background(cpSurface0).Padding(0, 1),
		Rank:       lipgloss.NewStyle().Foreground(cpOverlay1),
		Score:      lipgloss.NewStyle().Foreground(cpYellow).Bold(true),
		MetaLabel:  lipgloss.NewStyle().Foreground(cpOverlay1),
		MetaValue:  lipgloss.NewStyle().Foreground(cpSubtext1),
		ActiveLine: lipgloss.NewStyle().Background(cpSurface0).Foreground(cpText),
		StateIdle:  lipgloss.NewStyle().Foreground(cpGreen),
		StateWarn:  lipgloss.NewStyle().Foreground(cpRed),
		StateLoad:  lipgloss.NewStyle().Foreground(cpPeach),

		TitleStory: lipgloss.NewStyle().Bold(true).Foreground(cpText),
		TitleRead:  lipgloss.NewStyle().Foreground(cpSubtext0),
		TitleJob:   lipgloss.NewStyle().Italic(true).Foreground(cpTeal),
		TitleDead:  lipgloss.NewStyle().Faint(true).Foreground(cpOverlay1),

		CommentAuthor: lipgloss.NewStyle().Bold(true).Foreground(cpTeal),
		CommentOP:     lipgloss.NewStyle().Bold(true).Foreground(cpPeach),
		CommentMeta:   lipgloss.NewStyle().Foreground(cpOverlay1),
		Collapsed:     lipgloss.NewStyle().Italic(true).Foreground(cpOverlay1),
	}
}

// StyleStoryTitle picks the title style from the item's kind and whether a
// thread was already opened this session.
func (t Theme) StyleStoryTitle(item hackernews.Item, read bool, title string) string {
	if title == "" {
		return title
	}
	switch {
	case item.Dead || item.Deleted:
		return t.TitleDead.Render(title)
	case item.Type == hackernews.TypeJob:
		return t.TitleJob.Render(title)
	case read:
		return t.TitleRead.Render(title)
	default:
		return t.TitleStory.Render(title)
	}
}

// StyleCommentAuthor highlights the story submitter inside their own thread.
func (t Theme) StyleCommentAuthor(author string, isOP bool) string {
	if isOP {
		return t.CommentOP.Render(author)
	}
	return t.CommentAuthor.Render(author)
}

func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}
