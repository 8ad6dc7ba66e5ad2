package view

import (
	"fmt"
	"time"

	"github.com/pastelhn/hn-cli/internal/hackernews"
	"github.com/pastelhn/hn-cli/internal/render/comment"
	tuitheme "github.com/pastelhn/hn-cli/internal/tui/theme"
)

// ProfileLines renders a user's account header: handle, karma, age, and
// the about blurb.
func ProfileLines(user hackernews.User, width int, th tuitheme.Theme) []string {
	lines := make([]string, 0, 8)
	lines = append(lines, th.Title.Render(user.ID))

	created := "unknown"
	if user.Created > 0 {
		created = time.Unix(user.Created, 0).UTC().Format(time.DateOnly)
	}
	lines = append(lines,
		th.MetaLabel.Render("karma")+" "+th.MetaValue.Render(fmt.Sprintf("%d", user.Karma)),
		th.MetaLabel.Render("joined")+" "+th.MetaValue.Render(created),
		th.MetaLabel.Render("submitted")+" "+th.MetaValue.Render(fmt.Sprintf("%d items", len(user.Submitted))),
	)

	if user.About != "" {
		lines = append(lines, "")
		lines = append(lines, comment.Lines(user.About, width)...)
	}
	lines = append(lines, "")
	return lines
}

// SubmissionFilterLabel names the active submissions filter for the footer.
func SubmissionFilterLabel(filter hackernews.SubmissionFilter) string {
	switch filter {
	case hackernews.SubmissionsStories:
		return "stories"
	case hackernews.SubmissionsComments:
		return "comments"
	default:
		return "all"
	}
}
