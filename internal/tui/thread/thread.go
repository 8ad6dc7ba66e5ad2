// Package thread flattens a story's comment tree into the ordered rows the
// thread view renders, honoring per-comment collapse state.
package thread

import (
	"github.com/pastelhn/hn-cli/internal/hackernews"
)

type RowKind string

const (
	RowStory   RowKind = "story"
	RowComment RowKind = "comment"
)

type Row struct {
	Kind  RowKind
	Item  hackernews.Item
	Depth int

	// HiddenReplies is the number of descendants swallowed by a collapsed
	// comment, shown in its placeholder line.
	HiddenReplies int
	Collapsed     bool
}

type BuildOptions struct {
	Collapsed   map[int64]bool
	HideDeleted bool
}

// BuildRows produces the story header row followed by the comment rows in
// depth-first order. Collapsed comments stay visible as a single row with
// their subtree count; their descendants are skipped.
func BuildRows(t hackernews.StoryThread, opts BuildOptions) []Row {
	rows := make([]Row, 0, 1+CountComments(t.Comments))
	rows = append(rows, Row{Kind: RowStory, Item: t.Story})
	rows = appendCommentRows(rows, t.Comments, 0, opts)
	return rows
}

func appendCommentRows(rows []Row, nodes []hackernews.CommentNode, depth int, opts BuildOptions) []Row {
	for _, node := range nodes {
		if opts.HideDeleted && (node.Item.Deleted || node.Item.Dead) && len(node.Children) == 0 {
			continue
		}
		if opts.Collapsed[node.Item.ID] {
			rows = append(rows, Row{
				Kind:          RowComment,
				Item:          node.Item,
				Depth:         depth,
				Collapsed:     true,
				HiddenReplies: CountComments(node.Children),
			})
			continue
		}
		rows = append(rows, Row{Kind: RowComment, Item: node.Item, Depth: depth})
		rows = appendCommentRows(rows, node.Children, depth+1, opts)
	}
	return rows
}

// CountComments counts every node in the given forests.
func CountComments(nodes []hackernews.CommentNode) int {
	total := 0
	for _, node := range nodes {
		total += 1 + CountComments(node.Children)
	}
	return total
}

// RowIndexByID finds the row showing the given item, -1 when hidden or
// absent.
func RowIndexByID(rows []Row, id int64) int {
	for i, row := range rows {
		if row.Item.ID == id {
			return i
		}
	}
	return -1
}

// FirstCommentRow returns the index of the first comment row, 0 when the
// thread has none.
func FirstCommentRow(rows []Row) int {
	for i, row := range rows {
		if row.Kind == RowComment {
			return i
		}
	}
	return 0
}

// GraftChildren replaces the children of the identified comment in place,
// for lazily expanding a truncated subtree.
func GraftChildren(nodes []hackernews.CommentNode, parentID int64, children []hackernews.CommentNode) bool {
	for i := range nodes {
		if nodes[i].Item.ID == parentID {
			nodes[i].Children = children
			return true
		}
		if GraftChildren(nodes[i].Children, parentID, children) {
			return true
		}
	}
	return false
}
