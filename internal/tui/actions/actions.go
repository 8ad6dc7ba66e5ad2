package actions

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pastelhn/hn-cli/internal/hackernews"
	"github.com/pastelhn/hn-cli/internal/storage"
)

type Service interface {
	FrontPage(ctx context.Context, feed hackernews.Feed, limit int) (hackernews.StoriesPage, error)
	Refresh(ctx context.Context, feed hackernews.Feed, limit int) (hackernews.StoriesPage, error)
	LoadMore(ctx context.Context, feed hackernews.Feed, offset, limit int) (hackernews.StoriesPage, error)
	CachedStories(ctx context.Context, feed hackernews.Feed, limit int) ([]hackernews.Item, error)
	Thread(ctx context.Context, storyID int64) (hackernews.StoryThread, error)
	ExpandComment(ctx context.Context, commentID int64) ([]hackernews.CommentNode, error)
	Profile(ctx context.Context, userID string) (hackernews.User, error)
	Submissions(ctx context.Context, userID string, filter hackernews.SubmissionFilter, offset, limit int) (hackernews.SubmissionsPage, error)
	Search(ctx context.Context, query string, filter hackernews.SearchFilter, sort hackernews.SearchSort, page, hitsPerPage int) (hackernews.SearchPage, error)
	ReadingPosition(ctx context.Context, storyID int64) (storage.Position, bool, error)
}

type StoriesLoadedMsg struct {
	Feed     hackernews.Feed
	Page     hackernews.StoriesPage
	Duration time.Duration
	Source   string
}

type StoriesErrorMsg struct {
	Feed     hackernews.Feed
	Err      error
	Duration time.Duration
	Source   string
}

type CachedStoriesMsg struct {
	Feed    hackernews.Feed
	Stories []hackernews.Item
}

type LoadMoreSuccessMsg struct {
	Feed   hackernews.Feed
	Offset int
	Page   hackernews.StoriesPage
}

type LoadMoreErrorMsg struct {
	Err error
}

type ThreadLoadedMsg struct {
	Thread   hackernews.StoryThread
	Position storage.Position
	Restored bool
}

type ThreadErrorMsg struct {
	StoryID int64
	Err     error
}

type CommentExpandedMsg struct {
	CommentID int64
	Children  []hackernews.CommentNode
}

type CommentExpandErrorMsg struct {
	Err error
}

type ProfileLoadedMsg struct {
	User        hackernews.User
	Submissions hackernews.SubmissionsPage
}

type ProfileErrorMsg struct {
	UserID string
	Err    error
}

type SubmissionsLoadedMsg struct {
	UserID string
	Filter hackernews.SubmissionFilter
	Offset int
	Page   hackernews.SubmissionsPage
}

type SubmissionsErrorMsg struct {
	Err error
}

type SearchLoadedMsg struct {
	Query string
	Page  hackernews.SearchPage
}

type SearchErrorMsg struct {
	Query string
	Err   error
}

type OpenURLSuccessMsg struct {
	Status string
	Opened bool
}

type OpenURLErrorMsg struct {
	Err error
}

// FrontPageCmd fetches page one of a feed, replacing what is shown.
func FrontPageCmd(service Service, feed hackernews.Feed, limit int, source string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		start := time.Now()

		page, err := service.FrontPage(ctx, feed, limit)
		if err != nil {
			return StoriesErrorMsg{Feed: feed, Err: err, Duration: time.Since(start), Source: source}
		}
		return StoriesLoadedMsg{Feed: feed, Page: page, Duration: time.Since(start), Source: source}
	}
}

// RefreshCmd refetches a feed bypassing the ranked-ID cache.
func RefreshCmd(service Service, feed hackernews.Feed, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()
		start := time.Now()

		page, err := service.Refresh(ctx, feed, limit)
		if err != nil {
			return StoriesErrorMsg{Feed: feed, Err: err, Duration: time.Since(start), Source: "refresh"}
		}
		return StoriesLoadedMsg{Feed: feed, Page: page, Duration: time.Since(start), Source: "refresh"}
	}
}

// LoadCachedCmd shows the previous session's snapshot while the first fetch
// is in flight.
func LoadCachedCmd(service Service, feed hackernews.Feed, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		stories, err := service.CachedStories(ctx, feed, limit)
		if err != nil || len(stories) == 0 {
			// Nothing cached is not an error worth surfacing.
			return nil
		}
		return CachedStoriesMsg{Feed: feed, Stories: stories}
	}
}

// LoadMoreCmd fetches the next page for infinite scroll.
func LoadMoreCmd(service Service, feed hackernews.Feed, offset, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		page, err := service.LoadMore(ctx, feed, offset, limit)
		if err != nil {
			return LoadMoreErrorMsg{Err: err}
		}
		return LoadMoreSuccessMsg{Feed: feed, Offset: offset, Page: page}
	}
}

// ThreadCmd fetches a story's comment tree along with any saved reading
// position.
func ThreadCmd(service Service, storyID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		thread, err := service.Thread(ctx, storyID)
		if err != nil {
			return ThreadErrorMsg{StoryID: storyID, Err: err}
		}
		pos, restored, err := service.ReadingPosition(ctx, storyID)
		if err != nil {
			// The thread is still useful without the saved position.
			return ThreadLoadedMsg{Thread: thread}
		}
		return ThreadLoadedMsg{Thread: thread, Position: pos, Restored: restored}
	}
}

func ExpandCommentCmd(service Service, commentID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		children, err := service.ExpandComment(ctx, commentID)
		if err != nil {
			return CommentExpandErrorMsg{Err: err}
		}
		return CommentExpandedMsg{CommentID: commentID, Children: children}
	}
}

// ProfileCmd fetches an account page with its first page of submissions.
func ProfileCmd(service Service, userID string, submissionLimit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		user, err := service.Profile(ctx, userID)
		if err != nil {
			return ProfileErrorMsg{UserID: userID, Err: err}
		}
		subs, err := service.Submissions(ctx, userID, hackernews.SubmissionsAll, 0, submissionLimit)
		if err != nil {
			// Show the profile even if the submissions fetch fails.
			return ProfileLoadedMsg{User: user}
		}
		return ProfileLoadedMsg{User: user, Submissions: subs}
	}
}

func SubmissionsCmd(service Service, userID string, filter hackernews.SubmissionFilter, offset, limit int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		page, err := service.Submissions(ctx, userID, filter, offset, limit)
		if err != nil {
			return SubmissionsErrorMsg{Err: err}
		}
		return SubmissionsLoadedMsg{UserID: userID, Filter: filter, Offset: offset, Page: page}
	}
}

func SearchCmd(service Service, query string, filter hackernews.SearchFilter, sort hackernews.SearchSort, page, hitsPerPage int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		results, err := service.Search(ctx, query, filter, sort, page, hitsPerPage)
		if err != nil {
			return SearchErrorMsg{Query: query, Err: err}
		}
		return SearchLoadedMsg{Query: query, Page: results}
	}
}

// OpenURLCmd opens a URL in the browser, falling back to the clipboard when
// no browser can be launched.
func OpenURLCmd(url string, openFn, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if openFn != nil {
			if err := openFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Opened URL in browser", Opened: true}
			}
		}
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "Could not open browser, URL copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not open URL or copy to clipboard")}
	}
}

func CopyURLCmd(url string, copyFn func(string) error) tea.Cmd {
	return func() tea.Msg {
		if copyFn != nil {
			if err := copyFn(url); err == nil {
				return OpenURLSuccessMsg{Status: "URL copied to clipboard"}
			}
		}
		return OpenURLErrorMsg{Err: fmt.Errorf("could not copy URL to clipboard")}
	}
}
