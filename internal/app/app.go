package app

import (
	"context"
	"fmt"

	"github.com/pastelhn/hn-cli/internal/hackernews"
	"github.com/pastelhn/hn-cli/internal/storage"
)

// HackerNewsClient is the slice of the API client the service needs.
type HackerNewsClient interface {
	Stories(ctx context.Context, feed hackernews.Feed, offset, limit int) (hackernews.StoriesPage, error)
	StoryThread(ctx context.Context, id int64, depth int) (hackernews.StoryThread, error)
	CommentChildren(ctx context.Context, id int64, depth int) ([]hackernews.CommentNode, error)
	User(ctx context.Context, id string) (hackernews.User, error)
	UserSubmissions(ctx context.Context, userID string, offset, limit int, filter hackernews.SubmissionFilter) (hackernews.SubmissionsPage, error)
	Search(ctx context.Context, query string, page, hitsPerPage int, sort hackernews.SearchSort, filter hackernews.SearchFilter) (hackernews.SearchPage, error)
	ClearFeedCache(feed hackernews.Feed)
}

type Repository interface {
	SaveStories(ctx context.Context, feed hackernews.Feed, stories []hackernews.Item) error
	ListStories(ctx context.Context, feed hackernews.Feed, limit int) ([]hackernews.Item, error)
	SetPreference(ctx context.Context, key, value string) error
	Preference(ctx context.Context, key, fallback string) (string, error)
	SavePosition(ctx context.Context, pos storage.Position) error
	LoadPosition(ctx context.Context, storyID int64) (storage.Position, bool, error)
}

const (
	prefLastFeed = "last_feed"

	// DefaultCommentDepth bounds the recursive comment fetch for a thread.
	DefaultCommentDepth = 4
)

type Service struct {
	client HackerNewsClient
	repo   Repository
}

func NewService(client HackerNewsClient, repo Repository) *Service {
	return &Service{client: client, repo: repo}
}

// FrontPage fetches the first page of a feed and replaces the cached
// snapshot with it.
func (s *Service) FrontPage(ctx context.Context, feed hackernews.Feed, limit int) (hackernews.StoriesPage, error) {
	page, err := s.client.Stories(ctx, feed, 0, limit)
	if err != nil {
		return hackernews.StoriesPage{}, fmt.Errorf("fetch %s stories: %w", feed, err)
	}
	if err := s.repo.SaveStories(ctx, feed, page.Stories); err != nil {
		return hackernews.StoriesPage{}, fmt.Errorf("save %s snapshot: %w", feed, err)
	}
	return page, nil
}

// Refresh drops the feed's ranked-ID cache before refetching, so the front
// page reflects the live ranking rather than the cached one.
func (s *Service) Refresh(ctx context.Context, feed hackernews.Feed, limit int) (hackernews.StoriesPage, error) {
	s.client.ClearFeedCache(feed)
	return s.FrontPage(ctx, feed, limit)
}

// LoadMore fetches the next page of a feed. The caller appends the result
// to what it already shows; the cached snapshot is left alone.
func (s *Service) LoadMore(ctx context.Context, feed hackernews.Feed, offset, limit int) (hackernews.StoriesPage, error) {
	page, err := s.client.Stories(ctx, feed, offset, limit)
	if err != nil {
		return hackernews.StoriesPage{}, fmt.Errorf("fetch more %s stories: %w", feed, err)
	}
	return page, nil
}

// CachedStories returns the last saved snapshot of a feed, for offline
// startup before the first fetch lands.
func (s *Service) CachedStories(ctx context.Context, feed hackernews.Feed, limit int) ([]hackernews.Item, error) {
	stories, err := s.repo.ListStories(ctx, feed, limit)
	if err != nil {
		return nil, fmt.Errorf("load %s snapshot: %w", feed, err)
	}
	return stories, nil
}

// Thread fetches a story with its comment tree to the default depth.
func (s *Service) Thread(ctx context.Context, storyID int64) (hackernews.StoryThread, error) {
	thread, err := s.client.StoryThread(ctx, storyID, DefaultCommentDepth)
	if err != nil {
		return hackernews.StoryThread{}, fmt.Errorf("fetch thread %d: %w", storyID, err)
	}
	return thread, nil
}

// ExpandComment fetches the children of a collapsed or truncated comment.
func (s *Service) ExpandComment(ctx context.Context, commentID int64) ([]hackernews.CommentNode, error) {
	children, err := s.client.CommentChildren(ctx, commentID, DefaultCommentDepth)
	if err != nil {
		return nil, fmt.Errorf("expand comment %d: %w", commentID, err)
	}
	return children, nil
}

// Profile fetches a user's account page.
func (s *Service) Profile(ctx context.Context, userID string) (hackernews.User, error) {
	user, err := s.client.User(ctx, userID)
	if err != nil {
		return hackernews.User{}, fmt.Errorf("fetch user %s: %w", userID, err)
	}
	return user, nil
}

// Submissions fetches one page of a user's submission history.
func (s *Service) Submissions(ctx context.Context, userID string, filter hackernews.SubmissionFilter, offset, limit int) (hackernews.SubmissionsPage, error) {
	page, err := s.client.UserSubmissions(ctx, userID, offset, limit, filter)
	if err != nil {
		return hackernews.SubmissionsPage{}, fmt.Errorf("fetch submissions for %s: %w", userID, err)
	}
	return page, nil
}

// Search runs an Algolia full-text query.
func (s *Service) Search(ctx context.Context, query string, filter hackernews.SearchFilter, sort hackernews.SearchSort, page, hitsPerPage int) (hackernews.SearchPage, error) {
	results, err := s.client.Search(ctx, query, page, hitsPerPage, sort, filter)
	if err != nil {
		return hackernews.SearchPage{}, fmt.Errorf("search %q: %w", query, err)
	}
	return results, nil
}

// LastFeed returns the feed selected in the previous session, defaulting to
// the top stories.
func (s *Service) LastFeed(ctx context.Context) hackernews.Feed {
	value, err := s.repo.Preference(ctx, prefLastFeed, string(hackernews.FeedTop))
	if err != nil {
		return hackernews.FeedTop
	}
	for _, feed := range hackernews.Feeds {
		if string(feed) == value {
			return feed
		}
	}
	return hackernews.FeedTop
}

func (s *Service) SetLastFeed(ctx context.Context, feed hackernews.Feed) error {
	if err := s.repo.SetPreference(ctx, prefLastFeed, string(feed)); err != nil {
		return fmt.Errorf("save feed preference: %w", err)
	}
	return nil
}

// SaveReadingPosition records where the reader left a thread.
func (s *Service) SaveReadingPosition(ctx context.Context, storyID int64, firstVisible, scrollOffset int) error {
	err := s.repo.SavePosition(ctx, storage.Position{
		StoryID:      storyID,
		FirstVisible: firstVisible,
		ScrollOffset: scrollOffset,
	})
	if err != nil {
		return fmt.Errorf("save reading position: %w", err)
	}
	return nil
}

// ReadingPosition returns the saved position for a story, ok=false when the
// story was never opened.
func (s *Service) ReadingPosition(ctx context.Context, storyID int64) (storage.Position, bool, error) {
	pos, ok, err := s.repo.LoadPosition(ctx, storyID)
	if err != nil {
		return storage.Position{}, false, fmt.Errorf("load reading position: %w", err)
	}
	return pos, ok, nil
}
