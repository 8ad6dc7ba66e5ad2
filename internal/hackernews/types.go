package hackernews

import (
	"errors"
	"fmt"
	"strings"
)

// ItemType discriminates the records the Firebase API returns.
type ItemType int

const (
	TypeStory ItemType = iota
	TypeComment
	TypeJob
	TypePoll
	TypePollOpt
	TypeUnknown
)

func ParseItemType(s string) ItemType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "story":
		return TypeStory
	case "comment":
		return TypeComment
	case "job":
		return TypeJob
	case "poll":
		return TypePoll
	case "pollopt":
		return TypePollOpt
	default:
		return TypeUnknown
	}
}

func (t ItemType) String() string {
	switch t {
	case TypeStory:
		return "story"
	case TypeComment:
		return "comment"
	case TypeJob:
		return "job"
	case TypePoll:
		return "poll"
	case TypePollOpt:
		return "pollopt"
	default:
		return "unknown"
	}
}

// Feed identifies one of the ranked story lists.
type Feed string

const (
	FeedTop  Feed = "top"
	FeedNew  Feed = "new"
	FeedBest Feed = "best"
	FeedAsk  Feed = "ask"
	FeedShow Feed = "show"
	FeedJobs Feed = "jobs"
)

// Feeds lists all feeds in display order.
var Feeds = []Feed{FeedTop, FeedNew, FeedBest, FeedAsk, FeedShow, FeedJobs}

func (f Feed) Endpoint() string {
	switch f {
	case FeedTop:
		return "topstories"
	case FeedNew:
		return "newstories"
	case FeedBest:
		return "beststories"
	case FeedAsk:
		return "askstories"
	case FeedShow:
		return "showstories"
	case FeedJobs:
		return "jobstories"
	default:
		return "topstories"
	}
}

func (f Feed) Label() string {
	switch f {
	case FeedTop:
		return "Top"
	case FeedNew:
		return "New"
	case FeedBest:
		return "Best"
	case FeedAsk:
		return "Ask"
	case FeedShow:
		return "Show"
	case FeedJobs:
		return "Jobs"
	default:
		return string(f)
	}
}

// rawItem is the wire shape of an item. The type discriminator stays a
// string until ParseItemType maps it.
type rawItem struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	By          string  `json:"by"`
	Time        int64   `json:"time"`
	Text        string  `json:"text"`
	URL         string  `json:"url"`
	Score       int     `json:"score"`
	Title       string  `json:"title"`
	Descendants int     `json:"descendants"`
	Kids        []int64 `json:"kids"`
	Parent      int64   `json:"parent"`
	Dead        bool    `json:"dead"`
	Deleted     bool    `json:"deleted"`
}

// Item is a story, comment, job, poll or poll option.
type Item struct {
	ID          int64
	Type        ItemType
	By          string
	Time        int64
	Text        string
	URL         string
	Score       int
	Title       string
	Descendants int
	Kids        []int64
	Parent      int64
	Dead        bool
	Deleted     bool
}

func (r rawItem) item() Item {
	return Item{
		ID:          r.ID,
		Type:        ParseItemType(r.Type),
		By:          r.By,
		Time:        r.Time,
		Text:        r.Text,
		URL:         r.URL,
		Score:       r.Score,
		Title:       r.Title,
		Descendants: r.Descendants,
		Kids:        r.Kids,
		Parent:      r.Parent,
		Dead:        r.Dead,
		Deleted:     r.Deleted,
	}
}

// User is a Hacker News account profile.
type User struct {
	ID        string  `json:"id"`
	Created   int64   `json:"created"`
	Karma     int     `json:"karma"`
	About     string  `json:"about"`
	Submitted []int64 `json:"submitted"`
}

// CommentNode is a comment with its fetched children.
type CommentNode struct {
	Item     Item
	Children []CommentNode
}

// StoryThread bundles a story with its comment tree.
type StoryThread struct {
	Story    Item
	Comments []CommentNode
}

// StoriesPage is one page of a ranked feed.
type StoriesPage struct {
	Stories []Item
	HasMore bool
	Total   int
}

// SubmissionsPage is one page of a user's submission history.
type SubmissionsPage struct {
	Items   []Item
	HasMore bool
	Total   int
}

// SubmissionFilter narrows a user's submissions by kind.
type SubmissionFilter string

const (
	SubmissionsAll      SubmissionFilter = "all"
	SubmissionsStories  SubmissionFilter = "stories"
	SubmissionsComments SubmissionFilter = "comments"
)

// SearchSort selects the Algolia ranking.
type SearchSort string

const (
	SortRelevance SearchSort = "relevance"
	SortDate      SearchSort = "date"
)

// SearchFilter narrows search hits by kind.
type SearchFilter string

const (
	SearchAll      SearchFilter = "all"
	SearchStories  SearchFilter = "story"
	SearchComments SearchFilter = "comment"
)

// SearchResult is one Algolia hit, normalized.
type SearchResult struct {
	ID          int64
	Title       string
	URL         string
	Author      string
	Points      int
	NumComments int
	CreatedAt   int64
	Type        string
	StoryID     int64
	StoryTitle  string
	Text        string
}

// SearchPage is one page of search hits.
type SearchPage struct {
	Hits        []SearchResult
	TotalHits   int
	Page        int
	TotalPages  int
	HitsPerPage int
	Query       string
}

// CacheStats summarizes the in-process caches for the settings view.
type CacheStats struct {
	Items       int
	StoryLists  int
	Users       int
	ItemTTL     string
	StoryIDsTTL string
	UserTTL     string
}

// ErrItemNotFound reports an item the API returned null for.
var ErrItemNotFound = errors.New("item not found")

// ErrUserNotFound reports a user the API returned null for.
var ErrUserNotFound = errors.New("user not found")

// RateLimitedError carries the server's requested backoff.
type RateLimitedError struct {
	RetryAfter int
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("rate limited, retry after %d seconds", e.RetryAfter)
}
