package hackernews

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"
)

const (
	itemCacheTTL     = 5 * time.Minute
	storyIDsCacheTTL = 2 * time.Minute
	userCacheTTL     = 10 * time.Minute

	itemCacheSize = 10_000
	userCacheSize = 100

	// fetchConcurrency bounds the item fan-out so a 30-story page does not
	// open 30 sockets at once.
	fetchConcurrency = 8
)

// Client talks to the Firebase item API and the Algolia search API, with
// in-process TTL caches in front of both item and user lookups.
type Client struct {
	baseURL       string
	searchBaseURL string
	http          *http.Client

	items    *expirable.LRU[int64, Item]
	storyIDs *expirable.LRU[Feed, []int64]
	users    *expirable.LRU[string, User]
}

func NewClient(baseURL, searchBaseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		searchBaseURL: strings.TrimRight(searchBaseURL, "/"),
		http:          httpClient,
		items:         expirable.NewLRU[int64, Item](itemCacheSize, nil, itemCacheTTL),
		storyIDs:      expirable.NewLRU[Feed, []int64](len(Feeds), nil, storyIDsCacheTTL),
		users:         expirable.NewLRU[string, User](userCacheSize, nil, userCacheTTL),
	}
}

// StoryIDs returns the full ranked ID list for a feed.
func (c *Client) StoryIDs(ctx context.Context, feed Feed) ([]int64, error) {
	if ids, ok := c.storyIDs.Get(feed); ok {
		return ids, nil
	}

	var ids []int64
	if err := c.getJSON(ctx, c.baseURL+"/"+feed.Endpoint()+".json", &ids, "story ids"); err != nil {
		return nil, err
	}
	c.storyIDs.Add(feed, ids)
	return ids, nil
}

// Item returns a single item. A JSON null body means the item is missing or
// deleted; that surfaces as ErrItemNotFound.
func (c *Client) Item(ctx context.Context, id int64) (Item, error) {
	if item, ok := c.items.Get(id); ok {
		return item, nil
	}

	var raw *rawItem
	if err := c.getJSON(ctx, fmt.Sprintf("%s/item/%d.json", c.baseURL, id), &raw, "item"); err != nil {
		return Item{}, err
	}
	if raw == nil {
		return Item{}, fmt.Errorf("item %d: %w", id, ErrItemNotFound)
	}

	item := raw.item()
	c.items.Add(id, item)
	return item, nil
}

// Items fetches many items concurrently, preserving input order. Missing
// items are skipped rather than failing the batch.
func (c *Client) Items(ctx context.Context, ids []int64) ([]Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	results := make([]*Item, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)

	for i, id := range ids {
		g.Go(func() error {
			item, err := c.Item(gctx, id)
			if err != nil {
				if errors.Is(err, ErrItemNotFound) {
					return nil
				}
				return err
			}
			results[i] = &item
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(ids))
	for _, item := range results {
		if item != nil {
			items = append(items, *item)
		}
	}
	return items, nil
}

// Stories returns one page of a ranked feed.
func (c *Client) Stories(ctx context.Context, feed Feed, offset, limit int) (StoriesPage, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 30
	}

	ids, err := c.StoryIDs(ctx, feed)
	if err != nil {
		return StoriesPage{}, err
	}

	total := len(ids)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	stories, err := c.Items(ctx, ids[offset:end])
	if err != nil {
		return StoriesPage{}, err
	}

	return StoriesPage{
		Stories: stories,
		HasMore: offset+limit < total,
		Total:   total,
	}, nil
}

// User returns a profile by account name.
func (c *Client) User(ctx context.Context, id string) (User, error) {
	if user, ok := c.users.Get(id); ok {
		return user, nil
	}

	var raw *User
	if err := c.getJSON(ctx, c.baseURL+"/user/"+id+".json", &raw, "user"); err != nil {
		return User{}, err
	}
	if raw == nil {
		return User{}, fmt.Errorf("user %q: %w", id, ErrUserNotFound)
	}

	c.users.Add(id, *raw)
	return *raw, nil
}

// UserSubmissions returns one page of a user's submission history. When a
// kind filter is active, twice the page is fetched so filtering still tends
// to fill the page.
func (c *Client) UserSubmissions(ctx context.Context, userID string, offset, limit int, filter SubmissionFilter) (SubmissionsPage, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 30
	}

	user, err := c.User(ctx, userID)
	if err != nil {
		return SubmissionsPage{}, err
	}

	allIDs := user.Submitted
	total := len(allIDs)

	fetchLimit := limit
	if filter != SubmissionsAll {
		fetchLimit = limit * 2
	}
	if offset > total {
		offset = total
	}
	end := offset + fetchLimit
	if end > total {
		end = total
	}

	items, err := c.Items(ctx, allIDs[offset:end])
	if err != nil {
		return SubmissionsPage{}, err
	}

	filtered := items[:0:0]
	for _, item := range items {
		switch filter {
		case SubmissionsStories:
			if item.Type == TypeStory || item.Type == TypeJob {
				filtered = append(filtered, item)
			}
		case SubmissionsComments:
			if item.Type == TypeComment {
				filtered = append(filtered, item)
			}
		default:
			filtered = append(filtered, item)
		}
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	return SubmissionsPage{
		Items:   filtered,
		HasMore: offset+limit < total,
		Total:   total,
	}, nil
}

// Comments fetches an item's comment tree, depth levels deep.
func (c *Client) Comments(ctx context.Context, item Item, depth int) ([]CommentNode, error) {
	if depth <= 0 || len(item.Kids) == 0 {
		return nil, nil
	}

	items, err := c.Items(ctx, item.Kids)
	if err != nil {
		return nil, err
	}

	nodes := make([]CommentNode, 0, len(items))
	for _, child := range items {
		var children []CommentNode
		if depth > 1 {
			children, err = c.Comments(ctx, child, depth-1)
			if err != nil {
				return nil, err
			}
		}
		nodes = append(nodes, CommentNode{Item: child, Children: children})
	}
	return nodes, nil
}

// CommentChildren fetches the subtree below a single comment, for expanding
// deep threads on demand.
func (c *Client) CommentChildren(ctx context.Context, commentID int64, depth int) ([]CommentNode, error) {
	comment, err := c.Item(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return c.Comments(ctx, comment, depth)
}

// StoryThread fetches a story together with its comment tree.
func (c *Client) StoryThread(ctx context.Context, id int64, depth int) (StoryThread, error) {
	story, err := c.Item(ctx, id)
	if err != nil {
		return StoryThread{}, err
	}
	comments, err := c.Comments(ctx, story, depth)
	if err != nil {
		return StoryThread{}, err
	}
	return StoryThread{Story: story, Comments: comments}, nil
}

// ClearCache drops every in-process cache.
func (c *Client) ClearCache() {
	c.items.Purge()
	c.storyIDs.Purge()
	c.users.Purge()
}

// ClearFeedCache drops the cached ID list for one feed, or all feeds when
// feed is empty.
func (c *Client) ClearFeedCache(feed Feed) {
	if feed == "" {
		c.storyIDs.Purge()
		return
	}
	c.storyIDs.Remove(feed)
}

// Stats reports cache occupancy and TTLs.
func (c *Client) Stats() CacheStats {
	return CacheStats{
		Items:       c.items.Len(),
		StoryLists:  c.storyIDs.Len(),
		Users:       c.users.Len(),
		ItemTTL:     itemCacheTTL.String(),
		StoryIDsTTL: storyIDsCacheTTL.String(),
		UserTTL:     userCacheTTL.String(),
	}
}

func (c *Client) getJSON(ctx context.Context, fullURL string, out any, resource string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return fmt.Errorf("build %s request: %w", resource, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return &RateLimitedError{RetryAfter: retryAfterSeconds(resp)}
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s failed with status %d: %s", resource, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", resource, err)
	}
	return nil
}

func retryAfterSeconds(resp *http.Response) int {
	if v := strings.TrimSpace(resp.Header.Get("Retry-After")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 60
}
