package hackernews

import (
	"context"
	"net/url"
	"strconv"
)

type algoliaHit struct {
	ObjectID    string   `json:"objectID"`
	Title       string   `json:"title"`
	URL         string   `json:"url"`
	Author      string   `json:"author"`
	Points      int      `json:"points"`
	NumComments int      `json:"num_comments"`
	CreatedAtI  int64    `json:"created_at_i"`
	StoryID     int64    `json:"story_id"`
	StoryTitle  string   `json:"story_title"`
	CommentText string   `json:"comment_text"`
	Tags        []string `json:"_tags"`
}

type algoliaResponse struct {
	Hits        []algoliaHit `json:"hits"`
	NbHits      int          `json:"nbHits"`
	Page        int          `json:"page"`
	NbPages     int          `json:"nbPages"`
	HitsPerPage int          `json:"hitsPerPage"`
	Query       string       `json:"query"`
}

func (h algoliaHit) result() SearchResult {
	kind := "story"
	for _, tag := range h.Tags {
		if tag == "comment" {
			kind = "comment"
			break
		}
	}
	id, _ := strconv.ParseInt(h.ObjectID, 10, 64)
	return SearchResult{
		ID:          id,
		Title:       h.Title,
		URL:         h.URL,
		Author:      h.Author,
		Points:      h.Points,
		NumComments: h.NumComments,
		CreatedAt:   h.CreatedAtI,
		Type:        kind,
		StoryID:     h.StoryID,
		StoryTitle:  h.StoryTitle,
		Text:        h.CommentText,
	}
}

// Search queries the Algolia index. Sort by date switches to the
// search_by_date endpoint; kind filters map to Algolia tags.
func (c *Client) Search(ctx context.Context, query string, page, hitsPerPage int, sort SearchSort, filter SearchFilter) (SearchPage, error) {
	endpoint := "/search"
	if sort == SortDate {
		endpoint = "/search_by_date"
	}

	q := make(url.Values)
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("hitsPerPage", strconv.Itoa(hitsPerPage))
	switch filter {
	case SearchStories:
		q.Set("tags", "story")
	case SearchComments:
		q.Set("tags", "comment")
	}

	var resp algoliaResponse
	if err := c.getJSON(ctx, c.searchBaseURL+endpoint+"?"+q.Encode(), &resp, "search"); err != nil {
		return SearchPage{}, err
	}

	hits := make([]SearchResult, 0, len(resp.Hits))
	for _, hit := range resp.Hits {
		hits = append(hits, hit.result())
	}
	return SearchPage{
		Hits:        hits,
		TotalHits:   resp.NbHits,
		Page:        resp.Page,
		TotalPages:  resp.NbPages,
		HitsPerPage: resp.HitsPerPage,
		Query:       resp.Query,
	}, nil
}
