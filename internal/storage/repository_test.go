package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pastelhn/hn-cli/internal/hackernews"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "hn.db")
	repo, err := NewRepository(dbPath)
	if err != nil {
		t.Fatalf("NewRepository returned error: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })

	if err := repo.Init(context.Background()); err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	return repo
}

func TestRepository_SaveAndListStories(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	stories := []hackernews.Item{
		{ID: 100, Type: hackernews.TypeStory, Title: "Ranked first", URL: "https://example.com/a", By: "alice", Score: 300, Descendants: 40, Time: 1700000000},
		{ID: 50, Type: hackernews.TypeStory, Title: "Ranked second", URL: "https://example.com/b", By: "bob", Score: 900, Descendants: 10, Time: 1700000100},
	}
	if err := repo.SaveStories(ctx, hackernews.FeedTop, stories); err != nil {
		t.Fatalf("SaveStories returned error: %v", err)
	}

	listed, err := repo.ListStories(ctx, hackernews.FeedTop, 10)
	if err != nil {
		t.Fatalf("ListStories returned error: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 stories, got %d", len(listed))
	}
	// Feed rank wins over score: the snapshot preserves API order.
	if listed[0].ID != 100 || listed[1].ID != 50 {
		t.Fatalf("expected ranked order [100, 50], got [%d, %d]", listed[0].ID, listed[1].ID)
	}
	if listed[0].Type != hackernews.TypeStory {
		t.Fatalf("expected story type round-trip, got %v", listed[0].Type)
	}
}

func TestRepository_SaveStories_ReplacesFeedSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := []hackernews.Item{
		{ID: 1, Type: hackernews.TypeStory, Title: "Old front page"},
		{ID: 2, Type: hackernews.TypeStory, Title: "Also old"},
	}
	if err := repo.SaveStories(ctx, hackernews.FeedTop, first); err != nil {
		t.Fatalf("first SaveStories returned error: %v", err)
	}

	second := []hackernews.Item{
		{ID: 3, Type: hackernews.TypeStory, Title: "Fresh"},
	}
	if err := repo.SaveStories(ctx, hackernews.FeedTop, second); err != nil {
		t.Fatalf("second SaveStories returned error: %v", err)
	}

	listed, err := repo.ListStories(ctx, hackernews.FeedTop, 10)
	if err != nil {
		t.Fatalf("ListStories returned error: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != 3 {
		t.Fatalf("expected snapshot [3], got %v", listed)
	}
}

func TestRepository_FeedsAreIndependent(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.SaveStories(ctx, hackernews.FeedTop, []hackernews.Item{{ID: 1, Title: "top"}}); err != nil {
		t.Fatalf("SaveStories(top) returned error: %v", err)
	}
	if err := repo.SaveStories(ctx, hackernews.FeedAsk, []hackernews.Item{{ID: 2, Title: "ask"}}); err != nil {
		t.Fatalf("SaveStories(ask) returned error: %v", err)
	}

	top, err := repo.ListStories(ctx, hackernews.FeedTop, 10)
	if err != nil {
		t.Fatalf("ListStories(top) returned error: %v", err)
	}
	if len(top) != 1 || top[0].ID != 1 {
		t.Fatalf("expected top snapshot [1], got %v", top)
	}

	ask, err := repo.ListStories(ctx, hackernews.FeedAsk, 10)
	if err != nil {
		t.Fatalf("ListStories(ask) returned error: %v", err)
	}
	if len(ask) != 1 || ask[0].ID != 2 {
		t.Fatalf("expected ask snapshot [2], got %v", ask)
	}
}

func TestRepository_Preferences(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	got, err := repo.Preference(ctx, "feed", "top")
	if err != nil {
		t.Fatalf("Preference returned error: %v", err)
	}
	if got != "top" {
		t.Fatalf("expected fallback for unset key, got %q", got)
	}

	if err := repo.SetPreference(ctx, "feed", "ask"); err != nil {
		t.Fatalf("SetPreference returned error: %v", err)
	}
	if err := repo.SetPreference(ctx, "feed", "show"); err != nil {
		t.Fatalf("second SetPreference returned error: %v", err)
	}

	got, err = repo.Preference(ctx, "feed", "top")
	if err != nil {
		t.Fatalf("Preference returned error: %v", err)
	}
	if got != "show" {
		t.Fatalf("expected latest value, got %q", got)
	}
}

func TestRepository_Positions(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	_, ok, err := repo.LoadPosition(ctx, 42)
	if err != nil {
		t.Fatalf("LoadPosition returned error: %v", err)
	}
	if ok {
		t.Fatal("expected no position for unseen story")
	}

	if err := repo.SavePosition(ctx, Position{StoryID: 42, FirstVisible: 17, ScrollOffset: 850}); err != nil {
		t.Fatalf("SavePosition returned error: %v", err)
	}
	if err := repo.SavePosition(ctx, Position{StoryID: 42, FirstVisible: 20, ScrollOffset: 1000}); err != nil {
		t.Fatalf("second SavePosition returned error: %v", err)
	}

	pos, ok, err := repo.LoadPosition(ctx, 42)
	if err != nil {
		t.Fatalf("LoadPosition returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected saved position")
	}
	if pos.FirstVisible != 20 || pos.ScrollOffset != 1000 {
		t.Fatalf("expected updated position, got %+v", pos)
	}
}
