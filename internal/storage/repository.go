package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pastelhn/hn-cli/internal/hackernews"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Repository) Init(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS stories (
  id INTEGER PRIMARY KEY,
  feed TEXT NOT NULL,
  rank INTEGER NOT NULL,
  type TEXT NOT NULL,
  title TEXT NOT NULL,
  url TEXT,
  author TEXT,
  score INTEGER NOT NULL,
  descendants INTEGER NOT NULL,
  submitted_at INTEGER NOT NULL,
  fetched_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS stories_feed_rank ON stories(feed, rank);

CREATE TABLE IF NOT EXISTS preferences (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS positions (
  story_id INTEGER PRIMARY KEY,
  first_visible INTEGER NOT NULL,
  scroll_offset INTEGER NOT NULL,
  updated_at TEXT NOT NULL
);
`
	_, err := r.db.ExecContext(ctx, schema)
	if err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// CheckWritable fails fast when the database file cannot take writes, so
// startup reports a bad path instead of the first snapshot save.
func (r *Repository) CheckWritable(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write check: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO preferences(key, value) VALUES ('write_check', ?)`, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("write check: %w", err)
	}
	return tx.Commit()
}

// SaveStories replaces the cached snapshot of a feed with the given page,
// preserving ranked order.
func (r *Repository) SaveStories(ctx context.Context, feed hackernews.Feed, stories []hackernews.Item) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM stories WHERE feed = ?`, string(feed)); err != nil {
		return fmt.Errorf("clear feed %s: %w", feed, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO stories (id, feed, rank, type, title, url, author, score, descendants, submitted_at, fetched_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  feed=excluded.feed,
  rank=excluded.rank,
  type=excluded.type,
  title=excluded.title,
  url=excluded.url,
  author=excluded.author,
  score=excluded.score,
  descendants=excluded.descendants,
  submitted_at=excluded.submitted_at,
  fetched_at=excluded.fetched_at
`)
	if err != nil {
		return fmt.Errorf("prepare save statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for rank, story := range stories {
		_, err := stmt.ExecContext(
			ctx,
			story.ID,
			string(feed),
			rank,
			story.Type.String(),
			story.Title,
			story.URL,
			story.By,
			story.Score,
			story.Descendants,
			story.Time,
			now,
		)
		if err != nil {
			return fmt.Errorf("save story %d: %w", story.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ListStories returns the cached snapshot of a feed in ranked order.
func (r *Repository) ListStories(ctx context.Context, feed hackernews.Feed, limit int) ([]hackernews.Item, error) {
	if limit < 1 {
		limit = 30
	}

	rows, err := r.db.QueryContext(ctx, `
SELECT id, type, title, url, author, score, descendants, submitted_at
FROM stories
WHERE feed = ?
ORDER BY rank ASC
LIMIT ?
`, string(feed), limit)
	if err != nil {
		return nil, fmt.Errorf("query stories: %w", err)
	}
	defer rows.Close()

	stories := make([]hackernews.Item, 0, limit)
	for rows.Next() {
		var story hackernews.Item
		var itemType string
		if err := rows.Scan(
			&story.ID,
			&itemType,
			&story.Title,
			&story.URL,
			&story.By,
			&story.Score,
			&story.Descendants,
			&story.Time,
		); err != nil {
			return nil, fmt.Errorf("scan story: %w", err)
		}
		story.Type = hackernews.ParseItemType(itemType)
		stories = append(stories, story)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return stories, nil
}

// SetPreference stores one UI preference, such as the last selected feed.
func (r *Repository) SetPreference(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO preferences (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value=excluded.value
`, key, value)
	if err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}
	return nil
}

// Preference reads one UI preference, returning fallback when unset.
func (r *Repository) Preference(ctx context.Context, key, fallback string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM preferences WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return fallback, nil
	}
	if err != nil {
		return "", fmt.Errorf("read preference %q: %w", key, err)
	}
	return value, nil
}

// Position is a saved reading position inside a story thread.
type Position struct {
	StoryID      int64
	FirstVisible int
	ScrollOffset int
}

// SavePosition records where the reader left off in a thread.
func (r *Repository) SavePosition(ctx context.Context, pos Position) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO positions (story_id, first_visible, scroll_offset, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(story_id) DO UPDATE SET
  first_visible=excluded.first_visible,
  scroll_offset=excluded.scroll_offset,
  updated_at=excluded.updated_at
`, pos.StoryID, pos.FirstVisible, pos.ScrollOffset, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save position for story %d: %w", pos.StoryID, err)
	}
	return nil
}

// LoadPosition returns the saved reading position for a story, or ok=false
// when none was recorded.
func (r *Repository) LoadPosition(ctx context.Context, storyID int64) (Position, bool, error) {
	pos := Position{StoryID: storyID}
	err := r.db.QueryRowContext(ctx, `
SELECT first_visible, scroll_offset FROM positions WHERE story_id = ?
`, storyID).Scan(&pos.FirstVisible, &pos.ScrollOffset)
	if err == sql.ErrNoRows {
		return Position{}, false, nil
	}
	if err != nil {
		return Position{}, false, fmt.Errorf("load position for story %d: %w", storyID, err)
	}
	return pos, true, nil
}
