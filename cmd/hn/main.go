package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pastelhn/hn-cli/internal/app"
	"github.com/pastelhn/hn-cli/internal/config"
	"github.com/pastelhn/hn-cli/internal/hackernews"
	"github.com/pastelhn/hn-cli/internal/storage"
	"github.com/pastelhn/hn-cli/internal/tui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := repo.Init(ctx); err != nil {
		log.Fatalf("storage schema error: %v", err)
	}
	if err := repo.CheckWritable(ctx); err != nil {
		log.Fatalf("storage write check failed (%v). Verify HN_DB_PATH is writable: %s", err, cfg.DBPath)
	}

	client := hackernews.NewClient(cfg.APIBaseURL, cfg.SearchBaseURL, nil)
	service := app.NewService(client, repo)

	feed := service.LastFeed(ctx)

	cached, err := service.CachedStories(ctx, feed, cfg.PageSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load cached stories (%v), starting empty\n", err)
		cached = nil
	}

	model := tui.NewModel(service, feed, cached)

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}
