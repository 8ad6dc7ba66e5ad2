package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pastelhn/hn-cli/internal/hackernews"
	"github.com/pastelhn/hn-cli/internal/tui/actions"
	"github.com/pastelhn/hn-cli/internal/tui/platform"
	tuistate "github.com/pastelhn/hn-cli/internal/tui/state"
	tuitheme "github.com/pastelhn/hn-cli/internal/tui/theme"
	tuithread "github.com/pastelhn/hn-cli/internal/tui/thread"
	"github.com/pastelhn/hn-cli/internal/tui/view"
	"github.com/pastelhn/hn-cli/internal/tui/vlist"
)

// Service is everything the shell needs from the application layer.
type Service interface {
	actions.Service
	LastFeed(ctx context.Context) hackernews.Feed
	SetLastFeed(ctx context.Context, feed hackernews.Feed) error
	SaveReadingPosition(ctx context.Context, storyID int64, firstVisible, scrollOffset int) error
}

type screen int

const (
	screenList screen = iota
	screenThread
	screenProfile
	screenSearch
)

func (s screen) String() string {
	switch s {
	case screenThread:
		return "thread"
	case screenProfile:
		return "profile"
	case screenSearch:
		return "search"
	default:
		return "list"
	}
}

type clearStatusMsg struct {
	id int
}

type feedSaveErrorMsg struct {
	err error
}

type positionSaveErrorMsg struct {
	err error
}

// resizeRecomputeMsg carries a debounced list recompute from the resize
// timer back to the update loop, the only place render state may be read.
type resizeRecomputeMsg struct {
	run func()
}

// awaitResizeCmd blocks until the engine hands over a debounced resize
// recompute. Re-armed from Update after each delivery.
func awaitResizeCmd(queue <-chan func()) tea.Cmd {
	return func() tea.Msg {
		return resizeRecomputeMsg{run: <-queue}
	}
}

const (
	defaultPageSize    = 30
	defaultListHeight  = 20
	defaultWidth       = 80
	submissionPageSize = 30
	searchPageSize     = 20
	chromeLines        = 7
	minBodyHeight      = 3
)

// listRenderState is shared with the windowed-list render callback. The
// callback pulls the latest cursor, width and read markers from here so a
// forced re-render always reflects the current frame.
type listRenderState struct {
	width  int
	cursor int
	read   map[int64]bool
	nowFn  func() time.Time
	theme  tuitheme.Theme
}

// nearEndLatch carries the infinite-scroll trigger out of the engine
// callback and into the next Update pass. The engine fires it synchronously
// while the model is mid-update, so the callback only records the fact.
type nearEndLatch struct {
	fired bool
}

func (l *nearEndLatch) consume() bool {
	fired := l.fired
	l.fired = false
	return fired
}

type Model struct {
	service Service
	theme   tuitheme.Theme

	width  int
	height int

	screen   screen
	showHelp bool

	loading     bool
	loadingMore bool
	status      string
	statusID    int
	err         error

	nowFn     func() time.Time
	openURLFn func(string) error
	copyURLFn func(string) error

	spin spinner.Model

	// Story list.
	feed        hackernews.Feed
	stories     []hackernews.Item
	hasMore     bool
	total       int
	cursor      int
	read        map[int64]bool
	pageSize    int
	listRoot    *vlist.Region
	list        *vlist.View[hackernews.Item]
	listState   *listRenderState
	nearEnd     *nearEndLatch
	resizeQueue chan func()

	initialLoadDuration time.Duration
	initialLoadDone     bool
	initialLoadFailed   bool

	// Thread.
	thread          hackernews.StoryThread
	threadRows      []tuithread.Row
	threadCursor    int
	threadTop       int
	collapsed       map[int64]bool
	hideDeleted     bool
	pendingExpandID int64

	// Profile.
	profileUser      hackernews.User
	submissions      hackernews.SubmissionsPage
	submissionFilter hackernews.SubmissionFilter
	profileCursor    int
	profileReturn    screen

	// Search.
	searchInput   textinput.Model
	searchTyping  bool
	searchPage    hackernews.SearchPage
	searchCursor  int
	searchSort    hackernews.SearchSort
	searchFilter  hackernews.SearchFilter
	searchPending string
}

// NewModel builds the shell around a resolved starting feed and whatever
// snapshot the previous session left behind. The first network fetch is
// issued from Init.
func NewModel(service Service, feed hackernews.Feed, seed []hackernews.Item) Model {
	th := tuitheme.Default()
	read := make(map[int64]bool)
	st := &listRenderState{
		width: defaultWidth,
		read:  read,
		nowFn: time.Now,
		theme: th,
	}
	latch := &nearEndLatch{}
	resizeQueue := make(chan func(), 1)

	root := vlist.NewRoot(defaultListHeight)
	container := vlist.NewRegion(root)
	lv := vlist.New(vlist.Options[hackernews.Item]{
		Container:  container,
		ItemHeight: 1,
		Buffer:     vlist.DefaultBuffer,
		// One item row per scroll unit keeps the near-end threshold at
		// DefaultNearEndThreshold rows, far past any terminal. Trigger a
		// viewport's worth of rows from the end instead.
		NearEndThreshold: defaultListHeight,
		RenderItem: func(item hackernews.Item, index int) string {
			return view.RenderStoryLine(view.StoryLineParams{
				Story:    item,
				Rank:     index,
				Now:      st.nowFn(),
				ShowRank: true,
				Active:   index == st.cursor,
				Read:     st.read[item.ID],
				Width:    st.width,
			}, st.theme)
		},
		OnNearEnd: func() {
			latch.fired = true
		},
		// The debounce timer must not run RenderItem: it reads st and the
		// read map, which Update mutates. Queue the recompute for the
		// update loop; a pending one already covers the latest state.
		Deliver: func(recompute func()) {
			select {
			case resizeQueue <- recompute:
			default:
			}
		},
	})

	if feed == "" {
		feed = hackernews.FeedTop
	}

	input := textinput.New()
	input.Placeholder = "search stories and comments"
	input.CharLimit = 200

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		service:          service,
		theme:            th,
		width:            defaultWidth,
		nowFn:            time.Now,
		openURLFn:        platform.OpenURLInBrowser,
		copyURLFn:        platform.CopyURLToClipboard,
		spin:             sp,
		feed:             feed,
		stories:          append([]hackernews.Item(nil), seed...),
		read:             read,
		pageSize:         defaultPageSize,
		listRoot:         root,
		list:             lv,
		listState:        st,
		nearEnd:          latch,
		resizeQueue:      resizeQueue,
		collapsed:        make(map[int64]bool),
		submissionFilter: hackernews.SubmissionsAll,
		searchInput:      input,
		searchSort:       hackernews.SortRelevance,
		searchFilter:     hackernews.SearchAll,
	}
	m.list.Init(m.stories)
	return m
}

func (m Model) Init() tea.Cmd {
	if m.service == nil {
		return nil
	}
	return tea.Batch(
		actions.FrontPageCmd(m.service, m.feed, m.pageSize, "init"),
		m.spin.Tick,
		awaitResizeCmd(m.resizeQueue),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.listState.width = m.contentWidth()
		m.listRoot.SetViewportHeight(m.bodyHeight())
		m.list.ForceRender()
		m.clampThreadTop()
		return m, nil
	case resizeRecomputeMsg:
		if msg.run != nil {
			msg.run()
		}
		return m, awaitResizeCmd(m.resizeQueue)
	case spinner.TickMsg:
		if !m.loading && !m.loadingMore {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	case actions.StoriesLoadedMsg:
		return m.handleStoriesLoaded(msg)
	case actions.StoriesErrorMsg:
		m.loading = false
		m.status = ""
		m.err = msg.Err
		if msg.Source == "init" {
			m.initialLoadDuration = msg.Duration
			m.initialLoadDone = true
			m.initialLoadFailed = true
		}
		return m, nil
	case actions.CachedStoriesMsg:
		// Snapshot only fills the gap while the first fetch is in flight.
		if msg.Feed != m.feed || len(m.stories) > 0 {
			return m, nil
		}
		m.stories = msg.Stories
		m.total = len(msg.Stories)
		m.list.UpdateItems(m.stories)
		return m, nil
	case actions.LoadMoreSuccessMsg:
		return m.handleLoadMore(msg)
	case actions.LoadMoreErrorMsg:
		m.loadingMore = false
		m.err = msg.Err
		// Let retrying scrolls request the page again.
		m.list.ResetNearEndTrigger()
		return m, nil
	case actions.ThreadLoadedMsg:
		return m.handleThreadLoaded(msg)
	case actions.ThreadErrorMsg:
		m.loading = false
		m.status = ""
		m.err = msg.Err
		return m, nil
	case actions.CommentExpandedMsg:
		return m.handleCommentExpanded(msg)
	case actions.CommentExpandErrorMsg:
		m.pendingExpandID = 0
		m.err = msg.Err
		return m, nil
	case actions.ProfileLoadedMsg:
		m.loading = false
		m.err = nil
		m.profileUser = msg.User
		m.submissions = msg.Submissions
		m.submissionFilter = hackernews.SubmissionsAll
		m.profileCursor = 0
		m.screen = screenProfile
		return m, nil
	case actions.ProfileErrorMsg:
		m.loading = false
		m.status = ""
		m.err = msg.Err
		return m, nil
	case actions.SubmissionsLoadedMsg:
		m.loading = false
		m.err = nil
		m.submissionFilter = msg.Filter
		if msg.Offset > 0 {
			m.submissions.Items = append(m.submissions.Items, msg.Page.Items...)
			m.submissions.HasMore = msg.Page.HasMore
			m.submissions.Total = msg.Page.Total
		} else {
			m.submissions = msg.Page
			m.profileCursor = 0
		}
		return m, nil
	case actions.SubmissionsErrorMsg:
		m.loading = false
		m.err = msg.Err
		return m, nil
	case actions.SearchLoadedMsg:
		m.loading = false
		m.err = nil
		m.searchPending = ""
		if msg.Page.Page > 0 {
			m.searchPage.Hits = append(m.searchPage.Hits, msg.Page.Hits...)
			m.searchPage.Page = msg.Page.Page
			m.searchPage.TotalPages = msg.Page.TotalPages
			m.searchPage.TotalHits = msg.Page.TotalHits
		} else {
			m.searchPage = msg.Page
			m.searchCursor = 0
		}
		return m, nil
	case actions.SearchErrorMsg:
		m.loading = false
		m.searchPending = ""
		m.err = msg.Err
		return m, nil
	case actions.OpenURLSuccessMsg:
		m.err = nil
		m.status = msg.Status
		m.statusID++
		return m, clearStatusCmd(m.statusID, 3*time.Second)
	case actions.OpenURLErrorMsg:
		m.err = nil
		m.status = msg.Err.Error()
		m.statusID++
		return m, clearStatusCmd(m.statusID, 4*time.Second)
	case clearStatusMsg:
		if msg.id == m.statusID {
			m.status = ""
		}
		return m, nil
	case feedSaveErrorMsg:
		m.err = msg.err
		m.status = "Could not persist feed preference"
		return m, nil
	case positionSaveErrorMsg:
		m.err = msg.err
		m.status = "Could not save reading position"
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if key == "?" && !(m.screen == screenSearch && m.searchTyping) {
		m.showHelp = !m.showHelp
		return m, nil
	}
	if m.showHelp {
		switch key {
		case "esc":
			m.showHelp = false
		case "ctrl+c", "q":
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.screen {
	case screenThread:
		return m.handleThreadKey(key)
	case screenProfile:
		return m.handleProfileKey(key)
	case screenSearch:
		return m.handleSearchKey(msg)
	default:
		return m.handleListKey(key)
	}
}

func (m Model) handleListKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		m.list.Destroy()
		return m, tea.Quit
	case "up", "k":
		return m.moveListCursor(-1)
	case "down", "j":
		return m.moveListCursor(1)
	case "g", "home":
		return m.setListCursor(0)
	case "G", "end":
		return m.setListCursor(len(m.stories) - 1)
	case "pgup", "ctrl+b":
		return m.moveListCursor(-tuistate.PageStep(m.height, m.status != ""))
	case "pgdown", "ctrl+f":
		return m.moveListCursor(tuistate.PageStep(m.height, m.status != ""))
	case "tab":
		return m.switchFeed(tuistate.NextFeed(m.feed, 1))
	case "shift+tab":
		return m.switchFeed(tuistate.NextFeed(m.feed, -1))
	case "1", "2", "3", "4", "5", "6":
		idx := int(key[0] - '1')
		if idx < len(hackernews.Feeds) {
			return m.switchFeed(hackernews.Feeds[idx])
		}
		return m, nil
	case "r":
		if m.service == nil {
			return m, nil
		}
		m.loading = true
		m.err = nil
		m.status = ""
		return m, tea.Batch(actions.RefreshCmd(m.service, m.feed, m.pageSize), m.spin.Tick)
	case "enter", "c":
		return m.openCurrentThread()
	case "o":
		story, ok := m.currentStory()
		if !ok {
			return m, nil
		}
		m.read[story.ID] = true
		m.list.ForceRender()
		return m, actions.OpenURLCmd(m.storyURL(story), m.openURLFn, m.copyURLFn)
	case "y":
		story, ok := m.currentStory()
		if !ok {
			return m, nil
		}
		return m, actions.CopyURLCmd(m.storyURL(story), m.copyURLFn)
	case "u":
		story, ok := m.currentStory()
		if !ok || story.By == "" {
			return m, nil
		}
		return m.openProfile(story.By, screenList)
	case "/":
		m.screen = screenSearch
		m.searchTyping = true
		m.searchInput.Focus()
		return m, textinput.Blink
	case "n":
		// Manual page fetch for terminals where scrolling never nears the
		// end, mirroring the automatic trigger.
		return m.requestMore()
	}
	return m, nil
}

func (m Model) moveListCursor(delta int) (tea.Model, tea.Cmd) {
	return m.setListCursor(m.cursor + delta)
}

func (m Model) setListCursor(cursor int) (tea.Model, tea.Cmd) {
	if len(m.stories) == 0 {
		return m, nil
	}
	m.cursor = tuistate.ClampCursor(cursor, len(m.stories))
	m.listState.cursor = m.cursor
	m.ensureListCursorVisible()
	m.list.ForceRender()
	cmd := m.maybeLoadMore()
	return m, cmd
}

func (m *Model) ensureListCursorVisible() {
	offset := m.listRoot.ScrollOffset()
	vh := m.listRoot.ViewportHeight()
	if vh <= 0 {
		return
	}
	if m.cursor < offset {
		m.listRoot.SetScrollOffset(m.cursor)
		return
	}
	if m.cursor >= offset+vh {
		m.listRoot.SetScrollOffset(m.cursor - vh + 1)
	}
}

// maybeLoadMore converts a near-end trigger recorded during the preceding
// scroll into a page fetch.
func (m *Model) maybeLoadMore() tea.Cmd {
	if !m.nearEnd.consume() {
		return nil
	}
	return m.loadMoreCmd()
}

func (m Model) requestMore() (tea.Model, tea.Cmd) {
	m.nearEnd.consume()
	cmd := m.loadMoreCmd()
	return m, cmd
}

func (m *Model) loadMoreCmd() tea.Cmd {
	if m.service == nil || m.loadingMore || !m.hasMore || len(m.stories) == 0 {
		return nil
	}
	m.loadingMore = true
	return tea.Batch(
		actions.LoadMoreCmd(m.service, m.feed, len(m.stories), m.pageSize),
		m.spin.Tick,
	)
}

func (m Model) switchFeed(feed hackernews.Feed) (tea.Model, tea.Cmd) {
	if feed == m.feed || m.service == nil {
		return m, nil
	}
	m.feed = feed
	m.loading = true
	m.err = nil
	m.status = ""
	m.cursor = 0
	m.listState.cursor = 0
	m.stories = nil
	m.hasMore = false
	m.total = 0
	m.list.UpdateItems(nil)
	m.listRoot.SetScrollOffset(0)
	m.nearEnd.consume()
	return m, tea.Batch(
		saveFeedCmd(m.service, feed),
		actions.FrontPageCmd(m.service, feed, m.pageSize, "feed-switch"),
		actions.LoadCachedCmd(m.service, feed, m.pageSize),
		m.spin.Tick,
	)
}

func (m Model) handleStoriesLoaded(msg actions.StoriesLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.Feed != m.feed {
		return m, nil
	}
	anchorID := m.anchorStoryID()
	m.loading = false
	m.err = nil
	m.stories = msg.Page.Stories
	m.hasMore = msg.Page.HasMore
	m.total = msg.Page.Total
	m.list.UpdateItems(m.stories)
	if idx := tuistate.StoryIndexByID(m.stories, anchorID); idx >= 0 {
		m.cursor = idx
	} else {
		m.cursor = tuistate.ClampCursor(m.cursor, len(m.stories))
	}
	m.listState.cursor = m.cursor
	m.ensureListCursorVisible()
	m.list.ForceRender()
	if msg.Source == "init" {
		m.initialLoadDuration = msg.Duration
		m.initialLoadDone = true
		m.initialLoadFailed = false
	}
	more := m.maybeLoadMore()
	if msg.Source == "refresh" {
		m.status = fmt.Sprintf("Refreshed %d stories", len(msg.Page.Stories))
		m.statusID++
		return m, tea.Batch(more, clearStatusCmd(m.statusID, 3*time.Second))
	}
	return m, more
}

func (m Model) handleLoadMore(msg actions.LoadMoreSuccessMsg) (tea.Model, tea.Cmd) {
	m.loadingMore = false
	if msg.Feed != m.feed {
		return m, nil
	}
	m.err = nil
	if len(msg.Page.Stories) == 0 {
		m.hasMore = false
		m.status = "No more stories"
		m.statusID++
		return m, clearStatusCmd(m.statusID, 3*time.Second)
	}
	m.stories = append(m.stories, msg.Page.Stories...)
	m.hasMore = msg.Page.HasMore
	m.total = msg.Page.Total
	// AppendItems re-arms the near-end trigger for the next page.
	m.list.AppendItems(msg.Page.Stories)
	m.status = fmt.Sprintf("Loaded %d more", len(msg.Page.Stories))
	m.statusID++
	return m, clearStatusCmd(m.statusID, 3*time.Second)
}

func (m Model) currentStory() (hackernews.Item, bool) {
	if len(m.stories) == 0 || m.cursor < 0 || m.cursor >= len(m.stories) {
		return hackernews.Item{}, false
	}
	return m.stories[m.cursor], true
}

func (m Model) anchorStoryID() int64 {
	if story, ok := m.currentStory(); ok {
		return story.ID
	}
	return 0
}

// storyURL prefers the external link and falls back to the item's own HN
// page for Ask/Show posts without one.
func (m Model) storyURL(story hackernews.Item) string {
	if u, err := platform.ValidateStoryURL(story.URL); err == nil {
		return u
	}
	return platform.ItemURL(story.ID)
}

func (m Model) openCurrentThread() (tea.Model, tea.Cmd) {
	story, ok := m.currentStory()
	if !ok || m.service == nil {
		return m, nil
	}
	m.read[story.ID] = true
	m.list.ForceRender()
	m.loading = true
	m.err = nil
	return m, tea.Batch(actions.ThreadCmd(m.service, story.ID), m.spin.Tick)
}

func (m Model) openProfile(userID string, from screen) (tea.Model, tea.Cmd) {
	if m.service == nil {
		return m, nil
	}
	m.loading = true
	m.err = nil
	m.profileReturn = from
	return m, tea.Batch(actions.ProfileCmd(m.service, userID, submissionPageSize), m.spin.Tick)
}

func (m Model) handleThreadLoaded(msg actions.ThreadLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	m.err = nil
	m.thread = msg.Thread
	m.collapsed = make(map[int64]bool)
	m.hideDeleted = false
	m.pendingExpandID = 0
	m.rebuildThreadRows()
	m.screen = screenThread
	m.threadCursor = 0
	m.threadTop = 0
	if msg.Restored {
		m.threadCursor = tuistate.ClampCursor(msg.Position.FirstVisible, len(m.threadRows))
		m.threadTop = msg.Position.ScrollOffset
		m.clampThreadTop()
		m.status = "Restored reading position"
		m.statusID++
		return m, clearStatusCmd(m.statusID, 3*time.Second)
	}
	return m, nil
}

func (m *Model) rebuildThreadRows() {
	m.threadRows = tuithread.BuildRows(m.thread, tuithread.BuildOptions{
		Collapsed:   m.collapsed,
		HideDeleted: m.hideDeleted,
	})
}

func (m Model) handleThreadKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		m.list.Destroy()
		return m, tea.Quit
	case "esc", "backspace":
		return m.leaveThread()
	case "up", "k":
		m.threadCursor = tuistate.ClampCursor(m.threadCursor-1, len(m.threadRows))
		m.ensureThreadCursorVisible()
		return m, nil
	case "down", "j":
		m.threadCursor = tuistate.ClampCursor(m.threadCursor+1, len(m.threadRows))
		m.ensureThreadCursorVisible()
		return m, nil
	case "g", "home":
		m.threadCursor = 0
		m.threadTop = 0
		return m, nil
	case "G", "end":
		m.threadCursor = tuistate.ClampCursor(len(m.threadRows)-1, len(m.threadRows))
		m.ensureThreadCursorVisible()
		return m, nil
	case "pgup", "ctrl+b":
		m.threadTop -= m.bodyHeight()
		m.clampThreadTop()
		return m, nil
	case "pgdown", "ctrl+f":
		m.threadTop += m.bodyHeight()
		m.clampThreadTop()
		return m, nil
	case "tab":
		return m.moveToCommentRow(1)
	case "shift+tab":
		return m.moveToCommentRow(-1)
	case "c", "enter":
		return m.toggleCurrentComment()
	case "e", "right", "l":
		return m.expandCurrentComment()
	case "d":
		m.hideDeleted = !m.hideDeleted
		anchor := m.threadAnchorID()
		m.rebuildThreadRows()
		m.restoreThreadCursor(anchor)
		return m, nil
	case "o":
		if len(m.threadRows) == 0 {
			return m, nil
		}
		row := m.threadRows[m.threadCursor]
		if row.Kind == tuithread.RowStory {
			return m, actions.OpenURLCmd(m.storyURL(row.Item), m.openURLFn, m.copyURLFn)
		}
		return m, actions.OpenURLCmd(platform.ItemURL(row.Item.ID), m.openURLFn, m.copyURLFn)
	case "y":
		if len(m.threadRows) == 0 {
			return m, nil
		}
		row := m.threadRows[m.threadCursor]
		return m, actions.CopyURLCmd(platform.ItemURL(row.Item.ID), m.copyURLFn)
	case "u":
		if len(m.threadRows) == 0 {
			return m, nil
		}
		author := m.threadRows[m.threadCursor].Item.By
		if author == "" {
			return m, nil
		}
		return m.openProfile(author, screenThread)
	}
	return m, nil
}

func (m Model) leaveThread() (tea.Model, tea.Cmd) {
	storyID := m.thread.Story.ID
	top := m.threadTop
	cursor := m.threadCursor
	m.screen = screenList
	m.status = ""
	if m.service == nil || storyID == 0 {
		return m, nil
	}
	return m, savePositionCmd(m.service, storyID, cursor, top)
}

func (m Model) moveToCommentRow(direction int) (tea.Model, tea.Cmd) {
	if len(m.threadRows) == 0 {
		return m, nil
	}
	i := m.threadCursor + direction
	for i >= 0 && i < len(m.threadRows) {
		if m.threadRows[i].Kind == tuithread.RowComment {
			m.threadCursor = i
			m.ensureThreadCursorVisible()
			return m, nil
		}
		i += direction
	}
	return m, nil
}

func (m Model) toggleCurrentComment() (tea.Model, tea.Cmd) {
	if len(m.threadRows) == 0 {
		return m, nil
	}
	row := m.threadRows[m.threadCursor]
	if row.Kind != tuithread.RowComment {
		return m, nil
	}
	m.collapsed[row.Item.ID] = !m.collapsed[row.Item.ID]
	m.rebuildThreadRows()
	m.restoreThreadCursor(row.Item.ID)
	return m, nil
}

// expandCurrentComment lazily fetches replies past the initial traversal
// depth.
func (m Model) expandCurrentComment() (tea.Model, tea.Cmd) {
	if len(m.threadRows) == 0 || m.service == nil {
		return m, nil
	}
	row := m.threadRows[m.threadCursor]
	if row.Kind != tuithread.RowComment || row.Collapsed {
		return m, nil
	}
	if len(row.Item.Kids) == 0 || m.threadHasChildren(row.Item.ID) {
		return m, nil
	}
	if m.pendingExpandID == row.Item.ID {
		return m, nil
	}
	m.pendingExpandID = row.Item.ID
	return m, tea.Batch(actions.ExpandCommentCmd(m.service, row.Item.ID), m.spin.Tick)
}

func (m Model) threadHasChildren(id int64) bool {
	node := findCommentNode(m.thread.Comments, id)
	return node != nil && len(node.Children) > 0
}

func findCommentNode(nodes []hackernews.CommentNode, id int64) *hackernews.CommentNode {
	for i := range nodes {
		if nodes[i].Item.ID == id {
			return &nodes[i]
		}
		if found := findCommentNode(nodes[i].Children, id); found != nil {
			return found
		}
	}
	return nil
}

func (m Model) handleCommentExpanded(msg actions.CommentExpandedMsg) (tea.Model, tea.Cmd) {
	m.pendingExpandID = 0
	if m.screen != screenThread {
		return m, nil
	}
	if !tuithread.GraftChildren(m.thread.Comments, msg.CommentID, msg.Children) {
		return m, nil
	}
	m.rebuildThreadRows()
	m.restoreThreadCursor(msg.CommentID)
	m.status = fmt.Sprintf("Loaded %d replies", tuithread.CountComments(msg.Children))
	m.statusID++
	return m, clearStatusCmd(m.statusID, 3*time.Second)
}

func (m *Model) restoreThreadCursor(anchorID int64) {
	if idx := tuithread.RowIndexByID(m.threadRows, anchorID); idx >= 0 {
		m.threadCursor = idx
	} else {
		m.threadCursor = tuistate.ClampCursor(m.threadCursor, len(m.threadRows))
	}
	m.ensureThreadCursorVisible()
}

func (m Model) threadAnchorID() int64 {
	if len(m.threadRows) == 0 {
		return 0
	}
	return m.threadRows[tuistate.ClampCursor(m.threadCursor, len(m.threadRows))].Item.ID
}

// threadLines renders every row and records where each row starts, so
// cursor-following scrolls can land on the right line.
func (m Model) threadLines() ([]string, []int) {
	width := m.contentWidth()
	now := m.nowFn()
	lines := make([]string, 0, len(m.threadRows)*3)
	starts := make([]int, len(m.threadRows))
	for i, row := range m.threadRows {
		starts[i] = len(lines)
		if row.Kind == tuithread.RowStory {
			lines = append(lines, view.StoryHeaderLines(row.Item, width, now, m.theme)...)
			continue
		}
		lines = append(lines, view.CommentRowLines(row, width, now, m.thread.Story.By, i == m.threadCursor, m.theme)...)
	}
	return lines, starts
}

func (m *Model) ensureThreadCursorVisible() {
	lines, starts := m.threadLines()
	if len(starts) == 0 {
		m.threadTop = 0
		return
	}
	cursor := tuistate.ClampCursor(m.threadCursor, len(starts))
	start := starts[cursor]
	end := len(lines)
	if cursor+1 < len(starts) {
		end = starts[cursor+1]
	}
	body := m.bodyHeight()
	if start < m.threadTop {
		m.threadTop = start
	} else if end > m.threadTop+body {
		m.threadTop = end - body
	}
	if max := view.ThreadMaxTop(len(lines), body); m.threadTop > max {
		m.threadTop = max
	}
	if m.threadTop < 0 {
		m.threadTop = 0
	}
}

func (m *Model) clampThreadTop() {
	if m.screen != screenThread {
		return
	}
	lines, _ := m.threadLines()
	if max := view.ThreadMaxTop(len(lines), m.bodyHeight()); m.threadTop > max {
		m.threadTop = max
	}
	if m.threadTop < 0 {
		m.threadTop = 0
	}
}

func (m Model) handleProfileKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "ctrl+c", "q":
		m.list.Destroy()
		return m, tea.Quit
	case "esc", "backspace":
		m.screen = m.profileReturn
		m.status = ""
		return m, nil
	case "up", "k":
		m.profileCursor = tuistate.ClampCursor(m.profileCursor-1, len(m.submissions.Items))
		return m, nil
	case "down", "j":
		m.profileCursor = tuistate.ClampCursor(m.profileCursor+1, len(m.submissions.Items))
		return m, nil
	case "f":
		next := nextSubmissionFilter(m.submissionFilter)
		m.loading = true
		return m, tea.Batch(
			actions.SubmissionsCmd(m.service, m.profileUser.ID, next, 0, submissionPageSize),
			m.spin.Tick,
		)
	case "n":
		if !m.submissions.HasMore || m.service == nil {
			return m, nil
		}
		m.loading = true
		return m, tea.Batch(
			actions.SubmissionsCmd(m.service, m.profileUser.ID, m.submissionFilter, len(m.submissions.Items), submissionPageSize),
			m.spin.Tick,
		)
	case "enter":
		item, ok := m.currentSubmission()
		if !ok {
			return m, nil
		}
		if item.Type == hackernews.TypeComment {
			return m, actions.OpenURLCmd(platform.ItemURL(item.ID), m.openURLFn, m.copyURLFn)
		}
		m.loading = true
		m.err = nil
		return m, tea.Batch(actions.ThreadCmd(m.service, item.ID), m.spin.Tick)
	case "o":
		item, ok := m.currentSubmission()
		if !ok {
			return m, nil
		}
		return m, actions.OpenURLCmd(m.storyURL(item), m.openURLFn, m.copyURLFn)
	}
	return m, nil
}

func (m Model) currentSubmission() (hackernews.Item, bool) {
	if len(m.submissions.Items) == 0 || m.profileCursor >= len(m.submissions.Items) {
		return hackernews.Item{}, false
	}
	return m.submissions.Items[m.profileCursor], true
}

func nextSubmissionFilter(f hackernews.SubmissionFilter) hackernews.SubmissionFilter {
	switch f {
	case hackernews.SubmissionsAll:
		return hackernews.SubmissionsStories
	case hackernews.SubmissionsStories:
		return hackernews.SubmissionsComments
	default:
		return hackernews.SubmissionsAll
	}
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if m.searchTyping {
		switch key {
		case "ctrl+c":
			m.list.Destroy()
			return m, tea.Quit
		case "esc":
			m.searchTyping = false
			m.searchInput.Blur()
			if len(m.searchPage.Hits) == 0 {
				m.screen = screenList
			}
			return m, nil
		case "enter":
			query := strings.TrimSpace(m.searchInput.Value())
			if query == "" {
				return m, nil
			}
			m.searchTyping = false
			m.searchInput.Blur()
			return m.runSearch(query, 0)
		}
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	switch key {
	case "ctrl+c", "q":
		m.list.Destroy()
		return m, tea.Quit
	case "esc", "backspace":
		m.screen = screenList
		m.status = ""
		return m, nil
	case "/", "i":
		m.searchTyping = true
		m.searchInput.Focus()
		return m, textinput.Blink
	case "up", "k":
		m.searchCursor = tuistate.ClampCursor(m.searchCursor-1, len(m.searchPage.Hits))
		return m, nil
	case "down", "j":
		m.searchCursor = tuistate.ClampCursor(m.searchCursor+1, len(m.searchPage.Hits))
		return m, nil
	case "s":
		if m.searchSort == hackernews.SortRelevance {
			m.searchSort = hackernews.SortDate
		} else {
			m.searchSort = hackernews.SortRelevance
		}
		return m.rerunSearch()
	case "f":
		switch m.searchFilter {
		case hackernews.SearchAll:
			m.searchFilter = hackernews.SearchStories
		case hackernews.SearchStories:
			m.searchFilter = hackernews.SearchComments
		default:
			m.searchFilter = hackernews.SearchAll
		}
		return m.rerunSearch()
	case "n":
		if m.searchPage.Page+1 >= m.searchPage.TotalPages {
			return m, nil
		}
		return m.runSearch(m.searchPage.Query, m.searchPage.Page+1)
	case "enter":
		hit, ok := m.currentSearchHit()
		if !ok || m.service == nil {
			return m, nil
		}
		storyID := hit.ID
		if hit.Type == "comment" && hit.StoryID != 0 {
			storyID = hit.StoryID
		}
		m.loading = true
		m.err = nil
		return m, tea.Batch(actions.ThreadCmd(m.service, storyID), m.spin.Tick)
	case "o":
		hit, ok := m.currentSearchHit()
		if !ok {
			return m, nil
		}
		url := hit.URL
		if _, err := platform.ValidateStoryURL(url); err != nil {
			url = platform.ItemURL(hit.ID)
		}
		return m, actions.OpenURLCmd(url, m.openURLFn, m.copyURLFn)
	}
	return m, nil
}

func (m Model) runSearch(query string, page int) (tea.Model, tea.Cmd) {
	if m.service == nil {
		return m, nil
	}
	m.loading = true
	m.err = nil
	m.searchPending = query
	return m, tea.Batch(
		actions.SearchCmd(m.service, query, m.searchFilter, m.searchSort, page, searchPageSize),
		m.spin.Tick,
	)
}

func (m Model) rerunSearch() (tea.Model, tea.Cmd) {
	if m.searchPage.Query == "" {
		return m, nil
	}
	return m.runSearch(m.searchPage.Query, 0)
}

func (m Model) currentSearchHit() (hackernews.SearchResult, bool) {
	if len(m.searchPage.Hits) == 0 || m.searchCursor >= len(m.searchPage.Hits) {
		return hackernews.SearchResult{}, false
	}
	return m.searchPage.Hits[m.searchCursor], true
}

func clearStatusCmd(id int, after time.Duration) tea.Cmd {
	return tea.Tick(after, func(time.Time) tea.Msg {
		return clearStatusMsg{id: id}
	})
}

func saveFeedCmd(service Service, feed hackernews.Feed) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := service.SetLastFeed(ctx, feed); err != nil {
			return feedSaveErrorMsg{err: err}
		}
		return nil
	}
}

func savePositionCmd(service Service, storyID int64, firstVisible, scrollOffset int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := service.SaveReadingPosition(ctx, storyID, firstVisible, scrollOffset); err != nil {
			return positionSaveErrorMsg{err: err}
		}
		return nil
	}
}

func (m Model) contentWidth() int {
	if m.width <= 0 {
		return defaultWidth
	}
	return m.width
}

func (m Model) bodyHeight() int {
	if m.height <= 0 {
		return defaultListHeight
	}
	body := m.height - chromeLines
	if body < minBodyHeight {
		body = minBodyHeight
	}
	return body
}
