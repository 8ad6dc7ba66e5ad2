// Package vlist implements windowed list rendering: only the slice of a
// large ordered collection that intersects the viewport (plus a buffer) is
// materialized, while a fixed-height spacer keeps the scrollable extent
// sized as if every item were rendered.
package vlist

import (
	"strings"
	"sync"
	"time"
)

const (
	// DefaultBuffer is how many extra items are rendered on each side of
	// the strictly visible range.
	DefaultBuffer = 5
	// DefaultNearEndThreshold is the remaining-distance, in scroll units,
	// below which the near-end callback fires.
	DefaultNearEndThreshold = 200
	// DefaultResizeDebounce is the quiescence window for coalescing
	// resize bursts.
	DefaultResizeDebounce = 100 * time.Millisecond
)

// RenderFunc produces the markup for one item at its absolute index.
type RenderFunc[T any] func(item T, index int) string

// Options configures a View. Container and RenderItem are required;
// everything else has a default. ItemHeight must be positive for anything
// to render, but a non-positive value degrades to rendering nothing rather
// than failing.
type Options[T any] struct {
	Container  *Region
	ItemHeight int
	RenderItem RenderFunc[T]

	// Source overrides scroll binding. When nil, the nearest scrollable
	// ancestor of Container is used, falling back to the window (root).
	Source ScrollSource

	// Buffer is the overscan item count per side; <= 0 selects
	// DefaultBuffer.
	Buffer int

	// Header is optional static markup mounted above the spacer. It takes
	// no part in index or height math, and Viewport does not composite
	// it; frame it above Viewport's rows when embedding.
	Header string

	// OnNearEnd fires at most once per batch when the scroll position
	// comes within NearEndThreshold of the end of the list.
	OnNearEnd        func()
	NearEndThreshold int

	ResizeDebounce time.Duration

	// Deliver routes the debounced resize recompute back to the caller
	// instead of running it on the debounce timer goroutine. Hosts with a
	// single event loop invoke the received closure from that loop, so
	// RenderItem only ever runs where the host's state may be touched.
	// When nil the recompute runs directly on the timer goroutine, which
	// requires a goroutine-safe RenderItem.
	Deliver func(recompute func())
}

// State is a snapshot of the engine for position restore and diagnostics.
type State[T any] struct {
	Items          []T
	ScrollOffset   int
	ViewportHeight int
	Start          int
	End            int
}

type span struct {
	start, end int
}

var noSpan = span{-1, -1}

// View renders a window of its item collection into a slice region mounted
// inside a spacer region. All methods are no-ops before Init and after
// Destroy.
type View[T any] struct {
	mu sync.Mutex

	container        *Region
	itemHeight       int
	renderItem       RenderFunc[T]
	explicitSource   ScrollSource
	buffer           int
	headerMarkup     string
	onNearEnd        func()
	nearEndThreshold int
	deliver          func(func())

	source ScrollSource
	items  []T

	header *Region
	spacer *Region
	slice  *Region

	rendered     span
	rendering    bool
	nearEndFired bool
	initialized  bool
	destroyed    bool

	removeScroll func()
	removeResize func()
	resizeDeb    *debouncer
}

// New builds an engine bound to a container and a render callback. The
// engine stays inert until Init.
func New[T any](opts Options[T]) *View[T] {
	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	threshold := opts.NearEndThreshold
	if threshold <= 0 {
		threshold = DefaultNearEndThreshold
	}
	debounce := opts.ResizeDebounce
	if debounce <= 0 {
		debounce = DefaultResizeDebounce
	}

	v := &View[T]{
		container:        opts.Container,
		itemHeight:       opts.ItemHeight,
		renderItem:       opts.RenderItem,
		explicitSource:   opts.Source,
		buffer:           buffer,
		headerMarkup:     opts.Header,
		onNearEnd:        opts.OnNearEnd,
		nearEndThreshold: threshold,
		deliver:          opts.Deliver,
		rendered:         noSpan,
	}
	v.resizeDeb = newDebouncer(debounce, v.dispatchResize)
	return v
}

// Init replaces the item collection, mounts the header/spacer/slice
// structure, binds the scroll source, and renders the initial window.
func (v *View[T]) Init(items []T) {
	v.mu.Lock()
	if v.destroyed || v.container == nil || v.renderItem == nil {
		v.mu.Unlock()
		return
	}

	v.detachLocked()

	v.items = append(v.items[:0:0], items...)
	v.nearEndFired = false
	v.rendered = noSpan

	if v.spacer == nil {
		if v.headerMarkup != "" {
			v.header = NewRegion(v.container)
			v.header.SetContent(v.headerMarkup)
		}
		v.spacer = NewRegion(v.container)
		v.slice = NewRegion(v.spacer)
	}
	v.spacer.SetHeight(v.totalHeightLocked())

	v.source = resolveSource(v.container, v.explicitSource)
	v.removeScroll = v.source.AddScrollListener(v.handleScroll)
	v.removeResize = v.source.AddResizeListener(v.resizeDeb.Trigger)
	v.initialized = true
	v.mu.Unlock()

	v.render()
}

// UpdateItems replaces the collection wholesale, clears the near-end latch,
// resizes the spacer and re-renders.
func (v *View[T]) UpdateItems(items []T) {
	v.mu.Lock()
	if !v.liveLocked() {
		v.mu.Unlock()
		return
	}
	v.items = append(v.items[:0:0], items...)
	v.nearEndFired = false
	v.spacer.SetHeight(v.totalHeightLocked())
	v.mu.Unlock()

	v.render()
}

// AppendItems concatenates new items onto the collection, clears the
// near-end latch, grows the spacer and re-renders. Indices of existing
// items do not move.
func (v *View[T]) AppendItems(newItems []T) {
	v.mu.Lock()
	if !v.liveLocked() {
		v.mu.Unlock()
		return
	}
	v.items = append(v.items, newItems...)
	v.nearEndFired = false
	v.spacer.SetHeight(v.totalHeightLocked())
	v.mu.Unlock()

	v.render()
}

// ForceRender invalidates the recorded range so the next pass rewrites the
// slice even when the computed range is unchanged. Use when item markup
// changed without any scroll motion.
func (v *View[T]) ForceRender() {
	v.mu.Lock()
	if !v.liveLocked() {
		v.mu.Unlock()
		return
	}
	v.rendered = noSpan
	v.mu.Unlock()

	v.render()
}

// ScrollToIndex scrolls so the item at index sits at the top of the
// viewport.
func (v *View[T]) ScrollToIndex(index int, smooth bool) {
	v.mu.Lock()
	if !v.liveLocked() || len(v.items) == 0 || v.itemHeight <= 0 {
		v.mu.Unlock()
		return
	}
	if index < 0 {
		index = 0
	}
	if index >= len(v.items) {
		index = len(v.items) - 1
	}
	target := v.listTopLocked() + index*v.itemHeight
	source := v.source
	v.mu.Unlock()

	source.ScrollTo(target, smooth)
}

// ResetNearEndTrigger re-arms the one-shot near-end callback. Callers
// invoke this after appending the page a previous trigger requested.
func (v *View[T]) ResetNearEndTrigger() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.liveLocked() {
		return
	}
	v.nearEndFired = false
}

// VisibleItems returns the currently rendered slice of the collection.
func (v *View[T]) VisibleItems() []T {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.liveLocked() || v.rendered == noSpan {
		return nil
	}
	out := make([]T, v.rendered.end-v.rendered.start)
	copy(out, v.items[v.rendered.start:v.rendered.end])
	return out
}

// FirstVisibleIndex returns the absolute index of the first rendered item.
func (v *View[T]) FirstVisibleIndex() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.liveLocked() || v.rendered == noSpan {
		return 0
	}
	return v.rendered.start
}

// State snapshots the engine.
func (v *View[T]) State() State[T] {
	v.mu.Lock()
	defer v.mu.Unlock()
	s := State[T]{}
	if v.destroyed {
		return s
	}
	s.Items = append(s.Items, v.items...)
	if v.source != nil {
		s.ScrollOffset = v.source.ScrollOffset()
		s.ViewportHeight = v.source.ViewportHeight()
	}
	if v.rendered != noSpan {
		s.Start = v.rendered.start
		s.End = v.rendered.end
	}
	return s
}

// Destroy detaches listeners, cancels any pending debounced resize and
// clears the collection. Safe to call repeatedly, and before Init.
func (v *View[T]) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.destroyed {
		return
	}
	v.detachLocked()
	v.resizeDeb.Stop()
	v.items = nil
	v.rendered = noSpan
	v.initialized = false
	v.destroyed = true
}

// Viewport composites the visible window of the list into newline-joined
// rows, one per viewport unit, for embedding in a frame. Only the slice is
// composited: a Header region stays outside index and height math, so a
// caller that mounts one renders it above the returned rows itself.
func (v *View[T]) Viewport() string {
	v.mu.Lock()
	if !v.liveLocked() || v.source == nil {
		v.mu.Unlock()
		return ""
	}
	vh := v.source.ViewportHeight()
	offset := v.source.ScrollOffset() - v.listTopLocked()
	sliceTop := v.slice.Top()
	content := v.slice.Content()
	v.mu.Unlock()

	if vh <= 0 {
		return ""
	}
	rows := make([]string, vh)
	if content != "" {
		lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
		for i, line := range lines {
			at := sliceTop + i - offset
			if at < 0 || at >= vh {
				continue
			}
			rows[at] = line
		}
	}
	return strings.Join(rows, "\n")
}

// handleScroll runs on every scroll notification: recompute, then evaluate
// the near-end trigger. Scroll is the only path that can fire the trigger.
func (v *View[T]) handleScroll() {
	v.render()
	v.maybeFireNearEnd()
}

// dispatchResize runs on the debounce timer goroutine once the resize
// burst settles. With a Deliver hook the recompute is handed back to the
// host; only without one does it run here.
func (v *View[T]) dispatchResize() {
	if v.deliver != nil {
		v.deliver(v.handleResize)
		return
	}
	v.handleResize()
}

// handleResize recomputes after a settled resize. A destroyed engine may
// still see the callback fire; render's liveness check makes it inert.
func (v *View[T]) handleResize() {
	v.render()
}

// render recomputes the visible range and rewrites the slice only when the
// range changed. A pass already in progress drops the nested attempt; the
// outer pass's completion state is authoritative.
func (v *View[T]) render() {
	v.mu.Lock()
	if !v.liveLocked() || v.rendering {
		v.mu.Unlock()
		return
	}
	start, end := v.computeRangeLocked()
	if (span{start, end}) == v.rendered {
		v.mu.Unlock()
		return
	}
	v.rendering = true
	window := v.items[start:end]
	render := v.renderItem
	itemHeight := v.itemHeight
	v.mu.Unlock()

	defer func() {
		v.mu.Lock()
		v.rendering = false
		v.mu.Unlock()
	}()

	var b strings.Builder
	for i, item := range window {
		b.WriteString(render(item, start+i))
	}

	v.mu.Lock()
	if !v.destroyed {
		v.slice.SetTop(start * itemHeight)
		v.slice.SetContent(b.String())
		v.rendered = span{start, end}
	}
	v.mu.Unlock()
}

// computeRangeLocked derives the buffered half-open range from the current
// measurements in O(1).
func (v *View[T]) computeRangeLocked() (int, int) {
	n := len(v.items)
	if n == 0 || v.itemHeight <= 0 {
		return 0, 0
	}

	offset := v.source.ScrollOffset() - v.listTopLocked()
	if offset < 0 {
		offset = 0
	}
	vh := v.source.ViewportHeight()
	if vh < 0 {
		vh = 0
	}

	rawStart := offset / v.itemHeight
	rawEnd := rawStart + (vh+v.itemHeight-1)/v.itemHeight

	start := rawStart - v.buffer
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := rawEnd + v.buffer
	if end > n {
		end = n
	}
	if end < start {
		end = start
	}
	return start, end
}

func (v *View[T]) maybeFireNearEnd() {
	v.mu.Lock()
	if !v.liveLocked() || v.onNearEnd == nil || v.nearEndFired || v.itemHeight <= 0 {
		v.mu.Unlock()
		return
	}
	offset := v.source.ScrollOffset() - v.listTopLocked()
	if offset < 0 {
		offset = 0
	}
	distance := len(v.items)*v.itemHeight - (offset + v.source.ViewportHeight())
	if distance > v.nearEndThreshold {
		v.mu.Unlock()
		return
	}
	v.nearEndFired = true
	fire := v.onNearEnd
	v.mu.Unlock()

	fire()
}

// listTopLocked is the spacer's position in scroll-source coordinates,
// needed when the source is a shared ancestor rather than the list itself.
func (v *View[T]) listTopLocked() int {
	if v.spacer == nil || v.source == nil {
		return 0
	}
	return v.spacer.offsetWithin(v.source.origin())
}

func (v *View[T]) totalHeightLocked() int {
	if v.itemHeight <= 0 {
		return 0
	}
	return len(v.items) * v.itemHeight
}

func (v *View[T]) liveLocked() bool {
	return v.initialized && !v.destroyed
}

func (v *View[T]) detachLocked() {
	if v.removeScroll != nil {
		v.removeScroll()
		v.removeScroll = nil
	}
	if v.removeResize != nil {
		v.removeResize()
		v.removeResize = nil
	}
}
