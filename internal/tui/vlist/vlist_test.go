package vlist

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

type harness struct {
	root      *Region
	container *Region
	view      *View[string]
	renders   int
	rendered  []string
}

// newHarness builds a 100-item view inside a scrollable root: itemHeight
// 50, default buffer 5, viewport height 500 (10 rows visible).
func newHarness(t *testing.T, opts Options[string], count int) *harness {
	t.Helper()
	h := &harness{}
	h.root = NewRoot(500)
	h.container = NewRegion(h.root)

	opts.Container = h.container
	if opts.ItemHeight == 0 {
		opts.ItemHeight = 50
	}
	if opts.RenderItem == nil {
		opts.RenderItem = func(item string, index int) string {
			h.renders++
			h.rendered = append(h.rendered, fmt.Sprintf("%s@%d", item, index))
			return fmt.Sprintf("%s@%d\n", item, index)
		}
	}
	h.view = New(opts)
	h.view.Init(makeItems(count))
	return h
}

func makeItems(n int) []string {
	items := make([]string, n)
	for i := range items {
		items[i] = fmt.Sprintf("item-%d", i)
	}
	return items
}

func (h *harness) spacer(t *testing.T) *Region {
	t.Helper()
	children := h.container.Children()
	if len(children) == 0 {
		t.Fatal("no spacer mounted")
	}
	return children[len(children)-1]
}

func (h *harness) slice(t *testing.T) *Region {
	t.Helper()
	children := h.spacer(t).Children()
	if len(children) != 1 {
		t.Fatalf("expected 1 slice region, got %d", len(children))
	}
	return children[0]
}

func TestInitialRange_Scenario(t *testing.T) {
	h := newHarness(t, Options[string]{}, 100)

	s := h.view.State()
	if s.Start != 0 || s.End != 15 {
		t.Fatalf("at offset 0 expected range [0,15], got [%d,%d]", s.Start, s.End)
	}

	h.root.SetScrollOffset(2500)
	s = h.view.State()
	if s.Start != 45 || s.End != 65 {
		t.Fatalf("at offset 2500 expected range [45,65], got [%d,%d]", s.Start, s.End)
	}
}

func TestRangeBounds_NeverEscapeCollection(t *testing.T) {
	cases := []struct {
		name     string
		count    int
		offset   int
		viewport int
	}{
		{"empty", 0, 1000, 500},
		{"scrolled far past end", 10, 100000, 500},
		{"zero viewport", 100, 2500, 0},
		{"tiny list", 2, 0, 500},
		{"negative-ish offset clamp", 100, 0, 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t, Options[string]{}, tc.count)
			h.root.SetViewportHeight(tc.viewport)
			h.root.SetScrollOffset(tc.offset)
			h.view.ForceRender()

			s := h.view.State()
			if s.Start < 0 || s.Start > s.End || s.End > tc.count {
				t.Fatalf("range [%d,%d] escapes [0,%d]", s.Start, s.End, tc.count)
			}
		})
	}
}

func TestIdempotentRange_NoRedundantRender(t *testing.T) {
	h := newHarness(t, Options[string]{}, 100)
	initial := h.renders
	if initial == 0 {
		t.Fatal("expected an initial render")
	}

	// Repeated scroll events resolving to the same range must not touch
	// the slice again.
	for i := 0; i < 5; i++ {
		h.root.SetScrollOffset(0)
	}
	if h.renders != initial {
		t.Fatalf("identical range re-rendered: %d -> %d calls", initial, h.renders)
	}

	// Tiny scroll within the same computed range: still no rewrite.
	h.root.SetScrollOffset(10)
	if h.renders != initial {
		t.Fatalf("same-range scroll re-rendered: %d -> %d calls", initial, h.renders)
	}

	h.root.SetScrollOffset(2500)
	if h.renders == initial {
		t.Fatal("range change did not re-render")
	}
}

func TestHeightInvariant_SpacerTracksCollection(t *testing.T) {
	h := newHarness(t, Options[string]{}, 100)
	if got := h.spacer(t).Height(); got != 100*50 {
		t.Fatalf("spacer height = %d, want %d", got, 100*50)
	}

	h.view.AppendItems(makeItems(7))
	if got := h.spacer(t).Height(); got != 107*50 {
		t.Fatalf("spacer height after append = %d, want %d", got, 107*50)
	}

	h.view.UpdateItems(makeItems(3))
	if got := h.spacer(t).Height(); got != 3*50 {
		t.Fatalf("spacer height after update = %d, want %d", got, 3*50)
	}
}

func TestNearEnd_FiresOnceAndRearms(t *testing.T) {
	fired := 0
	h := newHarness(t, Options[string]{
		OnNearEnd: func() { fired++ },
	}, 100)

	// Total height 5000, viewport 500, threshold 200: offsets >= 4300
	// are within range.
	h.root.SetScrollOffset(4300)
	h.root.SetScrollOffset(4400)
	h.root.SetScrollOffset(4500)
	if fired != 1 {
		t.Fatalf("expected exactly 1 near-end fire, got %d", fired)
	}

	h.view.ResetNearEndTrigger()
	h.root.SetScrollOffset(4400)
	if fired != 2 {
		t.Fatalf("expected re-armed trigger to fire again, got %d", fired)
	}

	// Appending implicitly re-arms; the appended items push the end away
	// so the trigger needs a deeper scroll.
	h.view.AppendItems(makeItems(100))
	h.root.SetScrollOffset(4400)
	if fired != 2 {
		t.Fatalf("trigger fired while far from new end, got %d", fired)
	}
	h.root.SetScrollOffset(9500)
	if fired != 3 {
		t.Fatalf("expected fire near new end, got %d", fired)
	}
}

func TestNearEnd_BelowThresholdDoesNotFire(t *testing.T) {
	fired := 0
	h := newHarness(t, Options[string]{
		OnNearEnd: func() { fired++ },
	}, 100)

	h.root.SetScrollOffset(4299)
	if fired != 0 {
		t.Fatalf("fired at distance above threshold: %d", fired)
	}
	h.root.SetScrollOffset(4300)
	if fired != 1 {
		t.Fatalf("expected fire at threshold, got %d", fired)
	}
}

func TestNearEnd_ResizeDoesNotFire(t *testing.T) {
	fired := 0
	h := newHarness(t, Options[string]{
		OnNearEnd:      func() { fired++ },
		ResizeDebounce: time.Millisecond,
	}, 100)

	// Growing the viewport to cover the whole list satisfies the distance
	// condition, but only scroll recomputation may fire the trigger.
	h.root.SetViewportHeight(5000)
	time.Sleep(30 * time.Millisecond)
	if fired != 0 {
		t.Fatalf("resize fired near-end trigger: %d", fired)
	}
}

func TestReentrantForceRender_DoesNotRecurse(t *testing.T) {
	h := &harness{}
	h.root = NewRoot(500)
	h.container = NewRegion(h.root)

	h.view = New(Options[string]{
		Container:  h.container,
		ItemHeight: 50,
		RenderItem: func(item string, index int) string {
			h.renders++
			h.view.ForceRender() // synchronous self-trigger
			return item + "\n"
		},
	})
	h.view.Init(makeItems(10))

	if h.renders != 10 {
		t.Fatalf("expected exactly 10 render calls, got %d", h.renders)
	}
}

func TestAppend_PreservesOrderAndAbsoluteIndices(t *testing.T) {
	h := newHarness(t, Options[string]{}, 8)

	h.rendered = nil
	h.view.AppendItems([]string{"extra-0", "extra-1"})

	visible := h.view.VisibleItems()
	want := append(makeItems(8), "extra-0", "extra-1")
	if len(visible) != len(want) {
		t.Fatalf("expected %d visible items, got %d", len(want), len(visible))
	}
	for i := range want {
		if visible[i] != want[i] {
			t.Fatalf("visible[%d] = %q, want %q", i, visible[i], want[i])
		}
	}

	// The appended items render at originalLength + i.
	found := false
	for _, r := range h.rendered {
		if r == "extra-1@9" {
			found = true
		}
		if strings.HasPrefix(r, "extra-") && !strings.HasSuffix(r, "@8") && !strings.HasSuffix(r, "@9") {
			t.Fatalf("appended item rendered at wrong index: %s", r)
		}
	}
	if !found {
		t.Fatal("appended item extra-1 never rendered at index 9")
	}
}

func TestHeader_MountedFirstAndExcludedFromMath(t *testing.T) {
	withHeader := newHarness(t, Options[string]{Header: "== Front Page ==\n"}, 100)
	plain := newHarness(t, Options[string]{}, 100)

	children := withHeader.container.Children()
	if len(children) != 2 {
		t.Fatalf("expected header + spacer, got %d children", len(children))
	}
	if children[0].Content() != "== Front Page ==\n" {
		t.Fatalf("first child is not the header: %q", children[0].Content())
	}

	for _, offset := range []int{0, 1250, 2500, 4999} {
		withHeader.root.SetScrollOffset(offset)
		plain.root.SetScrollOffset(offset)
		a, b := withHeader.view.State(), plain.view.State()
		if a.Start != b.Start || a.End != b.End {
			t.Fatalf("header changed range at offset %d: [%d,%d] vs [%d,%d]",
				offset, a.Start, a.End, b.Start, b.End)
		}
	}
}

func TestSliceRegion_PositionAndContent(t *testing.T) {
	h := newHarness(t, Options[string]{}, 100)
	h.root.SetScrollOffset(2500)

	slice := h.slice(t)
	if got := slice.Top(); got != 45*50 {
		t.Fatalf("slice top = %d, want %d", got, 45*50)
	}

	var want strings.Builder
	for i := 45; i < 65; i++ {
		fmt.Fprintf(&want, "item-%d@%d\n", i, i)
	}
	if slice.Content() != want.String() {
		t.Fatalf("slice content mismatch:\n got: %q\nwant: %q", slice.Content(), want.String())
	}
}

func TestForceRender_RewritesIdenticalRange(t *testing.T) {
	h := newHarness(t, Options[string]{}, 100)
	before := h.renders

	h.view.ForceRender()
	if h.renders <= before {
		t.Fatal("ForceRender did not rewrite the slice")
	}

	s := h.view.State()
	if s.Start != 0 || s.End != 15 {
		t.Fatalf("range drifted after ForceRender: [%d,%d]", s.Start, s.End)
	}
}

func TestScrollToIndex_SetsOffsetAndClamps(t *testing.T) {
	h := newHarness(t, Options[string]{}, 100)

	h.view.ScrollToIndex(50, false)
	if got := h.root.ScrollOffset(); got != 2500 {
		t.Fatalf("offset after ScrollToIndex(50) = %d, want 2500", got)
	}
	if got := h.view.FirstVisibleIndex(); got != 45 {
		t.Fatalf("first visible index = %d, want 45", got)
	}

	h.view.ScrollToIndex(-3, false)
	if got := h.root.ScrollOffset(); got != 0 {
		t.Fatalf("offset after negative index = %d, want 0", got)
	}

	h.view.ScrollToIndex(100000, false)
	if got := h.root.ScrollOffset(); got != 99*50 {
		t.Fatalf("offset after oversized index = %d, want %d", got, 99*50)
	}
}

func TestUpdateItems_ReplacesCollection(t *testing.T) {
	h := newHarness(t, Options[string]{}, 100)
	h.root.SetScrollOffset(2500)

	h.view.UpdateItems([]string{"only-0", "only-1"})
	s := h.view.State()
	if len(s.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(s.Items))
	}
	if s.Start != 0 || s.End != 2 {
		t.Fatalf("expected clamped range [0,2], got [%d,%d]", s.Start, s.End)
	}
	visible := h.view.VisibleItems()
	if len(visible) != 2 || visible[0] != "only-0" {
		t.Fatalf("unexpected visible items: %v", visible)
	}
}

func TestEmptyAndDegenerateInputs(t *testing.T) {
	t.Run("empty collection", func(t *testing.T) {
		h := newHarness(t, Options[string]{}, 0)
		if got := h.spacer(t).Height(); got != 0 {
			t.Fatalf("spacer height for empty list = %d", got)
		}
		if items := h.view.VisibleItems(); len(items) != 0 {
			t.Fatalf("unexpected visible items: %v", items)
		}
		h.root.SetScrollOffset(1000) // must not panic
	})

	t.Run("zero viewport height", func(t *testing.T) {
		h := newHarness(t, Options[string]{}, 100)
		h.root.SetViewportHeight(0)
		h.view.ForceRender()
		s := h.view.State()
		// Only the trailing buffer remains.
		if s.Start != 0 || s.End != 5 {
			t.Fatalf("unexpected range for zero viewport: [%d,%d]", s.Start, s.End)
		}
	})

	t.Run("non-positive item height renders nothing", func(t *testing.T) {
		h := newHarness(t, Options[string]{ItemHeight: -1}, 100)
		if got := h.spacer(t).Height(); got != 0 {
			t.Fatalf("spacer height = %d, want 0", got)
		}
		s := h.view.State()
		if s.Start != 0 || s.End != 0 {
			t.Fatalf("unexpected range: [%d,%d]", s.Start, s.End)
		}
	})
}

func TestMutatorsBeforeInit_AreNoOps(t *testing.T) {
	root := NewRoot(500)
	container := NewRegion(root)
	v := New(Options[string]{
		Container:  container,
		ItemHeight: 50,
		RenderItem: func(item string, index int) string { return item },
	})

	v.AppendItems([]string{"a"})
	v.UpdateItems([]string{"b"})
	v.ForceRender()
	v.ScrollToIndex(3, false)
	v.ResetNearEndTrigger()
	if items := v.VisibleItems(); items != nil {
		t.Fatalf("unexpected visible items before init: %v", items)
	}
	if len(container.Children()) != 0 {
		t.Fatal("mutators mounted structure before init")
	}
}

func TestDestroy_IsIdempotentAndInert(t *testing.T) {
	h := newHarness(t, Options[string]{}, 100)
	contentBefore := h.slice(t).Content()

	h.view.Destroy()
	h.view.Destroy() // second call must be safe

	h.root.SetScrollOffset(2500)
	h.view.AppendItems([]string{"late"})
	h.view.ForceRender()

	if got := h.slice(t).Content(); got != contentBefore {
		t.Fatal("destroyed engine wrote to the slice")
	}

	// Destroy before Init is also safe.
	v := New(Options[string]{
		Container:  NewRegion(NewRoot(10)),
		ItemHeight: 1,
		RenderItem: func(item string, index int) string { return item },
	})
	v.Destroy()
}

func TestDestroy_PendingDebouncedResizeIsInert(t *testing.T) {
	h := newHarness(t, Options[string]{ResizeDebounce: 10 * time.Millisecond}, 100)
	contentBefore := h.slice(t).Content()
	rendersBefore := h.renders

	// Queue a debounced resize that would change the range, then destroy
	// before it fires.
	h.root.SetViewportHeight(5000)
	h.view.Destroy()
	time.Sleep(40 * time.Millisecond)

	if h.renders != rendersBefore {
		t.Fatalf("debounced resize rendered after destroy: %d -> %d", rendersBefore, h.renders)
	}
	if got := h.slice(t).Content(); got != contentBefore {
		t.Fatal("debounced resize mutated the slice after destroy")
	}
}

func TestResize_DebouncedRecompute(t *testing.T) {
	h := newHarness(t, Options[string]{ResizeDebounce: 2 * time.Millisecond}, 100)

	// A burst of resizes coalesces into one recompute.
	for vh := 600; vh <= 1000; vh += 100 {
		h.root.SetViewportHeight(vh)
	}
	time.Sleep(30 * time.Millisecond)

	s := h.view.State()
	// viewport 1000 -> 20 visible rows + trailing buffer.
	if s.Start != 0 || s.End != 25 {
		t.Fatalf("expected range [0,25] after resize, got [%d,%d]", s.Start, s.End)
	}
}

func TestResize_DeliverHandsRecomputeToCaller(t *testing.T) {
	recomputes := make(chan func(), 1)
	h := newHarness(t, Options[string]{
		ResizeDebounce: 2 * time.Millisecond,
		Deliver: func(fn func()) {
			select {
			case recomputes <- fn:
			default:
			}
		},
	}, 100)

	h.root.SetViewportHeight(1000)

	var recompute func()
	select {
	case recompute = <-recomputes:
	case <-time.After(time.Second):
		t.Fatal("debounced recompute was never delivered")
	}

	// The timer goroutine handed the recompute over instead of running
	// it: the rendered range still reflects the old viewport.
	s := h.view.State()
	if s.Start != 0 || s.End != 15 {
		t.Fatalf("range recomputed before delivery: [%d,%d]", s.Start, s.End)
	}

	recompute()
	s = h.view.State()
	if s.Start != 0 || s.End != 25 {
		t.Fatalf("expected range [0,25] after delivered recompute, got [%d,%d]", s.Start, s.End)
	}
}

func TestResize_DeliveredRecomputeSeesCallerState(t *testing.T) {
	recomputes := make(chan func(), 1)
	root := NewRoot(500)
	container := NewRegion(root)

	// marker stands in for host state the render callback reads without
	// synchronization. With Deliver wired, the recompute below runs on
	// this goroutine, so writing marker between the resize and the
	// delivery is race-free and the rewrite observes the new value.
	marker := "a"
	v := New(Options[string]{
		Container:      container,
		ItemHeight:     50,
		ResizeDebounce: 2 * time.Millisecond,
		RenderItem: func(item string, index int) string {
			return marker + ":" + item + "\n"
		},
		Deliver: func(fn func()) {
			select {
			case recomputes <- fn:
			default:
			}
		},
	})
	v.Init(makeItems(100))

	root.SetViewportHeight(1000)
	marker = "b"

	var recompute func()
	select {
	case recompute = <-recomputes:
	case <-time.After(time.Second):
		t.Fatal("debounced recompute was never delivered")
	}
	recompute()

	spacer := container.Children()[len(container.Children())-1]
	slice := spacer.Children()[0]
	for _, line := range strings.Split(strings.TrimRight(slice.Content(), "\n"), "\n") {
		if !strings.HasPrefix(line, "b:") {
			t.Fatalf("recompute used stale caller state: %q", line)
		}
	}
}

func TestViewport_ExcludesMountedHeader(t *testing.T) {
	build := func(header string) (*Region, *View[string]) {
		root := NewRoot(3)
		container := NewRegion(root)
		v := New(Options[string]{
			Container:  container,
			ItemHeight: 1,
			Header:     header,
			RenderItem: func(item string, index int) string { return item + "\n" },
		})
		v.Init([]string{"aaa", "bbb", "ccc", "ddd", "eee"})
		return root, v
	}

	_, withHeader := build("== Front Page ==\n")
	_, plain := build("")

	// The header region is the caller's to frame; the composited rows are
	// the list slice alone, so row 0 is still the first item.
	if got, want := withHeader.Viewport(), plain.Viewport(); got != want {
		t.Fatalf("header leaked into composited rows:\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderPanic_LeavesPreviousRangeRecorded(t *testing.T) {
	h := &harness{}
	h.root = NewRoot(500)
	h.container = NewRegion(h.root)

	panicky := false
	h.view = New(Options[string]{
		Container:  h.container,
		ItemHeight: 50,
		RenderItem: func(item string, index int) string {
			if panicky && index > 50 {
				panic("render boom")
			}
			return item + "\n"
		},
	})
	h.view.Init(makeItems(100))
	before := h.view.State()

	panicky = true
	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected render panic to propagate")
			}
		}()
		h.root.SetScrollOffset(2500)
	}()

	after := h.view.State()
	if after.Start != before.Start || after.End != before.End {
		t.Fatalf("panicked render updated range: [%d,%d]", after.Start, after.End)
	}

	// The engine still works once the callback behaves again.
	panicky = false
	h.root.SetScrollOffset(2600)
	s := h.view.State()
	if s.Start != 47 || s.End != 67 {
		t.Fatalf("engine wedged after panic: [%d,%d]", s.Start, s.End)
	}
}

func TestViewport_CompositesVisibleRows(t *testing.T) {
	root := NewRoot(3)
	container := NewRegion(root)
	v := New(Options[string]{
		Container:  container,
		ItemHeight: 1,
		RenderItem: func(item string, index int) string { return item + "\n" },
	})
	v.Init([]string{"aaa", "bbb", "ccc", "ddd", "eee", "fff", "ggg", "hhh", "iii", "jjj"})

	rows := strings.Split(v.Viewport(), "\n")
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
	if rows[0] != "aaa" || rows[2] != "ccc" {
		t.Fatalf("unexpected rows: %v", rows)
	}

	root.SetScrollOffset(7)
	rows = strings.Split(v.Viewport(), "\n")
	if rows[0] != "hhh" || rows[1] != "iii" || rows[2] != "jjj" {
		t.Fatalf("unexpected rows after scroll: %v", rows)
	}
}
