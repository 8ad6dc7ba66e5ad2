package vlist

import "testing"

func TestResolveSource_PrefersExplicit(t *testing.T) {
	root := NewRoot(100)
	container := NewRegion(root)
	other := NewRoot(42)

	src := resolveSource(container, BindRegion(other))
	if src.ViewportHeight() != 42 {
		t.Fatalf("explicit source ignored, viewport = %d", src.ViewportHeight())
	}
}

func TestResolveSource_NearestScrollableAncestorWins(t *testing.T) {
	root := NewRoot(100)
	outer := NewRegion(root)
	outer.SetScrollable(true)
	outer.SetViewportHeight(30)
	inner := NewRegion(outer)
	container := NewRegion(inner)

	src := resolveSource(container, nil)
	if src.ViewportHeight() != 30 {
		t.Fatalf("expected nearest scrollable ancestor, viewport = %d", src.ViewportHeight())
	}
	if src.origin() != outer {
		t.Fatal("source origin is not the scrollable ancestor")
	}
}

func TestResolveSource_WindowFallback(t *testing.T) {
	root := NewRegion(nil)
	root.SetScrollable(true) // root plays the window even without NewRoot
	container := NewRegion(NewRegion(root))
	root.SetScrollable(false)

	src := resolveSource(container, nil)
	if src.origin() != root {
		t.Fatal("expected window fallback to bind the tree root")
	}
}

func TestSource_ScrollNotifications(t *testing.T) {
	root := NewRoot(100)
	src := BindRegion(root)

	scrolls, resizes := 0, 0
	removeScroll := src.AddScrollListener(func() { scrolls++ })
	removeResize := src.AddResizeListener(func() { resizes++ })

	src.ScrollTo(40, true)
	root.SetViewportHeight(80)
	if scrolls != 1 || resizes != 1 {
		t.Fatalf("got %d scroll / %d resize notifications", scrolls, resizes)
	}
	if src.ScrollOffset() != 40 || src.ViewportHeight() != 80 {
		t.Fatalf("measurements = (%d, %d)", src.ScrollOffset(), src.ViewportHeight())
	}

	removeScroll()
	removeResize()
	src.ScrollTo(10, false)
	root.SetViewportHeight(20)
	if scrolls != 1 || resizes != 1 {
		t.Fatal("removed listeners still notified")
	}
}

func TestRegion_OffsetWithin(t *testing.T) {
	root := NewRoot(100)
	outer := NewRegion(root)
	outer.SetTop(10)
	inner := NewRegion(outer)
	inner.SetTop(25)

	if got := inner.offsetWithin(root); got != 35 {
		t.Fatalf("offsetWithin = %d, want 35", got)
	}
	if got := inner.offsetWithin(outer); got != 25 {
		t.Fatalf("offsetWithin parent = %d, want 25", got)
	}
	stranger := NewRoot(1)
	if got := inner.offsetWithin(stranger); got != 35 {
		t.Fatalf("offsetWithin non-ancestor = %d, want walk-to-root sum 35", got)
	}
}

func TestRegion_NegativeScrollOffsetClamps(t *testing.T) {
	root := NewRoot(100)
	root.SetScrollOffset(-50)
	if got := root.ScrollOffset(); got != 0 {
		t.Fatalf("offset = %d, want 0", got)
	}
}
