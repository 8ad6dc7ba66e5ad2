package vlist

// ScrollSource abstracts where scroll and viewport measurements come from,
// so the engine is agnostic to whether the list lives inside an explicit
// scroll container or scrolls with the window. Selected once at Init.
type ScrollSource interface {
	ScrollOffset() int
	ViewportHeight() int
	// ScrollTo moves the scroll position. The smooth hint is accepted for
	// API parity with animated hosts; terminal scrolling is instant.
	ScrollTo(offset int, smooth bool)

	AddScrollListener(fn func()) (remove func())
	AddResizeListener(fn func()) (remove func())

	// origin is the region whose content coordinates scroll offsets refer
	// to, used to translate a container position into source coordinates.
	origin() *Region
}

// elementSource binds to an explicit (or auto-detected) scrollable region.
type elementSource struct {
	region *Region
}

// BindRegion makes an explicit scrollable region the scroll source.
func BindRegion(r *Region) ScrollSource {
	return elementSource{region: r}
}

func (s elementSource) ScrollOffset() int   { return s.region.ScrollOffset() }
func (s elementSource) ViewportHeight() int { return s.region.ViewportHeight() }

func (s elementSource) ScrollTo(offset int, smooth bool) {
	s.region.SetScrollOffset(offset)
}

func (s elementSource) AddScrollListener(fn func()) func() {
	return s.region.addScrollListener(fn)
}

func (s elementSource) AddResizeListener(fn func()) func() {
	return s.region.addResizeListener(fn)
}

func (s elementSource) origin() *Region { return s.region }

// windowSource is the fallback when no scrollable ancestor exists: the root
// region scrolls as a whole, the way a document scrolls with the window.
type windowSource struct {
	root *Region
}

// BindWindow makes the root of the given region's tree the scroll source.
func BindWindow(r *Region) ScrollSource {
	return windowSource{root: r.Root()}
}

func (s windowSource) ScrollOffset() int   { return s.root.ScrollOffset() }
func (s windowSource) ViewportHeight() int { return s.root.ViewportHeight() }

func (s windowSource) ScrollTo(offset int, smooth bool) {
	s.root.SetScrollOffset(offset)
}

func (s windowSource) AddScrollListener(fn func()) func() {
	return s.root.addScrollListener(fn)
}

func (s windowSource) AddResizeListener(fn func()) func() {
	return s.root.addResizeListener(fn)
}

func (s windowSource) origin() *Region { return s.root }

// resolveSource picks the scroll source for a container: an explicit source
// wins, then the nearest scrollable ancestor, then the window fallback.
func resolveSource(container *Region, explicit ScrollSource) ScrollSource {
	if explicit != nil {
		return explicit
	}
	for node := container.Parent(); node != nil; node = node.Parent() {
		if node.Scrollable() {
			return elementSource{region: node}
		}
	}
	return BindWindow(container)
}
