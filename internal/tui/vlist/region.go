package vlist

import "sync"

// Region is a node in a retained render surface. The engine mounts its
// header, spacer and slice regions into a caller-owned container region,
// and the shell composites region content into the terminal on each frame.
// A region may be scrollable, in which case it carries a scroll offset and
// a viewport height and notifies registered listeners when either changes.
// The topmost region stands in for the window.
type Region struct {
	mu sync.Mutex

	parent   *Region
	children []*Region

	top     int
	height  int
	content string

	scrollable     bool
	scrollOffset   int
	viewportHeight int

	nextListenerID  int
	scrollListeners map[int]func()
	resizeListeners map[int]func()
}

// NewRegion creates a region attached under parent. A nil parent creates a
// detached root.
func NewRegion(parent *Region) *Region {
	r := &Region{parent: parent}
	if parent != nil {
		parent.mu.Lock()
		parent.children = append(parent.children, r)
		parent.mu.Unlock()
	}
	return r
}

// NewRoot creates a scrollable top-level region with the given viewport
// height, playing the window role.
func NewRoot(viewportHeight int) *Region {
	r := NewRegion(nil)
	r.scrollable = true
	r.viewportHeight = viewportHeight
	return r
}

func (r *Region) Parent() *Region {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.parent
}

// Root walks up to the topmost ancestor.
func (r *Region) Root() *Region {
	node := r
	for {
		parent := node.Parent()
		if parent == nil {
			return node
		}
		node = parent
	}
}

// Children returns the child regions in mount order.
func (r *Region) Children() []*Region {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Region, len(r.children))
	copy(out, r.children)
	return out
}

func (r *Region) Top() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.top
}

func (r *Region) SetTop(top int) {
	r.mu.Lock()
	r.top = top
	r.mu.Unlock()
}

func (r *Region) Height() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.height
}

func (r *Region) SetHeight(height int) {
	r.mu.Lock()
	r.height = height
	r.mu.Unlock()
}

func (r *Region) Content() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.content
}

func (r *Region) SetContent(content string) {
	r.mu.Lock()
	r.content = content
	r.mu.Unlock()
}

func (r *Region) Scrollable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scrollable
}

// SetScrollable marks the region as a scroll container, making it eligible
// for scrollable-ancestor detection.
func (r *Region) SetScrollable(scrollable bool) {
	r.mu.Lock()
	r.scrollable = scrollable
	r.mu.Unlock()
}

func (r *Region) ScrollOffset() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scrollOffset
}

// SetScrollOffset moves the scroll position and notifies scroll listeners.
func (r *Region) SetScrollOffset(offset int) {
	if offset < 0 {
		offset = 0
	}
	r.mu.Lock()
	r.scrollOffset = offset
	listeners := r.snapshotLocked(r.scrollListeners)
	r.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (r *Region) ViewportHeight() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.viewportHeight
}

// SetViewportHeight resizes the visible window and notifies resize
// listeners.
func (r *Region) SetViewportHeight(height int) {
	if height < 0 {
		height = 0
	}
	r.mu.Lock()
	r.viewportHeight = height
	listeners := r.snapshotLocked(r.resizeListeners)
	r.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

func (r *Region) addScrollListener(fn func()) (remove func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scrollListeners == nil {
		r.scrollListeners = make(map[int]func())
	}
	id := r.nextListenerID
	r.nextListenerID++
	r.scrollListeners[id] = fn
	return func() {
		r.mu.Lock()
		delete(r.scrollListeners, id)
		r.mu.Unlock()
	}
}

func (r *Region) addResizeListener(fn func()) (remove func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resizeListeners == nil {
		r.resizeListeners = make(map[int]func())
	}
	id := r.nextListenerID
	r.nextListenerID++
	r.resizeListeners[id] = fn
	return func() {
		r.mu.Lock()
		delete(r.resizeListeners, id)
		r.mu.Unlock()
	}
}

func (r *Region) snapshotLocked(m map[int]func()) []func() {
	if len(m) == 0 {
		return nil
	}
	out := make([]func(), 0, len(m))
	for _, fn := range m {
		out = append(out, fn)
	}
	return out
}

// offsetWithin sums the top offsets from r up to (excluding) ancestor,
// yielding r's position in ancestor's content coordinates. When ancestor is
// not on r's parent chain the walk stops at the root, which makes a window
// source see the same coordinates as a detached caller would.
func (r *Region) offsetWithin(ancestor *Region) int {
	sum := 0
	for node := r; node != nil && node != ancestor; node = node.Parent() {
		sum += node.Top()
	}
	return sum
}
