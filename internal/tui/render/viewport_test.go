package render

import (
	"fmt"
	"testing"
)

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("line %d", i)
	}
	return out
}

func TestViewportImplementsContainer(t *testing.T) {
	vp := NewViewport(20, 5)
	vp.SetLines(numbered(12))

	if vp.ScrollExtent() != 12 || vp.VisibleExtent() != 5 {
		t.Fatalf("extent=%d visible=%d", vp.ScrollExtent(), vp.VisibleExtent())
	}
	vp.SetScrollOffset(100)
	if vp.ScrollOffset() != 7 {
		t.Fatalf("offset should clamp to 7, got %d", vp.ScrollOffset())
	}
	top, height, ok := vp.AnchorBounds()
	if !ok || top != 12 || height != 0 {
		t.Fatalf("anchor = (%d,%d,%v), want (12,0,true)", top, height, ok)
	}
}

func TestViewportSetLinesDoesNotStickToBottom(t *testing.T) {
	vp := NewViewport(20, 2)
	vp.SetLines([]string{"a", "b"})
	vp.GotoBottom()

	if !vp.SetLines([]string{"a", "b", "c"}) {
		t.Fatalf("expected change to be reported")
	}
	if vp.AtBottom() {
		t.Fatalf("viewport must not follow on its own")
	}
	if vp.SetLines([]string{"a", "b", "c"}) {
		t.Fatalf("identical lines should not count as a change")
	}
}

func TestViewportScrollBy(t *testing.T) {
	vp := NewViewport(8, 2)
	vp.SetLines([]string{"a", "b", "c"})

	if !vp.ScrollBy(1) || vp.YOffset != 1 {
		t.Fatalf("unexpected YOffset after scroll: %d", vp.YOffset)
	}
	if vp.ScrollBy(1) {
		t.Fatalf("scrolling past the bottom should be a no-op")
	}
	if !vp.ScrollBy(-5) || vp.YOffset != 0 {
		t.Fatalf("scroll up should clamp to 0, got %d", vp.YOffset)
	}
}

func TestViewportDetachedWithoutHeight(t *testing.T) {
	vp := NewViewport(8, 0)
	if _, _, ok := vp.AnchorBounds(); ok {
		t.Fatalf("zero-height viewport should report an unmounted anchor")
	}
}
