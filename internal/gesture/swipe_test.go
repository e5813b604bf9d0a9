package gesture

import "testing"

func swipe(c *Controller, fromX, fromY, toX, toY float64) bool {
	c.Begin(fromX, fromY)
	// midpoint move locks the axis before the final position
	c.Move(fromX+(toX-fromX)/2, fromY+(toY-fromY)/2)
	c.Move(toX, toY)
	return c.End()
}

func TestSwipeRightHidesChrome(t *testing.T) {
	c := NewController()
	if !c.Visible() {
		t.Fatal("chrome should start visible")
	}
	if changed := swipe(c, 100, 300, 160, 300); !changed {
		t.Fatal("expected visibility change")
	}
	if c.Visible() {
		t.Fatal("rightward swipe should hide the chrome")
	}
}

func TestSwipeLeftShowsChrome(t *testing.T) {
	c := NewController()
	swipe(c, 100, 300, 160, 300) // hide first
	if changed := swipe(c, 200, 300, 140, 300); !changed {
		t.Fatal("expected visibility change")
	}
	if !c.Visible() {
		t.Fatal("leftward swipe should show the chrome")
	}
}

func TestSwipeIdempotentDirections(t *testing.T) {
	c := NewController()
	// leftward swipe while already visible changes nothing
	if changed := swipe(c, 200, 300, 140, 300); changed {
		t.Fatal("show while visible should report no change")
	}
	swipe(c, 100, 300, 160, 300)
	// rightward swipe while already hidden changes nothing
	if changed := swipe(c, 100, 300, 160, 300); changed {
		t.Fatal("hide while hidden should report no change")
	}
	if c.Visible() {
		t.Fatal("chrome should remain hidden")
	}
}

func TestVerticalSwipeNeverToggles(t *testing.T) {
	c := NewController()
	if changed := swipe(c, 100, 300, 100, 100); changed {
		t.Fatal("vertical swipe must not change visibility")
	}
	if !c.Visible() {
		t.Fatal("visibility perturbed by vertical swipe")
	}
}

func TestAxisLocksToFirstDominantDirection(t *testing.T) {
	c := NewController()
	c.Begin(100, 100)
	c.Move(100, 130) // locks vertical
	if c.TrackingAxis() != AxisVertical {
		t.Fatalf("expected vertical lock, got %v", c.TrackingAxis())
	}
	c.Move(300, 130) // large horizontal travel after the lock
	if changed := c.End(); changed {
		t.Fatal("vertical-locked gesture must not commit a toggle")
	}
	if !c.Visible() {
		t.Fatal("visibility changed despite vertical lock")
	}
}

func TestSubThresholdSwipeIsIgnored(t *testing.T) {
	c := NewController()
	if changed := swipe(c, 100, 300, 140, 300); changed {
		t.Fatal("40px swipe is below the commit threshold")
	}
	if !c.Visible() {
		t.Fatal("visibility changed below threshold")
	}
}

func TestEndWithoutBeginIsNoop(t *testing.T) {
	c := NewController()
	if changed := c.End(); changed {
		t.Fatal("End without Begin should report no change")
	}
}
