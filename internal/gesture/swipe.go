// Package gesture implements the swipe-driven "zen mode" visibility state
// machine. Input is a device-agnostic Begin/Move/End coordinate stream, so
// the axis-lock and threshold logic behaves identically for touch and pointer.
package gesture

// Axis is the locked movement direction of an in-progress gesture.
type Axis int

const (
	AxisNone Axis = iota
	AxisHorizontal
	AxisVertical
)

const (
	// axisLockThreshold is the displacement (px) past which the axis locks.
	axisLockThreshold = 10
	// commitThreshold is the horizontal displacement (px) required to toggle.
	commitThreshold = 50
)

// Controller tracks one gesture at a time and holds the committed UI
// visibility flag. Vertical-locked gestures are reserved for scrolling and
// never change visibility. Zero value is not ready; use NewController.
type Controller struct {
	visible  bool
	tracking bool
	startX   float64
	startY   float64
	curX     float64
	curY     float64
	axis     Axis
}

// NewController creates a controller with the UI chrome visible.
func NewController() *Controller {
	return &Controller{visible: true}
}

// Begin starts tracking a gesture, resetting any previous axis lock.
func (c *Controller) Begin(x, y float64) {
	c.tracking = true
	c.startX, c.startY = x, y
	c.curX, c.curY = x, y
	c.axis = AxisNone
}

// Move updates the gesture. The axis locks to the dominant direction once
// either delta exceeds the lock threshold.
func (c *Controller) Move(x, y float64) {
	if !c.tracking {
		return
	}
	c.curX, c.curY = x, y
	if c.axis != AxisNone {
		return
	}
	dx := abs(c.curX - c.startX)
	dy := abs(c.curY - c.startY)
	if dx <= axisLockThreshold && dy <= axisLockThreshold {
		return
	}
	if dx >= dy {
		c.axis = AxisHorizontal
	} else {
		c.axis = AxisVertical
	}
}

// End finishes the gesture. Only a horizontal-locked gesture whose net
// displacement exceeds the commit threshold changes visibility: rightward
// hides the chrome, leftward shows it. Returns true when visibility changed.
func (c *Controller) End() bool {
	if !c.tracking {
		return false
	}
	c.tracking = false
	if c.axis != AxisHorizontal {
		return false
	}
	dx := c.curX - c.startX
	switch {
	case dx > commitThreshold:
		changed := c.visible
		c.visible = false
		return changed
	case dx < -commitThreshold:
		changed := !c.visible
		c.visible = true
		return changed
	}
	return false
}

// Visible reports whether the UI chrome is shown (false = zen mode).
func (c *Controller) Visible() bool {
	return c.visible
}

// TrackingAxis returns the axis lock of the in-progress gesture.
func (c *Controller) TrackingAxis() Axis {
	return c.axis
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
