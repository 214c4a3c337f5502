// api/schemas/browser.go
package schemas

// MouseEventType mirrors the CDP Input.dispatchMouseEvent type values.
type MouseEventType string

const (
	MousePress   MouseEventType = "mousePressed"
	MouseRelease MouseEventType = "mouseReleased"
	MouseMove    MouseEventType = "mouseMoved"
	MouseWheel   MouseEventType = "mouseWheel"
)

// MouseButton identifies the button involved in a mouse event.
type MouseButton string

const (
	ButtonNone MouseButton = "none"
	ButtonLeft MouseButton = "left"
)

// MouseEventData encapsulates one synthetic mouse event.
type MouseEventData struct {
	Type       MouseEventType `json:"type"`
	X          float64        `json:"x"`
	Y          float64        `json:"y"`
	Button     MouseButton    `json:"button"`
	Buttons    int64          `json:"buttons"`
	ClickCount int            `json:"clickCount"`
	DeltaX     float64        `json:"deltaX"`
	DeltaY     float64        `json:"deltaY"`
}

// Box is an axis-aligned element bounding box in viewport coordinates.
type Box struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// CenterX returns the horizontal center of the box.
func (b Box) CenterX() float64 { return b.X + b.Width/2 }

// CenterY returns the vertical center of the box.
func (b Box) CenterY() float64 { return b.Y + b.Height/2 }

// Viewport is the currently visible window rectangle.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether the box lies fully within the viewport.
func (v Viewport) Contains(b Box) bool {
	return b.X >= 0 && b.Y >= 0 &&
		b.X+b.Width <= v.Width && b.Y+b.Height <= v.Height
}
