package navigator

// ListNav is the shared keyboard-navigation primitive for drill-down
// dropdowns: a bounded highlight index over the current candidate list with
// activate/back callbacks. The index clamps at both ends; it never wraps.
type ListNav struct {
	index  int
	length int

	onActivate func(index int)
	onBack     func()
}

// NewListNav builds a list navigator over length items.
func NewListNav(length int, onActivate func(int), onBack func()) *ListNav {
	return &ListNav{length: length, onActivate: onActivate, onBack: onBack}
}

// Index returns the current highlight position.
func (l *ListNav) Index() int { return l.index }

// SetLength updates the list size (after filtering) and clamps the index.
func (l *ListNav) SetLength(length int) {
	if length < 0 {
		length = 0
	}
	l.length = length
	if l.index >= length {
		l.index = length - 1
	}
	if l.index < 0 {
		l.index = 0
	}
}

// Move shifts the highlight by delta, clamped to list bounds.
func (l *ListNav) Move(delta int) {
	if l.length == 0 {
		l.index = 0
		return
	}
	l.index += delta
	if l.index < 0 {
		l.index = 0
	}
	if l.index > l.length-1 {
		l.index = l.length - 1
	}
}

// Activate invokes the activation callback for the highlighted item,
// equivalent to clicking it.
func (l *ListNav) Activate() {
	if l.length == 0 || l.onActivate == nil {
		return
	}
	l.onActivate(l.index)
}

// Back invokes the back callback.
func (l *ListNav) Back() {
	if l.onBack != nil {
		l.onBack()
	}
}

// HandleKey maps a keyboard event name to a navigation action and reports
// whether the key was consumed. Enter/Tab activate, Escape/Backspace go
// back, arrows move.
func (l *ListNav) HandleKey(key string) bool {
	switch key {
	case "ArrowUp":
		l.Move(-1)
	case "ArrowDown":
		l.Move(1)
	case "Enter", "Tab":
		l.Activate()
	case "Escape", "Backspace":
		l.Back()
	default:
		return false
	}
	return true
}
