// Package hmi is the on-device human interface: four GPIO buttons, a small
// status OLED, and the menu logic between them. Every piece is optional;
// missing hardware degrades to a no-op without touching the rest of the
// appliance.
package hmi

import "sync"

// Item is one menu row. Selecting it emits its action name.
type Item struct {
	Label  string
	Action string
}

// Menu is the pure cursor/selection logic, safe for concurrent use by the
// button goroutines and the render loop.
type Menu struct {
	mu      sync.Mutex
	items   []Item
	cursor  int
	changed bool
}

func NewMenu(items []Item) *Menu {
	return &Menu{items: items, changed: true}
}

// DefaultMenu lists the panel actions the appliance exposes locally.
func DefaultMenu() *Menu {
	return NewMenu([]Item{
		{Label: "LED Test", Action: "led.rgb_cycle"},
		{Label: "Stop", Action: "led.stop"},
		{Label: "Animate", Action: "led.animation"},
		{Label: "Draw Mode", Action: "led.draw"},
		{Label: "Brightness +", Action: "led.brightness.up"},
		{Label: "Brightness -", Action: "led.brightness.down"},
	})
}

// Move shifts the cursor by delta, wrapping at both ends.
func (m *Menu) Move(delta int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.items)
	if n == 0 {
		return
	}
	m.cursor = ((m.cursor+delta)%n + n) % n
	m.changed = true
}

// Select returns the action under the cursor.
func (m *Menu) Select() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return ""
	}
	m.changed = true
	return m.items[m.cursor].Action
}

// Lines returns the labels and the cursor position for rendering.
func (m *Menu) Lines() ([]string, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.items))
	for i, it := range m.items {
		out[i] = it.Label
	}
	return out, m.cursor
}

// TakeChanged reports whether the menu changed since the last call and
// resets the flag.
func (m *Menu) TakeChanged() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := m.changed
	m.changed = false
	return c
}
