package mirror

import (
	"encoding/json"

	"alis/internal/frame"
)

// inbound covers every message shape a viewer may send: a batched point
// edit, a clear, or the legacy single-pixel hex-color form (which has no
// type tag).
type inbound struct {
	Type string `json:"type"`
	Pts  []struct {
		X, Y    int
		R, G, B int
	} `json:"pts"`
	X     *int   `json:"x"`
	Y     *int   `json:"y"`
	Color string `json:"color"`
}

// HandleMessage applies one inbound viewer message. Malformed input is
// discarded silently: viewers are untrusted, and the framebuffer already
// drops out-of-range coordinates the same way.
func (m *Mirror) HandleMessage(data []byte) {
	var msg inbound
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}
	switch msg.Type {
	case "points":
		// Array order: a later point at the same coordinate wins.
		for _, p := range msg.Pts {
			m.panel.UpdatePixel(p.X, p.Y, frame.RGB(p.R, p.G, p.B))
		}
		m.panel.Flush()
	case "clear":
		m.panel.ClearPanel()
	case "":
		if msg.X == nil || msg.Y == nil {
			return
		}
		px, ok := parseHexColor(msg.Color)
		if !ok {
			return
		}
		m.panel.UpdatePixel(*msg.X, *msg.Y, px)
		m.panel.Flush()
	}
}

// parseHexColor reads "#RRGGBB".
func parseHexColor(s string) (frame.Pixel, bool) {
	if len(s) != 7 || s[0] != '#' {
		return frame.Pixel{}, false
	}
	var v [3]int
	for i := 0; i < 3; i++ {
		hi, ok1 := hexNibble(s[1+i*2])
		lo, ok2 := hexNibble(s[2+i*2])
		if !ok1 || !ok2 {
			return frame.Pixel{}, false
		}
		v[i] = hi<<4 | lo
	}
	return frame.RGB(v[0], v[1], v[2]), true
}

func hexNibble(c byte) (int, bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10, true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}
