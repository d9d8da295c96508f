// Package mirror keeps remote viewers' copy of the framebuffer consistent
// with bounded bandwidth, and applies pixel edits arriving from them.
package mirror

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"alis/internal/frame"
	"alis/internal/wire"
)

// Panel is the control surface the mirror drives with inbound edits.
type Panel interface {
	UpdatePixel(x, y int, px frame.Pixel)
	ClearPanel()
	Flush()
	FramebufferRGB() ([]byte, int, int)
}

// Subscriber receives encoded preview frames. A send failure drops the
// subscriber; there are no retries, most-recent-state wins.
type Subscriber interface {
	Send(msg []byte) error
	Close() error
}

// Mirror broadcasts framebuffer diffs to subscribers at a fixed cadence and
// ingests their edit messages.
type Mirror struct {
	panel Panel
	tick  time.Duration

	mu           sync.Mutex
	subs         map[Subscriber]struct{}
	lastRGB      []byte
	lastW, lastH int

	upgrader       websocket.Upgrader
	wsWriteTimeout time.Duration
}

func New(panel Panel, tick time.Duration) *Mirror {
	if tick <= 0 {
		tick = 50 * time.Millisecond // 20 Hz
	}
	return &Mirror{
		panel: panel,
		tick:  tick,
		subs:  map[Subscriber]struct{}{},
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		wsWriteTimeout: 200 * time.Millisecond,
	}
}

// Run broadcasts until ctx is cancelled, then closes every subscriber.
func (m *Mirror) Run(ctx context.Context) {
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()
	log.Info().Dur("tick", m.tick).Msg("mirror started")
	for {
		select {
		case <-ctx.Done():
			m.closeAll()
			log.Info().Msg("mirror stopped")
			return
		case <-ticker.C:
			m.broadcast()
		}
	}
}

// Subscribe registers a viewer and sends it a full sync immediately so it
// does not wait for the next delta-bearing tick.
func (m *Mirror) Subscribe(s Subscriber) {
	rgb, w, h := m.panel.FramebufferRGB()
	full := wire.ChoosePreview(nil, rgb, 0, 0, w, h)
	if msg, err := json.Marshal(full); err == nil {
		if err := s.Send(msg); err != nil {
			_ = s.Close()
			return
		}
	}
	m.mu.Lock()
	m.subs[s] = struct{}{}
	n := len(m.subs)
	m.mu.Unlock()
	log.Debug().Int("viewers", n).Msg("viewer subscribed")
}

func (m *Mirror) Unsubscribe(s Subscriber) {
	m.mu.Lock()
	_, ok := m.subs[s]
	delete(m.subs, s)
	m.mu.Unlock()
	if ok {
		_ = s.Close()
	}
}

// Subscribers reports the current viewer count.
func (m *Mirror) Subscribers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.subs)
}

// broadcast runs one tick: skip entirely with no viewers, otherwise snapshot,
// diff against the last-sent frame, encode once and fan out. The last-sent
// snapshot advances after a successful encode regardless of per-viewer
// delivery outcome.
func (m *Mirror) broadcast() {
	m.mu.Lock()
	if len(m.subs) == 0 {
		m.mu.Unlock()
		return
	}
	targets := make([]Subscriber, 0, len(m.subs))
	for s := range m.subs {
		targets = append(targets, s)
	}
	m.mu.Unlock()

	rgb, w, h := m.panel.FramebufferRGB()
	pf := wire.ChoosePreview(m.lastRGB, rgb, m.lastW, m.lastH, w, h)
	msg, err := json.Marshal(pf)
	if err != nil {
		log.Warn().Err(err).Msg("preview encode failed")
		return
	}
	m.lastRGB, m.lastW, m.lastH = rgb, w, h

	for _, s := range targets {
		if err := s.Send(msg); err != nil {
			// One bad connection must never block the others.
			log.Debug().Err(err).Msg("viewer dropped")
			m.Unsubscribe(s)
		}
	}
}

func (m *Mirror) closeAll() {
	m.mu.Lock()
	subs := m.subs
	m.subs = map[Subscriber]struct{}{}
	m.mu.Unlock()
	for s := range subs {
		_ = s.Close()
	}
}

// wsSubscriber adapts a websocket connection, bounding each write.
type wsSubscriber struct {
	conn    *websocket.Conn
	timeout time.Duration
}

func (w *wsSubscriber) Send(msg []byte) error {
	_ = w.conn.SetWriteDeadline(time.Now().Add(w.timeout))
	return w.conn.WriteMessage(websocket.TextMessage, msg)
}

func (w *wsSubscriber) Close() error {
	return w.conn.Close()
}

// ServeWS upgrades an HTTP request into a viewer connection: outbound
// preview frames plus an inbound read loop feeding HandleMessage.
func (m *Mirror) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := m.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	sub := &wsSubscriber{conn: conn, timeout: m.wsWriteTimeout}
	m.Subscribe(sub)
	go func() {
		defer m.Unsubscribe(sub)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			m.HandleMessage(data)
		}
	}()
}
