// Package led runs the frame-delivery worker: it owns pattern selection,
// pulls frames from the shared framebuffer, rate-limits delivery and
// guarantees the strip is blanked on shutdown.
package led

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"alis/internal/frame"
	"alis/internal/settings"
	"alis/internal/transport"
	"alis/internal/wire"
)

const defaultBrightness = 30

// Config tunes the driver loop.
type Config struct {
	// FramePeriod is the natural send cadence in free-running modes.
	FramePeriod time.Duration
	// MinPush bounds how closely a dirty-triggered early push may follow the
	// previous send, so a flood of edits cannot overrun the transport.
	MinPush time.Duration
	// CycleHold is how long each test color stays lit.
	CycleHold time.Duration
	// CycleStep is the sub-sleep granularity inside holds and idle waits;
	// shutdown latency is bounded by it, not by CycleHold.
	CycleStep time.Duration
	// Segments multiplies the panel size for chained identical panels.
	Segments int
	// Settings is polled for brightness before every send, never cached.
	Settings func() settings.Settings
}

func (c *Config) fillDefaults() {
	if c.FramePeriod <= 0 {
		c.FramePeriod = 50 * time.Millisecond
	}
	if c.MinPush <= 0 {
		c.MinPush = 20 * time.Millisecond
	}
	if c.CycleHold <= 0 {
		c.CycleHold = time.Second
	}
	if c.CycleStep <= 0 {
		c.CycleStep = 20 * time.Millisecond
	}
	if c.Segments <= 0 {
		c.Segments = 1
	}
}

// Controller is the LED driver worker plus the control surface the menu and
// web layers call. Construct with New, then run the loop with Run.
type Controller struct {
	cfg Config
	buf *frame.Buffer
	tr  transport.Transport

	mu      sync.Mutex
	pattern Pattern

	done chan struct{}
}

func New(buf *frame.Buffer, tr transport.Transport, cfg Config) *Controller {
	cfg.fillDefaults()
	return &Controller{
		cfg:     cfg,
		buf:     buf,
		tr:      tr,
		pattern: PatternStatic,
		done:    make(chan struct{}),
	}
}

// Run drives the loop until ctx is cancelled. The final all-off frame and
// the transport release happen on every exit path.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.done)
	defer c.shutdown()

	w, h := c.buf.Size()
	log.Info().Int("w", w).Int("h", h).Str("pattern", string(c.Pattern())).Msg("led driver started")

	var lastPush time.Time
	wasCycle := false
	for ctx.Err() == nil {
		p := c.Pattern()
		if wasCycle && p != PatternCycle {
			// A cancelled test must not leave LEDs lit until the next tick.
			c.sendSolid(frame.Black)
		}
		wasCycle = p == PatternCycle

		switch p {
		case PatternCycle:
			c.runCycle(ctx)
		case PatternOff:
			sleepCtx(ctx, c.cfg.CycleStep)
		default: // static, animation, draw
			if p == PatternAnimation {
				c.buf.Fill(animationColor(time.Now()))
			}
			c.push(ctx, &lastPush)
			c.waitNext(ctx)
		}
	}
}

// Done is closed once Run has sent the final blackout and released the
// transport.
func (c *Controller) Done() <-chan struct{} {
	return c.done
}

// runCycle walks the test palette once, holding each color for CycleHold.
// Pattern changes and shutdown interrupt within one CycleStep.
func (c *Controller) runCycle(ctx context.Context) {
	for _, col := range cyclePalette {
		if ctx.Err() != nil || c.Pattern() != PatternCycle {
			return
		}
		c.sendSolid(col)
		held := time.Duration(0)
		for held < c.cfg.CycleHold {
			if !sleepCtx(ctx, c.cfg.CycleStep) || c.Pattern() != PatternCycle {
				return
			}
			held += c.cfg.CycleStep
		}
	}
}

// push encodes and sends the current framebuffer, honoring the minimum
// spacing since the previous send. A failed send is logged and the loop
// keeps running.
func (c *Controller) push(ctx context.Context, lastPush *time.Time) {
	if wait := c.cfg.MinPush - time.Since(*lastPush); wait > 0 {
		if !sleepCtx(ctx, wait) {
			return
		}
	}
	c.buf.ClearDirty()
	grb := c.buf.SnapshotGRB()
	if err := c.tr.Send(wire.EncodeDeviceFrame(grb, c.brightness())); err != nil {
		log.Warn().Err(err).Msg("frame send failed")
	}
	*lastPush = time.Now()
}

// waitNext sleeps until the next frame period, waking early when the
// framebuffer is marked dirty.
func (c *Controller) waitNext(ctx context.Context) {
	t := time.NewTimer(c.cfg.FramePeriod)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	case <-c.buf.Dirty():
	}
}

func (c *Controller) sendSolid(col frame.Pixel) {
	w, h := c.buf.Size()
	payload := wire.EncodeSolidFill(w, h, c.cfg.Segments, col, c.brightness())
	if err := c.tr.Send(payload); err != nil {
		log.Warn().Err(err).Msg("solid fill send failed")
	}
}

func (c *Controller) shutdown() {
	c.sendSolid(frame.Black)
	if err := c.tr.Close(); err != nil {
		log.Debug().Err(err).Msg("transport close failed")
	}
	log.Info().Msg("led driver stopped")
}

func (c *Controller) brightness() byte {
	if c.cfg.Settings == nil {
		return defaultBrightness
	}
	b := c.cfg.Settings().LED.Brightness
	if b < 0 {
		return 0
	}
	if b > 255 {
		return 255
	}
	return byte(b)
}

// ---- control surface ----

func (c *Controller) Pattern() Pattern {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pattern
}

// SetPattern switches the driver mode; unknown names are rejected. Takes
// effect on the next loop tick.
func (c *Controller) SetPattern(name string) bool {
	p, ok := ParsePattern(name)
	if !ok {
		return false
	}
	c.mu.Lock()
	c.pattern = p
	c.mu.Unlock()
	c.buf.MarkDirty() // wake the loop so the transition lands promptly
	return true
}

// StartTest begins the RGB cycle test pattern.
func (c *Controller) StartTest() {
	c.SetPattern(string(PatternCycle))
}

// StopTest cancels any active pattern and darkens the panel.
func (c *Controller) StopTest() {
	c.SetPattern(string(PatternOff))
}

// UpdatePixel writes one framebuffer pixel. Out-of-range writes are no-ops.
func (c *Controller) UpdatePixel(x, y int, px frame.Pixel) {
	c.buf.SetPixel(x, y, px)
}

// ClearPanel fills the framebuffer with black.
func (c *Controller) ClearPanel() {
	c.buf.Fill(frame.Black)
}

// Flush requests that the current framebuffer be pushed as soon as the
// minimum spacing allows.
func (c *Controller) Flush() {
	c.buf.MarkDirty()
}

// FramebufferRGB returns a consistent snapshot for preview and broadcast.
func (c *Controller) FramebufferRGB() ([]byte, int, int) {
	return c.buf.SnapshotRGB()
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
