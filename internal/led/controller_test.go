package led

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"alis/internal/frame"
	"alis/internal/settings"
	"alis/internal/wire"
)

type recTransport struct {
	mu     sync.Mutex
	frames [][]byte
	closed bool
}

func (r *recTransport) Send(p []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, append([]byte(nil), p...))
	return nil
}

func (r *recTransport) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

func (r *recTransport) Frames() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.frames...)
}

func (r *recTransport) waitFrames(t *testing.T, n int) [][]byte {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if f := r.Frames(); len(f) >= n {
			return f
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d frames, have %d", n, len(r.Frames()))
	return nil
}

func payloadOf(t *testing.T, f []byte) []byte {
	t.Helper()
	if len(f) < wire.HeaderLen {
		t.Fatalf("frame shorter than header: %d bytes", len(f))
	}
	return f[wire.HeaderLen:]
}

func isAllOff(t *testing.T, f []byte) bool {
	t.Helper()
	for _, b := range payloadOf(t, f) {
		if b != 0 {
			return false
		}
	}
	return true
}

func testConfig() Config {
	return Config{
		FramePeriod: 10 * time.Millisecond,
		MinPush:     time.Millisecond,
		CycleHold:   200 * time.Millisecond,
		CycleStep:   5 * time.Millisecond,
	}
}

func TestStopBeforeFirstIterationSendsSingleBlackout(t *testing.T) {
	buf := frame.New(2, 2)
	tr := &recTransport{}
	c := New(buf, tr, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c.Run(ctx)

	frames := tr.Frames()
	if len(frames) != 1 {
		t.Fatalf("expected exactly one final frame, got %d", len(frames))
	}
	if !isAllOff(t, frames[0]) {
		t.Fatalf("final frame must be all off: %v", frames[0])
	}
	if !tr.closed {
		t.Fatal("transport must be released on exit")
	}
}

func TestCancellingCycleBlanksImmediately(t *testing.T) {
	buf := frame.New(2, 2)
	tr := &recTransport{}
	c := New(buf, tr, testConfig())
	c.StartTest()

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)

	// First cycle color (red) lands well before the hold elapses.
	frames := tr.waitFrames(t, 1)
	red := bytes.Repeat([]byte{0, 255, 0}, 4) // GRB
	if !bytes.Equal(payloadOf(t, frames[0]), red) {
		t.Fatalf("first cycle frame should be solid red, got %v", frames[0])
	}

	// Cancel mid-hold: the very next frame must be the blackout.
	c.StopTest()
	frames = tr.waitFrames(t, 2)
	if !isAllOff(t, frames[1]) {
		t.Fatalf("frame after cancelling the test must be all off, got %v", frames[1])
	}

	cancel()
	<-c.Done()
}

func TestStaticModePushesFramebuffer(t *testing.T) {
	buf := frame.New(2, 1)
	buf.SetPixel(0, 0, frame.Pixel{R: 10, G: 20, B: 30})
	tr := &recTransport{}
	c := New(buf, tr, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)

	frames := tr.waitFrames(t, 1)
	want := []byte{20, 10, 30, 0, 0, 0} // GRB
	if !bytes.Equal(payloadOf(t, frames[0]), want) {
		t.Fatalf("payload = %v, want %v", payloadOf(t, frames[0]), want)
	}

	cancel()
	<-c.Done()
}

func TestDirtyMarkerTriggersEarlyPush(t *testing.T) {
	buf := frame.New(2, 1)
	tr := &recTransport{}
	cfg := testConfig()
	cfg.FramePeriod = 5 * time.Second // natural tick far away
	c := New(buf, tr, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)
	tr.waitFrames(t, 1)

	c.UpdatePixel(1, 0, frame.Pixel{R: 255})
	frames := tr.waitFrames(t, 2)
	want := []byte{0, 0, 0, 0, 255, 0} // GRB
	if !bytes.Equal(payloadOf(t, frames[1]), want) {
		t.Fatalf("early push payload = %v, want %v", payloadOf(t, frames[1]), want)
	}

	cancel()
	<-c.Done()
}

func TestBrightnessIsPolledPerSend(t *testing.T) {
	buf := frame.New(1, 1)
	tr := &recTransport{}

	var mu sync.Mutex
	cur := settings.Defaults()
	cur.LED.Brightness = 42

	cfg := testConfig()
	cfg.Settings = func() settings.Settings {
		mu.Lock()
		defer mu.Unlock()
		return cur
	}
	c := New(buf, tr, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go c.Run(ctx)

	frames := tr.waitFrames(t, 1)
	if got := frames[0][6]; got != 42 {
		t.Fatalf("brightness byte = %d, want 42", got)
	}

	mu.Lock()
	cur.LED.Brightness = 99
	mu.Unlock()
	c.Flush()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		fs := tr.Frames()
		if fs[len(fs)-1][6] == 99 {
			break
		}
		time.Sleep(2 * time.Millisecond)
	}
	fs := tr.Frames()
	if fs[len(fs)-1][6] != 99 {
		t.Fatal("brightness change never reached the wire")
	}

	cancel()
	<-c.Done()
}

func TestSetPatternValidation(t *testing.T) {
	c := New(frame.New(1, 1), &recTransport{}, testConfig())
	if c.SetPattern("sparkle") {
		t.Fatal("unknown pattern accepted")
	}
	if !c.SetPattern("draw") {
		t.Fatal("known pattern rejected")
	}
	if c.Pattern() != PatternDraw {
		t.Fatalf("pattern = %q", c.Pattern())
	}
	c.StartTest()
	if c.Pattern() != PatternCycle {
		t.Fatalf("StartTest should select %q, got %q", PatternCycle, c.Pattern())
	}
	c.StopTest()
	if c.Pattern() != PatternOff {
		t.Fatalf("StopTest should select %q, got %q", PatternOff, c.Pattern())
	}
}

func TestClearPanelIsIdempotent(t *testing.T) {
	buf := frame.New(3, 3)
	c := New(buf, &recTransport{}, testConfig())
	c.UpdatePixel(1, 1, frame.Pixel{R: 200})

	c.ClearPanel()
	once, _, _ := c.FramebufferRGB()
	c.ClearPanel()
	twice, _, _ := c.FramebufferRGB()

	if !bytes.Equal(once, twice) {
		t.Fatal("double clear must equal single clear")
	}
	for _, b := range once {
		if b != 0 {
			t.Fatal("clear must leave the panel black")
		}
	}
}
