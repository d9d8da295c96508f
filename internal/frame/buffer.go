// Package frame holds the shared framebuffer: the single source of truth
// for what the panel should currently be showing.
package frame

import "sync"

// Pixel is one RGB color value. No alpha.
type Pixel struct {
	R, G, B uint8
}

var Black = Pixel{}

// RGB builds a Pixel from untrusted int channels, clamping each to [0,255].
func RGB(r, g, b int) Pixel {
	return Pixel{clamp8(r), clamp8(g), clamp8(b)}
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Buffer is a fixed-size W×H grid of pixels, row-major. Every access takes
// one exclusive critical section so readers never observe a torn frame.
// Dimensions are fixed for the process lifetime.
type Buffer struct {
	mu    sync.Mutex
	w, h  int
	rgb   []byte // 3 bytes per pixel, row-major
	dirty chan struct{}
}

func New(w, h int) *Buffer {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Buffer{
		w:     w,
		h:     h,
		rgb:   make([]byte, w*h*3),
		dirty: make(chan struct{}, 1),
	}
}

// Size returns the fixed grid dimensions.
func (b *Buffer) Size() (w, h int) {
	return b.w, b.h
}

// SetPixel writes one pixel. Out-of-range coordinates are silently ignored:
// producers include untrusted remote clients.
func (b *Buffer) SetPixel(x, y int, c Pixel) {
	if x < 0 || x >= b.w || y < 0 || y >= b.h {
		return
	}
	b.mu.Lock()
	i := (y*b.w + x) * 3
	b.rgb[i], b.rgb[i+1], b.rgb[i+2] = c.R, c.G, c.B
	b.mu.Unlock()
	b.MarkDirty()
}

// Fill sets every pixel to c.
func (b *Buffer) Fill(c Pixel) {
	b.mu.Lock()
	for i := 0; i < len(b.rgb); i += 3 {
		b.rgb[i], b.rgb[i+1], b.rgb[i+2] = c.R, c.G, c.B
	}
	b.mu.Unlock()
	b.MarkDirty()
}

// SnapshotRGB returns a copy of the framebuffer as flat RGB bytes plus the
// grid dimensions. The copy is taken under the write lock.
func (b *Buffer) SnapshotRGB() (rgb []byte, w, h int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.rgb))
	copy(out, b.rgb)
	return out, b.w, b.h
}

// SnapshotGRB returns the hardware-order payload: the same locked read as
// SnapshotRGB with green and red swapped per pixel.
func (b *Buffer) SnapshotGRB() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]byte, len(b.rgb))
	for i := 0; i < len(b.rgb); i += 3 {
		out[i] = b.rgb[i+1]
		out[i+1] = b.rgb[i]
		out[i+2] = b.rgb[i+2]
	}
	return out
}

// Dirty exposes the wake channel: a buffered signal set by any mutation.
// It lets the LED driver push sooner than its next natural tick; the
// periodic push happens regardless, so this is not a correctness mechanism.
func (b *Buffer) Dirty() <-chan struct{} {
	return b.dirty
}

// MarkDirty raises the dirty signal without touching pixels (flush request).
func (b *Buffer) MarkDirty() {
	select {
	case b.dirty <- struct{}{}:
	default:
	}
}

// ClearDirty drains a pending dirty signal, if any.
func (b *Buffer) ClearDirty() {
	select {
	case <-b.dirty:
	default:
	}
}
