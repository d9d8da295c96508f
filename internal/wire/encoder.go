// Package wire holds the pure encoding functions: the binary device frame
// format spoken over serial, and the JSON preview frames mirrored to web
// clients.
package wire

import "alis/internal/frame"

// Device frame header: 0xAB 0xCD 0xF1 0x00 <countLo> <countHi> <brightness>,
// followed by count*3 payload bytes in GRB order.
const (
	sync0    = 0xAB
	sync1    = 0xCD
	cmdFrame = 0xF1

	HeaderLen = 7

	// MaxRun is the longest run the row encoding can express; a run boundary
	// is forced here even if the color continues.
	MaxRun = 255
)

// DeltaThreshold is the changed-pixel fraction above which a full RLE frame
// is cheaper than a sparse delta. Tunable, not a wire contract.
const DeltaThreshold = 0.4

// EncodeDeviceFrame wraps a GRB payload in the device header. Pixel count is
// written little-endian across two bytes; brightness is a global scale the
// controller firmware applies on top of per-pixel values.
func EncodeDeviceFrame(grb []byte, brightness byte) []byte {
	count := len(grb) / 3
	out := make([]byte, 0, HeaderLen+len(grb))
	out = append(out, sync0, sync1, cmdFrame, 0x00, byte(count&0xFF), byte(count>>8&0xFF), brightness)
	return append(out, grb...)
}

// EncodeSolidFill builds a complete device frame holding one color repeated
// w*h*segments times. Used by test patterns that never touch the framebuffer.
func EncodeSolidFill(w, h, segments int, c frame.Pixel, brightness byte) []byte {
	count := w * h * segments
	grb := make([]byte, 0, count*3)
	for i := 0; i < count; i++ {
		grb = append(grb, c.G, c.R, c.B)
	}
	return EncodeDeviceFrame(grb, brightness)
}

// DiffIndices returns every pixel index whose RGB triplet differs between the
// two buffers. Mismatched lengths (a resize) mean every pixel of the new
// buffer counts as changed.
func DiffIndices(old, new []byte) []int {
	n := len(new) / 3
	if len(old) != len(new) {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	var out []int
	for i := 0; i < n; i++ {
		j := i * 3
		if old[j] != new[j] || old[j+1] != new[j+1] || old[j+2] != new[j+2] {
			out = append(out, i)
		}
	}
	return out
}

// Run is one horizontal stretch of identical color within a row.
type Run struct {
	N   int
	RGB [3]uint8
}

// EncodeRLERows collapses each row into greedy runs of identical color. Runs
// cover the full row width with no gaps; a run never exceeds MaxRun so its
// length fits one byte on compact decoders.
func EncodeRLERows(rgb []byte, w, h int) [][]Run {
	rows := make([][]Run, h)
	for y := 0; y < h; y++ {
		var runs []Run
		base := y * w * 3
		for x := 0; x < w; {
			j := base + x*3
			cur := [3]uint8{rgb[j], rgb[j+1], rgb[j+2]}
			n := 1
			for x+n < w && n < MaxRun {
				k := base + (x+n)*3
				if rgb[k] != cur[0] || rgb[k+1] != cur[1] || rgb[k+2] != cur[2] {
					break
				}
				n++
			}
			runs = append(runs, Run{N: n, RGB: cur})
			x += n
		}
		rows[y] = runs
	}
	return rows
}

// ChoosePreview picks the cheaper preview encoding for the current snapshot.
// A sparse delta is used only when the previous frame has identical
// dimensions and strictly between zero and DeltaThreshold of the pixels
// changed; everything else (first frame, resize, repaint, no change with a
// fresh subscriber) falls back to the full RLE frame. Deterministic for
// identical inputs.
func ChoosePreview(prev, cur []byte, prevW, prevH, w, h int) PreviewFrame {
	if prev != nil && prevW == w && prevH == h {
		changed := DiffIndices(prev, cur)
		total := w * h
		if n := len(changed); n > 0 && float64(n) < DeltaThreshold*float64(total) {
			pf := PreviewFrame{Type: TypeDelta, W: w, H: h, Indices: changed}
			pf.RGB = make([][3]uint8, n)
			for k, idx := range changed {
				j := idx * 3
				pf.RGB[k] = [3]uint8{cur[j], cur[j+1], cur[j+2]}
			}
			return pf
		}
	}
	return PreviewFrame{Type: TypeFrameRLE, W: w, H: h, Rows: EncodeRLERows(cur, w, h)}
}
