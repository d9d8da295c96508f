package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"alis/internal/frame"
)

func TestEncodeDeviceFrameHeader(t *testing.T) {
	grb := make([]byte, 300*3)
	out := EncodeDeviceFrame(grb, 77)

	require.Len(t, out, HeaderLen+len(grb))
	assert.Equal(t, []byte{0xAB, 0xCD, 0xF1, 0x00}, out[:4])
	assert.Equal(t, byte(0x2C), out[4], "pixel count low byte")
	assert.Equal(t, byte(0x01), out[5], "pixel count high byte")
	assert.Equal(t, byte(77), out[6])
}

func TestEncodeDeviceFrameLengths(t *testing.T) {
	for _, count := range []int{1, 16, 256, 1024} {
		out := EncodeDeviceFrame(make([]byte, count*3), 0)
		require.Len(t, out, HeaderLen+count*3)
		assert.Equal(t, count, int(out[4])|int(out[5])<<8)
	}
}

func TestEncodeSolidFill(t *testing.T) {
	out := EncodeSolidFill(2, 2, 2, frame.Pixel{R: 1, G: 2, B: 3}, 50)

	require.Len(t, out, HeaderLen+8*3)
	assert.Equal(t, 8, int(out[4])|int(out[5])<<8)
	for i := HeaderLen; i < len(out); i += 3 {
		// GRB on the wire.
		require.Equal(t, []byte{2, 1, 3}, out[i:i+3])
	}
}

func TestDiffIndicesExact(t *testing.T) {
	old := []byte{0, 0, 0, 1, 1, 1, 2, 2, 2}
	cur := []byte{0, 0, 0, 9, 1, 1, 2, 2, 2}
	assert.Equal(t, []int{1}, DiffIndices(old, cur))

	cur[8] = 99
	assert.Equal(t, []int{1, 2}, DiffIndices(old, cur))

	assert.Nil(t, DiffIndices(old, old))
}

func TestDiffIndicesSizeMismatch(t *testing.T) {
	old := make([]byte, 2*3)
	cur := make([]byte, 4*3)
	assert.Equal(t, []int{0, 1, 2, 3}, DiffIndices(old, cur))
}

func TestEncodeRLERowsRoundTrip(t *testing.T) {
	cases := map[string]struct {
		w, h int
		fill func(rgb []byte)
	}{
		"all one color": {4, 4, func(rgb []byte) {
			for i := range rgb {
				rgb[i] = 42
			}
		}},
		"all distinct": {8, 2, func(rgb []byte) {
			for i := 0; i < len(rgb); i += 3 {
				rgb[i] = byte(i)
			}
		}},
		"long row forces run cap": {300, 1, func(rgb []byte) {}},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			rgb := make([]byte, tc.w*tc.h*3)
			tc.fill(rgb)

			rows := EncodeRLERows(rgb, tc.w, tc.h)
			require.Len(t, rows, tc.h)
			for _, row := range rows {
				width := 0
				for _, run := range row {
					require.LessOrEqual(t, run.N, MaxRun)
					require.Positive(t, run.N)
					width += run.N
				}
				assert.Equal(t, tc.w, width, "runs must cover the full row")
			}

			decoded, err := ApplyPreview(nil, PreviewFrame{Type: TypeFrameRLE, W: tc.w, H: tc.h, Rows: rows})
			require.NoError(t, err)
			assert.Equal(t, rgb, decoded)
		})
	}
}

func TestRunCapSplitsUniformRow(t *testing.T) {
	rows := EncodeRLERows(make([]byte, 300*3), 300, 1)
	require.Len(t, rows[0], 2)
	assert.Equal(t, 255, rows[0][0].N)
	assert.Equal(t, 45, rows[0][1].N)
}

func TestChoosePreviewSelection(t *testing.T) {
	const w, h = 10, 10
	base := make([]byte, w*h*3)

	t.Run("first frame is full RLE", func(t *testing.T) {
		pf := ChoosePreview(nil, base, 0, 0, w, h)
		assert.Equal(t, TypeFrameRLE, pf.Type)
	})

	t.Run("no change is full RLE", func(t *testing.T) {
		pf := ChoosePreview(base, base, w, h, w, h)
		assert.Equal(t, TypeFrameRLE, pf.Type)
	})

	t.Run("small change is delta", func(t *testing.T) {
		cur := append([]byte(nil), base...)
		cur[0] = 255
		pf := ChoosePreview(base, cur, w, h, w, h)
		require.Equal(t, TypeDelta, pf.Type)
		assert.Equal(t, []int{0}, pf.Indices)
		assert.Equal(t, [3]uint8{255, 0, 0}, pf.RGB[0])
	})

	t.Run("change at threshold is full RLE", func(t *testing.T) {
		cur := append([]byte(nil), base...)
		for i := 0; i < 40; i++ { // exactly 40% of 100 pixels
			cur[i*3] = 1
		}
		pf := ChoosePreview(base, cur, w, h, w, h)
		assert.Equal(t, TypeFrameRLE, pf.Type)
	})

	t.Run("change below threshold is delta", func(t *testing.T) {
		cur := append([]byte(nil), base...)
		for i := 0; i < 39; i++ {
			cur[i*3] = 1
		}
		pf := ChoosePreview(base, cur, w, h, w, h)
		assert.Equal(t, TypeDelta, pf.Type)
	})

	t.Run("resize is full RLE", func(t *testing.T) {
		pf := ChoosePreview(base, make([]byte, 5*5*3), w, h, 5, 5)
		assert.Equal(t, TypeFrameRLE, pf.Type)
	})
}

// The 2x2 scenario: all black, then one pixel set to red.
func TestSinglePixelEditScenario(t *testing.T) {
	old := make([]byte, 2*2*3)
	cur := append([]byte(nil), old...)
	cur[0], cur[1], cur[2] = 255, 0, 0

	assert.Equal(t, []int{0}, DiffIndices(old, cur))

	rows := EncodeRLERows(cur, 2, 2)
	require.Len(t, rows[0], 2, "affected row splits into two runs")
	assert.Equal(t, Run{N: 1, RGB: [3]uint8{255, 0, 0}}, rows[0][0])
	assert.Equal(t, Run{N: 1, RGB: [3]uint8{0, 0, 0}}, rows[0][1])
	require.Len(t, rows[1], 1, "untouched row stays one run")
	assert.Equal(t, Run{N: 2, RGB: [3]uint8{0, 0, 0}}, rows[1][0])
}

func TestDeltaRoundTrip(t *testing.T) {
	const w, h = 4, 4
	old := make([]byte, w*h*3)
	cur := append([]byte(nil), old...)
	cur[5*3], cur[5*3+1], cur[5*3+2] = 9, 8, 7

	pf := ChoosePreview(old, cur, w, h, w, h)
	require.Equal(t, TypeDelta, pf.Type)

	patched, err := ApplyPreview(old, pf)
	require.NoError(t, err)
	assert.Equal(t, cur, patched)
}
