package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetPixelReflectsInSnapshot(t *testing.T) {
	b := New(4, 3)
	b.SetPixel(2, 1, Pixel{R: 10, G: 20, B: 30})

	rgb, w, h := b.SnapshotRGB()
	require.Equal(t, 4, w)
	require.Equal(t, 3, h)
	off := (1*4 + 2) * 3
	assert.Equal(t, []byte{10, 20, 30}, rgb[off:off+3])
}

func TestRGBClampsChannels(t *testing.T) {
	px := RGB(-5, 300, 128)
	assert.Equal(t, Pixel{R: 0, G: 255, B: 128}, px)
}

func TestOutOfRangeWriteIsNoOp(t *testing.T) {
	b := New(2, 2)
	b.SetPixel(0, 0, Pixel{R: 1, G: 2, B: 3})
	before, _, _ := b.SnapshotRGB()

	for _, c := range [][2]int{{-1, 0}, {0, -1}, {2, 0}, {0, 2}, {99, 99}} {
		b.SetPixel(c[0], c[1], Pixel{R: 255, G: 255, B: 255})
	}

	after, _, _ := b.SnapshotRGB()
	assert.Equal(t, before, after)
}

func TestFillSetsEveryPixel(t *testing.T) {
	b := New(3, 2)
	b.Fill(Pixel{R: 7, G: 8, B: 9})
	rgb, _, _ := b.SnapshotRGB()
	for i := 0; i < len(rgb); i += 3 {
		require.Equal(t, []byte{7, 8, 9}, rgb[i:i+3])
	}
}

func TestSnapshotGRBReordersChannels(t *testing.T) {
	b := New(2, 1)
	b.SetPixel(0, 0, Pixel{R: 1, G: 2, B: 3})
	b.SetPixel(1, 0, Pixel{R: 4, G: 5, B: 6})
	assert.Equal(t, []byte{2, 1, 3, 5, 4, 6}, b.SnapshotGRB())
}

func TestDirtySignal(t *testing.T) {
	b := New(2, 2)

	select {
	case <-b.Dirty():
		t.Fatal("fresh buffer should not be dirty")
	default:
	}

	b.SetPixel(0, 0, Pixel{R: 1})
	select {
	case <-b.Dirty():
	default:
		t.Fatal("write should raise the dirty signal")
	}

	// The signal is level-like: repeated marks coalesce into one.
	b.MarkDirty()
	b.MarkDirty()
	b.ClearDirty()
	select {
	case <-b.Dirty():
		t.Fatal("ClearDirty should drain the signal")
	default:
	}

	// Out-of-range writes never mark dirty.
	b.SetPixel(-1, -1, Pixel{R: 9})
	select {
	case <-b.Dirty():
		t.Fatal("ignored write should not mark dirty")
	default:
	}
}
