package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewFrameRLEWireShape(t *testing.T) {
	pf := PreviewFrame{
		Type: TypeFrameRLE,
		W:    2, H: 1,
		Rows: [][]Run{{{N: 2, RGB: [3]uint8{255, 0, 0}}}},
	}
	b, err := json.Marshal(pf)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"frame_rle","w":2,"h":1,"rows":[[[2,[255,0,0]]]]}`, string(b))
}

func TestPreviewDeltaWireShape(t *testing.T) {
	pf := PreviewFrame{
		Type:    TypeDelta,
		W:       2, H: 2,
		Indices: []int{3},
		RGB:     [][3]uint8{{1, 2, 3}},
	}
	b, err := json.Marshal(pf)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"delta","w":2,"h":2,"indices":[3],"rgb":[[1,2,3]]}`, string(b))
}

func TestRunJSONRoundTrip(t *testing.T) {
	in := Run{N: 17, RGB: [3]uint8{10, 20, 30}}
	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out Run
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}

func TestPreviewFrameJSONRoundTrip(t *testing.T) {
	rgb := []byte{
		1, 2, 3, 1, 2, 3,
		9, 9, 9, 0, 0, 0,
	}
	pf := ChoosePreview(nil, rgb, 0, 0, 2, 2)

	b, err := json.Marshal(pf)
	require.NoError(t, err)
	var decoded PreviewFrame
	require.NoError(t, json.Unmarshal(b, &decoded))

	replayed, err := ApplyPreview(nil, decoded)
	require.NoError(t, err)
	assert.Equal(t, rgb, replayed)
}

func TestApplyPreviewRejectsMalformed(t *testing.T) {
	_, err := ApplyPreview(nil, PreviewFrame{Type: "bogus"})
	assert.Error(t, err)

	_, err = ApplyPreview(make([]byte, 12), PreviewFrame{
		Type: TypeDelta, W: 2, H: 2,
		Indices: []int{9}, RGB: [][3]uint8{{1, 1, 1}},
	})
	assert.Error(t, err, "out-of-range delta index")

	_, err = ApplyPreview(nil, PreviewFrame{
		Type: TypeFrameRLE, W: 4, H: 1,
		Rows: [][]Run{{{N: 2, RGB: [3]uint8{0, 0, 0}}}},
	})
	assert.Error(t, err, "short rows must not decode")
}
