package wire

import (
	"encoding/json"
	"errors"
)

// Preview frame type tags, as seen on the websocket.
const (
	TypeFrameRLE = "frame_rle"
	TypeDelta    = "delta"
)

// PreviewFrame is one broadcast tick's payload to remote viewers: either a
// full row-RLE frame or a sparse index/color delta. Exactly one variant is
// populated; a decoder reconstructs identical pixel state from either.
type PreviewFrame struct {
	Type    string     `json:"type"`
	W       int        `json:"w"`
	H       int        `json:"h"`
	Rows    [][]Run    `json:"rows,omitempty"`
	Indices []int      `json:"indices,omitempty"`
	RGB     [][3]uint8 `json:"rgb,omitempty"`
}

// MarshalJSON emits a run as the compact pair [n,[r,g,b]].
func (r Run) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{r.N, r.RGB})
}

func (r *Run) UnmarshalJSON(data []byte) error {
	var raw [2]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw[0], &r.N); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &r.RGB)
}

// ApplyPreview replays a preview frame onto a flat RGB buffer of w*h pixels,
// returning the updated buffer. A frame_rle replaces the whole buffer; a
// delta patches individual pixels. Used by the decoding side and by tests
// asserting the round-trip property.
func ApplyPreview(dst []byte, f PreviewFrame) ([]byte, error) {
	size := f.W * f.H * 3
	switch f.Type {
	case TypeFrameRLE:
		out := make([]byte, 0, size)
		for _, row := range f.Rows {
			for _, run := range row {
				for i := 0; i < run.N; i++ {
					out = append(out, run.RGB[0], run.RGB[1], run.RGB[2])
				}
			}
		}
		if len(out) != size {
			return nil, errors.New("rle rows do not cover the frame")
		}
		return out, nil
	case TypeDelta:
		if len(dst) != size {
			return nil, errors.New("delta applied to mismatched buffer")
		}
		if len(f.Indices) != len(f.RGB) {
			return nil, errors.New("delta indices and colors disagree")
		}
		out := make([]byte, size)
		copy(out, dst)
		for k, idx := range f.Indices {
			if idx < 0 || idx >= f.W*f.H {
				return nil, errors.New("delta index out of range")
			}
			j := idx * 3
			out[j], out[j+1], out[j+2] = f.RGB[k][0], f.RGB[k][1], f.RGB[k][2]
		}
		return out, nil
	default:
		return nil, errors.New("unknown preview frame type " + f.Type)
	}
}
