package led

import (
	"time"

	"alis/internal/frame"
)

// Pattern selects what the driver loop shows. Transitions take effect on the
// next loop tick, not synchronously.
type Pattern string

const (
	// PatternOff keeps the panel dark.
	PatternOff Pattern = "off"
	// PatternStatic sends the framebuffer as-is.
	PatternStatic Pattern = "static"
	// PatternAnimation overwrites the framebuffer with the demo animation
	// each tick before sending.
	PatternAnimation Pattern = "animation"
	// PatternDraw shows externally-drawn content; identical to static on the
	// wire but flagged so UIs can tell the modes apart.
	PatternDraw Pattern = "draw"
	// PatternCycle is the hardware test: hold red, green, blue in turn.
	PatternCycle Pattern = "rgb_cycle"
)

func ParsePattern(s string) (Pattern, bool) {
	switch p := Pattern(s); p {
	case PatternOff, PatternStatic, PatternAnimation, PatternDraw, PatternCycle:
		return p, true
	}
	return "", false
}

// cyclePalette is the ordered test palette.
var cyclePalette = []frame.Pixel{
	{R: 255},
	{G: 255},
	{B: 255},
}

// animationColor keys the demo animation off the wall clock so the step is
// deterministic for a given instant.
func animationColor(t time.Time) frame.Pixel {
	return cyclePalette[int(t.Unix())%len(cyclePalette)]
}
