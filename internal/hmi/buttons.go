package hmi

import (
	"context"
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// Button names the four physical inputs.
type Button string

const (
	BtnUp     Button = "up"
	BtnDown   Button = "down"
	BtnSelect Button = "select"
	BtnBack   Button = "back"
)

const debounce = 50 * time.Millisecond

// openButtons resolves the configured pins (buttons wired active-low against
// a pull-up). An unknown pin name fails the whole HMI so miswiring is loud.
func openButtons(pins map[string]string) (map[Button]gpio.PinIO, error) {
	out := map[Button]gpio.PinIO{}
	for name, pinName := range pins {
		p := gpioreg.ByName(pinName)
		if p == nil {
			return nil, fmt.Errorf("gpio pin %q not found", pinName)
		}
		if err := p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return nil, fmt.Errorf("configure %q: %w", pinName, err)
		}
		out[Button(name)] = p
	}
	return out, nil
}

// watchPin delivers debounced presses for one pin until ctx is cancelled.
// WaitForEdge uses a bounded timeout so the goroutine notices shutdown.
func watchPin(ctx context.Context, name Button, pin gpio.PinIO, events chan<- Button) {
	var lastPress time.Time
	for ctx.Err() == nil {
		if !pin.WaitForEdge(500 * time.Millisecond) {
			continue
		}
		if pin.Read() != gpio.Low {
			continue
		}
		if time.Since(lastPress) < debounce {
			continue
		}
		lastPress = time.Now()
		select {
		case events <- name:
		case <-ctx.Done():
			return
		}
	}
}
