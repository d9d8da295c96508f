package hmi

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/host/v3"

	"alis/internal/config"
)

// HMI ties the buttons, menu and OLED together and dispatches selected
// actions by name.
type HMI struct {
	menu   *Menu
	disp   *display
	pins   map[Button]gpio.PinIO
	act    func(action string)
	events chan Button
}

// Open initializes the local interface hardware. An error means the HMI is
// unavailable; the caller logs it and runs headless.
func Open(cfg config.HMI, act func(string)) (*HMI, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	disp, err := openDisplay(cfg.I2CBus)
	if err != nil {
		return nil, fmt.Errorf("oled: %w", err)
	}
	pins, err := openButtons(cfg.Buttons)
	if err != nil {
		disp.close()
		return nil, fmt.Errorf("buttons: %w", err)
	}
	return &HMI{
		menu:   DefaultMenu(),
		disp:   disp,
		pins:   pins,
		act:    act,
		events: make(chan Button, 8),
	}, nil
}

// Run services button presses and keeps the OLED current until ctx is
// cancelled, then blanks the screen.
func (h *HMI) Run(ctx context.Context) {
	for name, pin := range h.pins {
		go watchPin(ctx, name, pin, h.events)
	}
	log.Info().Int("buttons", len(h.pins)).Msg("hmi started")

	tick := time.NewTicker(500 * time.Millisecond)
	defer tick.Stop()
	defer h.disp.close()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("hmi stopped")
			return
		case b := <-h.events:
			h.press(b)
		case <-tick.C:
		}
		if h.menu.TakeChanged() {
			lines, cursor := h.menu.Lines()
			if err := h.disp.render(lines, cursor); err != nil {
				log.Debug().Err(err).Msg("oled render failed")
			}
		}
	}
}

func (h *HMI) press(b Button) {
	switch b {
	case BtnUp:
		h.menu.Move(-1)
	case BtnDown:
		h.menu.Move(1)
	case BtnSelect:
		if action := h.menu.Select(); action != "" && h.act != nil {
			log.Info().Str("action", action).Msg("menu action")
			h.act(action)
		}
	case BtnBack:
		// Single-level menu; back just redraws.
		h.menu.Move(0)
	}
}
