package hmi

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

const lineHeight = 10 // basicfont rows on a 64px panel

// display drives the 128x64 status OLED.
type display struct {
	dev *ssd1306.Dev
	bus i2c.BusCloser
}

func openDisplay(busName string) (*display, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, err
	}
	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		_ = bus.Close()
		return nil, err
	}
	return &display{dev: dev, bus: bus}, nil
}

// render draws the menu with a cursor marker, scrolling so the cursor stays
// visible.
func (d *display) render(lines []string, cursor int) error {
	img := image1bit.NewVerticalLSB(d.dev.Bounds())
	visible := d.dev.Bounds().Dy() / lineHeight
	top := 0
	if cursor >= visible {
		top = cursor - visible + 1
	}
	row := 0
	for i := top; i < len(lines) && row < visible; i++ {
		label := lines[i]
		if i == cursor {
			label = ">" + label
		} else {
			label = " " + label
		}
		drawText(img, 0, (row+1)*lineHeight-2, label)
		row++
	}
	return d.dev.Draw(d.dev.Bounds(), img, image.Point{})
}

func (d *display) close() {
	_ = d.dev.Halt()
	_ = d.bus.Close()
}

func drawText(img *image1bit.VerticalLSB, x, y int, s string) {
	f := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.White),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	f.DrawString(s)
}
