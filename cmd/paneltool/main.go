// paneltool is a bench utility: list candidate serial ports or push a single
// solid-color frame to the panel without starting the appliance.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.bug.st/serial/enumerator"

	"alis/internal/frame"
	"alis/internal/transport"
	"alis/internal/wire"
)

func main() {
	var (
		list       = flag.Bool("list", false, "list detected serial ports and exit")
		fill       = flag.String("fill", "", "solid color to push, e.g. #ff8800")
		port       = flag.String("port", "/dev/ttyACM0", "fallback serial port")
		baud       = flag.Int("baud", 2_000_000, "baud rate")
		w          = flag.Int("w", 16, "panel width")
		h          = flag.Int("h", 16, "panel height")
		segments   = flag.Int("segments", 1, "chained panel count")
		brightness = flag.Int("brightness", 30, "global brightness 0-255")
	)
	flag.Parse()

	if *list {
		listPorts()
		return
	}
	if *fill == "" {
		flag.Usage()
		os.Exit(2)
	}

	px, ok := parseColor(*fill)
	if !ok {
		fmt.Fprintf(os.Stderr, "bad color %q; want #RRGGBB\n", *fill)
		os.Exit(2)
	}

	tr := transport.NewSerial(transport.SerialConfig{
		Path:      *port,
		Baud:      *baud,
		ReadyWait: 1500 * time.Millisecond,
	})
	defer tr.Close()

	b := byte(*brightness)
	payload := wire.EncodeSolidFill(*w, *h, *segments, px, b)
	if err := tr.Send(payload); err != nil {
		fmt.Fprintf(os.Stderr, "send failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("sent %d bytes (%dx%dx%d, brightness %d)\n", len(payload), *w, *h, *segments, b)
}

func listPorts() {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		fmt.Fprintf(os.Stderr, "enumeration failed: %v\n", err)
		os.Exit(1)
	}
	if len(ports) == 0 {
		fmt.Println("no serial ports found")
		return
	}
	for _, p := range ports {
		if p.IsUSB {
			fmt.Printf("%s\tVID:PID=%s:%s\t%s\n", p.Name, p.VID, p.PID, p.Product)
		} else {
			fmt.Printf("%s\n", p.Name)
		}
	}
}

func parseColor(s string) (frame.Pixel, bool) {
	if len(s) != 7 || s[0] != '#' {
		return frame.Pixel{}, false
	}
	var r, g, b int
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return frame.Pixel{}, false
	}
	return frame.RGB(r, g, b), true
}
