package transport

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/nrzled"
	"periph.io/x/host/v3"
)

// SPI drives a WS2812B strip wired straight to the SoC's SPI pins, the
// simpler hardware variant without a serial-attached controller. It speaks
// the same encoded frame as Serial and unpacks it locally: the header's
// brightness byte is applied in software since there is no firmware to do
// the global scaling.
type SPI struct {
	mu    sync.Mutex
	dev   *nrzled.Dev
	port  spi.PortCloser
	count int
	rgb   []byte // reused conversion buffer
}

// NewSPI opens the named SPI port ("" picks the first registered one) for a
// strip of count pixels.
func NewSPI(portName string, count int) (*SPI, error) {
	if count <= 0 {
		return nil, fmt.Errorf("invalid pixel count: %d", count)
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("host init: %w", err)
	}
	p, err := spireg.Open(portName)
	if err != nil {
		return nil, fmt.Errorf("open spi: %w", err)
	}
	dev, err := nrzled.NewSPI(p, &nrzled.Opts{
		NumPixels: count,
		Channels:  3,
		Freq:      2500 * physic.KiloHertz,
	})
	if err != nil {
		_ = p.Close()
		return nil, fmt.Errorf("nrzled: %w", err)
	}
	return &SPI{dev: dev, port: p, count: count, rgb: make([]byte, count*3)}, nil
}

func (s *SPI) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(payload) < 7 {
		return fmt.Errorf("frame shorter than header: %d bytes", len(payload))
	}
	count := int(payload[4]) | int(payload[5])<<8
	brightness := payload[6]
	grb := payload[7:]
	if count != s.count || len(grb) != count*3 {
		return fmt.Errorf("frame holds %d pixels, strip has %d", count, s.count)
	}
	for i := 0; i < len(grb); i += 3 {
		s.rgb[i] = scale(grb[i+1], brightness)
		s.rgb[i+1] = scale(grb[i], brightness)
		s.rgb[i+2] = scale(grb[i+2], brightness)
	}
	if _, err := s.dev.Write(s.rgb); err != nil {
		log.Warn().Err(err).Msg("spi write failed")
		return err
	}
	return nil
}

func (s *SPI) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	_ = s.dev.Halt()
	err := s.port.Close()
	s.port = nil
	return err
}

func scale(v, brightness byte) byte {
	return byte(uint16(v) * uint16(brightness) / 255)
}
