package transport

import (
	"bytes"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// USB vendor ID of the Teensy boards the panel firmware runs on.
const teensyVID = "16C0"

// SerialConfig tunes the serial link to the LED controller.
type SerialConfig struct {
	// Path is the fallback device path when discovery finds nothing.
	Path string
	Baud int
	// ReadTimeout bounds every read (ack lines, boot banner).
	ReadTimeout time.Duration
	// ReadyToken is the line the firmware prints once it can accept frames.
	// The open sequence waits for it up to ReadyWait, then proceeds anyway.
	ReadyToken string
	ReadyWait  time.Duration
}

func (c *SerialConfig) fillDefaults() {
	if c.Path == "" {
		c.Path = "/dev/ttyACM0"
	}
	if c.Baud <= 0 {
		c.Baud = 2_000_000
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 200 * time.Millisecond
	}
	if c.ReadyToken == "" {
		c.ReadyToken = "READY"
	}
	if c.ReadyWait < 0 {
		c.ReadyWait = 0
	}
}

// Serial streams frames to a serial-attached LED controller. The port is
// opened lazily and reopened after a failed open; a failed write keeps the
// handle (transient noise tolerance). All writes are mutually exclusive.
type Serial struct {
	mu   sync.Mutex
	cfg  SerialConfig
	port serial.Port

	// Seams for tests; default to the real implementations.
	openPort func(path string, mode *serial.Mode) (serial.Port, error)
	discover func() string
}

func NewSerial(cfg SerialConfig) *Serial {
	cfg.fillDefaults()
	s := &Serial{cfg: cfg}
	s.openPort = serial.Open
	s.discover = func() string { return discoverPort(cfg.Path) }
	return s
}

// discoverPort scans USB serial ports for the panel controller, falling back
// to the configured path when nothing matches.
func discoverPort(fallback string) string {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		log.Debug().Err(err).Msg("serial port enumeration failed")
		return fallback
	}
	for _, p := range ports {
		if !p.IsUSB {
			continue
		}
		if strings.EqualFold(p.VID, teensyVID) || strings.Contains(p.Product, "Teensy") {
			log.Info().Str("port", p.Name).Str("product", p.Product).Msg("LED controller found")
			return p.Name
		}
	}
	return fallback
}

// Send writes one encoded frame and reads back at most one ack line for
// logging. "No device" is a valid state: the open is retried on the next
// send and the frame is dropped meanwhile.
func (s *Serial) Send(payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.ensureOpen()
	if p == nil {
		return nil
	}
	if _, err := p.Write(payload); err != nil {
		log.Warn().Err(err).Int("bytes", len(payload)).Msg("serial write failed")
		return err
	}
	s.readAck(p)
	return nil
}

func (s *Serial) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// ensureOpen returns the open port, opening it on first use. Caller holds mu.
func (s *Serial) ensureOpen() serial.Port {
	if s.port != nil {
		return s.port
	}
	path := s.discover()
	mode := &serial.Mode{
		BaudRate: s.cfg.Baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := s.openPort(path, mode)
	if err != nil {
		log.Debug().Err(err).Str("port", path).Msg("serial open failed")
		return nil
	}
	if err := p.SetReadTimeout(s.cfg.ReadTimeout); err != nil {
		log.Debug().Err(err).Msg("serial read timeout not set")
	}
	s.drainBoot(p)
	s.port = p
	log.Info().Str("port", path).Int("baud", s.cfg.Baud).Msg("serial device opened")
	return p
}

// drainBoot discards stale boot-time output, watching for the ready token.
// Advisory only: once the window expires we proceed regardless.
func (s *Serial) drainBoot(p serial.Port) {
	if s.cfg.ReadyWait <= 0 {
		return
	}
	deadline := time.Now().Add(s.cfg.ReadyWait)
	buf := make([]byte, 256)
	var seen []byte
	for time.Now().Before(deadline) {
		n, err := p.Read(buf)
		if err != nil {
			return
		}
		if n == 0 {
			continue // read timeout tick
		}
		seen = append(seen, buf[:n]...)
		if bytes.Contains(seen, []byte(s.cfg.ReadyToken)) {
			log.Debug().Msg("device ready token seen")
			return
		}
	}
	log.Debug().Msg("ready token not seen; proceeding")
}

// readAck reads one best-effort acknowledgement line. Absence is not an
// error; the content is logged only, never validated.
func (s *Serial) readAck(p serial.Port) {
	buf := make([]byte, 128)
	n, err := p.Read(buf)
	if err != nil || n == 0 {
		return
	}
	if line := strings.TrimSpace(string(buf[:n])); line != "" {
		log.Debug().Str("ack", line).Msg("device ack")
	}
}
