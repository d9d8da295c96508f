// Package transport delivers encoded frames to the LED hardware. The real
// implementations own the device handle and its lifecycle; Null stands in
// when no hardware is present so the rest of the appliance keeps working.
package transport

// Transport is an LED output sink for encoded device frames.
type Transport interface {
	// Send pushes one encoded frame (header + payload). Transient delivery
	// failures are recoverable; callers log and retry on the next cycle.
	Send(payload []byte) error
	// Close releases the device handle.
	Close() error
}

// Null accepts every frame and performs no I/O. Selected at construction
// time when the appliance runs without LED hardware.
type Null struct{}

func (Null) Send([]byte) error { return nil }
func (Null) Close() error      { return nil }
