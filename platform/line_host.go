//go:build !rp2040 && !rp2350

// Host-side line and delay providers backed by periph.io.
package platform

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"dhtprobe-go/drivers/dht22"
)

// Init loads the periph host drivers. Call once before LineByName.
func Init() error {
	_, err := host.Init()
	return err
}

// LineByName resolves a periph pin (e.g. "GPIO4") and parks it released.
func LineByName(name string) (dht22.Line, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("platform: unknown pin %q", name)
	}
	if err := pin.In(gpio.PullUp, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("platform: release pin %q: %v", name, err)
	}
	return &hostLine{pin: pin}, nil
}

// hostLine emulates an open-drain line on a push-pull GPIO: driving low is
// an output-low, releasing is a switch to input with the pull-up engaged so
// the sensor can drive the level.
type hostLine struct {
	pin gpio.PinIO
}

func (l *hostLine) SetLow()  { _ = l.pin.Out(gpio.Low) }
func (l *hostLine) SetHigh() { _ = l.pin.In(gpio.PullUp, gpio.NoEdge) }

func (l *hostLine) IsLow() bool  { return l.pin.Read() == gpio.Low }
func (l *hostLine) IsHigh() bool { return l.pin.Read() == gpio.High }

// Delay returns the host delayer.
func Delay() dht22.Delayer { return hostDelay{} }

// hostDelay busy-waits below one millisecond: a scheduler sleep at µs scale
// overshoots by orders of magnitude on a general-purpose kernel, which
// would push every bit sample past its pulse.
type hostDelay struct{}

func (hostDelay) DelayMicros(n uint32) {
	d := time.Duration(n) * time.Microsecond
	if d >= time.Millisecond {
		time.Sleep(d)
		return
	}
	start := time.Now()
	for time.Since(start) < d {
	}
}

func (hostDelay) DelayMillis(n uint32) {
	time.Sleep(time.Duration(n) * time.Millisecond)
}
