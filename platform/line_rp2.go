//go:build rp2040 || rp2350

// RP2 line and delay providers on machine.Pin.
package platform

import (
	"errors"
	"machine"
	"time"

	"dhtprobe-go/drivers/dht22"
)

// Init is a no-op on RP2; pins need no host bootstrap.
func Init() error { return nil }

// LineByName accepts "GP<n>" or a bare pin number and parks the pin released.
func LineByName(name string) (dht22.Line, error) {
	n, ok := parsePin(name)
	if !ok {
		return nil, errors.New("platform: bad pin name " + name)
	}
	l := &mcuLine{pin: machine.Pin(n)}
	l.SetHigh()
	return l, nil
}

func parsePin(name string) (int, bool) {
	if len(name) > 2 && name[0] == 'G' && name[1] == 'P' {
		name = name[2:]
	}
	if name == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(name); i++ {
		c := name[i]
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// mcuLine emulates open-drain: output-low to drive, input-pullup to release.
type mcuLine struct {
	pin machine.Pin
}

func (l *mcuLine) SetLow() {
	l.pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	l.pin.Low()
}

func (l *mcuLine) SetHigh() {
	l.pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
}

func (l *mcuLine) IsLow() bool  { return !l.pin.Get() }
func (l *mcuLine) IsHigh() bool { return l.pin.Get() }

// Delay returns the RP2 delayer. TinyGo's timer gives sub-µs granularity on
// RP2, so a plain sleep holds the sampling offsets.
func Delay() dht22.Delayer { return mcuDelay{} }

type mcuDelay struct{}

func (mcuDelay) DelayMicros(n uint32) { time.Sleep(time.Duration(n) * time.Microsecond) }
func (mcuDelay) DelayMillis(n uint32) { time.Sleep(time.Duration(n) * time.Millisecond) }
