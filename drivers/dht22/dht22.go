// Package dht22 decodes the single-wire timing protocol of the DHT22
// (AM2302) humidity/temperature sensor.
//
// One read cycle on the shared line:
//
//	host:   18 ms low start pulse, then release and hold 48 µs
//	sensor: acknowledgement, ~80 µs low then ~80 µs high
//	sensor: 40 data bits; each bit is ~50 µs low followed by a high pulse
//	        whose width encodes the value (26–28 µs = 0, ~70 µs = 1)
//
// Bits are recovered by fixed-offset sampling, not by measuring pulse
// widths: after each rising edge the decoder sleeps SampleOffsetMicros and
// samples the line once. A "0" pulse has already fallen by the sample
// point; a "1" pulse is still high. The margin between the two pulse
// classes (~2–42 µs around the 30 µs offset) is a hardware tolerance the
// protocol guarantees, so callers must not shrink it when retuning.
//
// The five bytes arrive most-significant-bit first: humidity high/low,
// temperature high/low, checksum.
//
// All waiting is bounded busy-polling. The line has no edge-notification
// mechanism, so every wait carries an explicit iteration ceiling; a missing
// or disconnected sensor costs at most PollBudget×PollStepMicros per wait.
package dht22

import (
	"errors"
)

// Line is one open-drain GPIO line. SetHigh releases the line: the pull
// bias, not the host, drives it high, so the sensor can take it over.
type Line interface {
	SetLow()
	SetHigh()
	IsLow() bool
	IsHigh() bool
}

// Delayer provides blocking delays. The decoder is strictly sequential and
// has no asynchronous suspension primitive.
type Delayer interface {
	DelayMicros(n uint32)
	DelayMillis(n uint32)
}

// Protocol timing defaults. These are configuration, not magic numbers;
// see Config for retuning per target clock speed.
const (
	DefaultPollBudget         = 10_000 // failed level checks per wait (~10 ms worst case)
	DefaultPollStepMicros     = 1
	DefaultSampleOffsetMicros = 30
	DefaultStartPulseMillis   = 18
	DefaultReleaseHoldMicros  = 48
)

// Errors returned by the decoder. These are the only two failure modes:
// both abort the in-progress read and are recoverable by the next cycle.
var (
	ErrTimeout  = errors.New("dht22: timeout")
	ErrChecksum = errors.New("dht22: checksum mismatch")
)

// Config controls decoder timing. All fields are optional; zero values take
// the protocol defaults above.
type Config struct {
	// PollBudget is the number of failed level checks before a wait gives
	// up with ErrTimeout. The budget is exact: the decoder fails no
	// earlier and no later.
	PollBudget int
	// PollStepMicros is the sleep between level checks.
	PollStepMicros uint32
	// SampleOffsetMicros is the delay between a bit's rising edge and the
	// single sample that decides its value.
	SampleOffsetMicros uint32
	// StartPulseMillis is the host-driven low period that starts a cycle.
	StartPulseMillis uint32
	// ReleaseHoldMicros is the high hold after the start pulse, before the
	// sensor's acknowledgement is awaited.
	ReleaseHoldMicros uint32
}

// Device decodes frames from one sensor on one exclusively-owned line.
// It owns the line for the full duration of a read; between reads the line
// is idle and may be observed by anyone.
type Device struct {
	line  Line
	delay Delayer
	cfg   Config
}

// New creates a device on the given line. The line's pull configuration is
// a peripheral-setup concern; the decoder only drives low and releases.
func New(line Line, delay Delayer) Device {
	return Device{line: line, delay: delay}
}

// Configure applies optional timing config. It may be called with no cfg to
// install the protocol defaults; Read and ReadFrame call it lazily if needed.
func (d *Device) Configure(cfgs ...Config) {
	var c Config
	if len(cfgs) > 0 {
		c = cfgs[0]
	}
	if c.PollBudget <= 0 {
		c.PollBudget = DefaultPollBudget
	}
	if c.PollStepMicros == 0 {
		c.PollStepMicros = DefaultPollStepMicros
	}
	if c.SampleOffsetMicros == 0 {
		c.SampleOffsetMicros = DefaultSampleOffsetMicros
	}
	if c.StartPulseMillis == 0 {
		c.StartPulseMillis = DefaultStartPulseMillis
	}
	if c.ReleaseHoldMicros == 0 {
		c.ReleaseHoldMicros = DefaultReleaseHoldMicros
	}
	d.cfg = c
}

// Frame is one complete 40-bit transmission. It is only ever constructed
// fully: a timeout mid-frame discards everything read so far.
type Frame [5]byte

func (f Frame) RawHumidity() uint16 {
	return uint16(f[0])<<8 | uint16(f[1])
}

func (f Frame) RawTemperature() uint16 {
	return uint16(f[2])<<8 | uint16(f[3])
}

func (f Frame) Checksum() byte { return f[4] }

// Sum is the wraparound sum of the four data bytes, the value the checksum
// byte must match.
func (f Frame) Sum() byte {
	return f[0] + f[1] + f[2] + f[3]
}

func (f Frame) ChecksumOK() bool { return f.Sum() == f[4] }

// Reading holds the raw 16-bit words of one validated frame.
type Reading struct {
	RawHumidity    uint16
	RawTemperature uint16
}

// DeciRelHumidity returns tenths of %RH.
func (r Reading) DeciRelHumidity() int32 { return int32(r.RawHumidity) }

// DeciCelsius returns tenths of °C.
//
// The whole 16-bit word is taken as unsigned. Sensors in this family
// reserve the top bit of the temperature high byte as a sign flag, so a
// sub-zero reading surfaces here as a large positive magnitude. Callers
// that know their batch's convention can decode RawTemperature themselves.
func (r Reading) DeciCelsius() int32 { return int32(r.RawTemperature) }

// RelHumidity returns %RH as a float. Prefer DeciRelHumidity on MCU builds.
func (r Reading) RelHumidity() float32 { return float32(r.RawHumidity) / 10.0 }

// Celsius returns °C as a float. Same unsigned caveat as DeciCelsius.
func (r Reading) Celsius() float32 { return float32(r.RawTemperature) / 10.0 }

// waitForLevel busy-polls until the line reads the target level. Each
// failed check sleeps one poll step; the budget counts failed checks, so a
// dead line costs exactly cfg.PollBudget sleeps before ErrTimeout.
func (d *Device) waitForLevel(high bool) error {
	for i := 0; i < d.cfg.PollBudget; i++ {
		if high {
			if d.line.IsHigh() {
				return nil
			}
		} else {
			if d.line.IsLow() {
				return nil
			}
		}
		d.delay.DelayMicros(d.cfg.PollStepMicros)
	}
	return ErrTimeout
}

// readByte assembles 8 bits, most-significant first. Per bit: wait for the
// rising edge, sleep the sample offset, sample once, wait for the line to
// fall before the next bit.
func (d *Device) readByte() (byte, error) {
	var b byte
	for n := 0; n < 8; n++ {
		if err := d.waitForLevel(true); err != nil {
			return 0, err
		}
		d.delay.DelayMicros(d.cfg.SampleOffsetMicros)
		if d.line.IsHigh() {
			b |= 1 << (7 - n)
		}
		if err := d.waitForLevel(false); err != nil {
			return 0, err
		}
	}
	return b, nil
}

// ReadFrame performs one full protocol exchange and returns the raw frame.
// No validation is applied; most callers want Read.
func (d *Device) ReadFrame() (Frame, error) {
	if d.cfg.PollBudget == 0 {
		d.Configure()
	}

	// Host start/reset pulse, then release the line to the sensor.
	d.line.SetLow()
	d.delay.DelayMillis(d.cfg.StartPulseMillis)
	d.line.SetHigh()
	d.delay.DelayMicros(d.cfg.ReleaseHoldMicros)

	// Sensor acknowledgement: high, then the low that opens bit 0.
	if err := d.waitForLevel(true); err != nil {
		return Frame{}, err
	}
	if err := d.waitForLevel(false); err != nil {
		return Frame{}, err
	}

	var f Frame
	for i := range f {
		b, err := d.readByte()
		if err != nil {
			return Frame{}, err
		}
		f[i] = b
	}
	return f, nil
}

// Read performs one exchange, validates the checksum and returns the
// reading. It is a pure function of the line's observed level sequence and
// the configured timing constants.
func (d *Device) Read() (Reading, error) {
	f, err := d.ReadFrame()
	if err != nil {
		return Reading{}, err
	}
	if !f.ChecksumOK() {
		return Reading{}, ErrChecksum
	}
	return Reading{
		RawHumidity:    f.RawHumidity(),
		RawTemperature: f.RawTemperature(),
	}, nil
}
