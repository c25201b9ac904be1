// Package config holds the probe node's YAML configuration: which pin the
// sensor hangs off, the read cadence, and the decoder timing block.
package config

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"dhtprobe-go/drivers/dht22"
)

type Config struct {
	Probe ProbeConfig `yaml:"probe"`
	Net   NetConfig   `yaml:"net"`
}

type ProbeConfig struct {
	// Pin is the platform pin name, e.g. "GPIO4" (periph) or "GP4" (RP2).
	Pin        string       `yaml:"pin"`
	IntervalMs int          `yaml:"interval_ms"`
	Timing     TimingConfig `yaml:"timing"`
}

// TimingConfig mirrors dht22.Config. Values are fixed at startup; there is
// no runtime retuning.
type TimingConfig struct {
	PollBudget     int `yaml:"poll_budget"`
	PollStepUs     int `yaml:"poll_step_us"`
	SampleOffsetUs int `yaml:"sample_offset_us"`
	StartPulseMs   int `yaml:"start_pulse_ms"`
	ReleaseHoldUs  int `yaml:"release_hold_us"`
}

type NetConfig struct {
	IntervalMs int `yaml:"interval_ms"`
}

// Driver converts the timing block to the decoder's config. Zero fields
// stay zero; the decoder installs protocol defaults itself.
func (t TimingConfig) Driver() dht22.Config {
	return dht22.Config{
		PollBudget:         t.PollBudget,
		PollStepMicros:     uint32(t.PollStepUs),
		SampleOffsetMicros: uint32(t.SampleOffsetUs),
		StartPulseMillis:   uint32(t.StartPulseMs),
		ReleaseHoldMicros:  uint32(t.ReleaseHoldUs),
	}
}

// Parse unmarshals raw YAML (nil is allowed and yields pure defaults),
// normalizes and validates. The defaults reproduce the nominal DHT22
// timings: 2000 ms cadence, 10000×1 µs poll budget, 30 µs sample offset,
// 18 ms start pulse, 48 µs release hold.
func Parse(raw []byte) (Config, error) {
	var c Config
	if len(raw) > 0 {
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return Config{}, err
		}
	}
	c.normalize()
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) normalize() {
	if c.Probe.Pin == "" {
		c.Probe.Pin = "GPIO4"
	}
	if c.Probe.IntervalMs == 0 {
		c.Probe.IntervalMs = 2000
	}
	if c.Net.IntervalMs == 0 {
		c.Net.IntervalMs = 1000
	}
}

func (c Config) validate() error {
	if c.Probe.IntervalMs < 0 {
		return fmt.Errorf("probe.interval_ms must be > 0")
	}
	if c.Net.IntervalMs < 0 {
		return fmt.Errorf("net.interval_ms must be > 0")
	}
	t := c.Probe.Timing
	if t.PollBudget < 0 {
		return fmt.Errorf("probe.timing.poll_budget must be >= 0")
	}
	for _, f := range []struct {
		name string
		v    int
	}{
		{"poll_step_us", t.PollStepUs},
		{"sample_offset_us", t.SampleOffsetUs},
		{"start_pulse_ms", t.StartPulseMs},
		{"release_hold_us", t.ReleaseHoldUs},
	} {
		if f.v < 0 {
			return fmt.Errorf("probe.timing.%s must be >= 0", f.name)
		}
	}
	return nil
}
