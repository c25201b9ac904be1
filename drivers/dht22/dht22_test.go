package dht22

import (
	"errors"
	"testing"
)

// -----------------------------------------------------------------------------
// Simulated line
//
// The sim implements both Line and Delayer, so virtual time only advances
// through the decoder's own delay calls and the waveform position is a pure
// function of virtual microseconds. Levels replay relative to the moment
// the host releases the line, which lets one sim serve repeated reads.
// -----------------------------------------------------------------------------

type step struct {
	high bool
	dur  uint64 // µs
}

type simLine struct {
	t        uint64 // virtual time, µs
	released bool
	hostHigh bool
	relAt    uint64
	lead     uint64 // pull-up gap between release and the sensor taking over
	script   []step
	idleHigh bool

	stepSleeps int // DelayMicros(1) calls; the poll budget consumed
}

// newSimLine builds a sim transmitting the given five bytes with nominal
// protocol timing: ack 80/80, bit start 50 low, "0" high 26 µs, "1" high 70 µs.
func newSimLine(bytes [5]byte) *simLine {
	s := []step{{false, 80}, {true, 80}}
	for _, b := range bytes {
		for bit := 7; bit >= 0; bit-- {
			s = append(s, step{false, 50})
			if b&(1<<bit) != 0 {
				s = append(s, step{true, 70})
			} else {
				s = append(s, step{true, 26})
			}
		}
	}
	s = append(s, step{false, 50})
	return &simLine{lead: 30, script: s, idleHigh: true}
}

// deadLine never responds: low forever once the host releases.
func deadLine() *simLine {
	return &simLine{lead: 0, script: []step{{false, 1 << 40}}}
}

func (s *simLine) level() bool {
	if !s.released {
		return s.hostHigh
	}
	dt := s.t - s.relAt
	if dt < s.lead {
		return true // pull-up holds the line until the sensor answers
	}
	off := dt - s.lead
	for _, st := range s.script {
		if off < st.dur {
			return st.high
		}
		off -= st.dur
	}
	return s.idleHigh
}

func (s *simLine) SetLow() {
	s.released = false
	s.hostHigh = false
}

func (s *simLine) SetHigh() {
	if !s.released {
		s.released = true
		s.relAt = s.t
	}
	s.hostHigh = true
}

func (s *simLine) IsLow() bool  { return !s.level() }
func (s *simLine) IsHigh() bool { return s.level() }

func (s *simLine) DelayMicros(n uint32) {
	if n == DefaultPollStepMicros {
		s.stepSleeps++
	}
	s.t += uint64(n)
}

func (s *simLine) DelayMillis(n uint32) { s.t += uint64(n) * 1000 }

// -----------------------------------------------------------------------------
// Decoding
// -----------------------------------------------------------------------------

func TestReadDecodesValidFrame(t *testing.T) {
	// 0x02 0x8A 0x01 0x05, checksum 0x92 => 65.0 %RH, 26.1 °C.
	sim := newSimLine([5]byte{0x02, 0x8A, 0x01, 0x05, 0x92})
	dev := New(sim, sim)

	r, err := dev.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if r.DeciRelHumidity() != 650 {
		t.Errorf("DeciRelHumidity = %d, want 650", r.DeciRelHumidity())
	}
	if r.DeciCelsius() != 261 {
		t.Errorf("DeciCelsius = %d, want 261", r.DeciCelsius())
	}
	if r.RelHumidity() != 65.0 {
		t.Errorf("RelHumidity = %v, want 65.0", r.RelHumidity())
	}
	if r.Celsius() != 26.1 {
		t.Errorf("Celsius = %v, want 26.1", r.Celsius())
	}
}

func TestReadValidQuintuples(t *testing.T) {
	cases := []struct {
		name     string
		bytes    [5]byte
		deciRH   int32
		deciC    int32
	}{
		{"zero", [5]byte{0, 0, 0, 0, 0}, 0, 0},
		{"typical", [5]byte{0x01, 0xF4, 0x00, 0xD2, 0xC7}, 500, 210},
		{"checksum wraps", [5]byte{0xFF, 0x01, 0xFF, 0x01, 0x00}, 0xFF01, 0xFF01},
		{"all ones data", [5]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFC}, 0xFFFF, 0xFFFF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			sim := newSimLine(c.bytes)
			dev := New(sim, sim)
			r, err := dev.Read()
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if r.DeciRelHumidity() != c.deciRH || r.DeciCelsius() != c.deciC {
				t.Errorf("got (%d, %d), want (%d, %d)",
					r.DeciRelHumidity(), r.DeciCelsius(), c.deciRH, c.deciC)
			}
		})
	}
}

func TestChecksumMismatch(t *testing.T) {
	// Same bytes as the valid vector but a corrupted checksum byte.
	sim := newSimLine([5]byte{0x02, 0x8A, 0x01, 0x05, 0x93})
	dev := New(sim, sim)

	r, err := dev.Read()
	if !errors.Is(err, ErrChecksum) {
		t.Fatalf("err = %v, want ErrChecksum", err)
	}
	if r != (Reading{}) {
		t.Errorf("reading surfaced on checksum failure: %+v", r)
	}
}

func TestChecksumMismatchKeepsRawFrame(t *testing.T) {
	// ReadFrame itself succeeds; only validation rejects the quintuple.
	sim := newSimLine([5]byte{0x02, 0x8A, 0x01, 0x05, 0x93})
	dev := New(sim, sim)

	f, err := dev.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if f != (Frame{0x02, 0x8A, 0x01, 0x05, 0x93}) {
		t.Errorf("frame = %x", f)
	}
	if f.ChecksumOK() {
		t.Error("ChecksumOK = true, want false")
	}
	if f.Sum() != 0x92 {
		t.Errorf("Sum = %#x, want 0x92", f.Sum())
	}
}

// -----------------------------------------------------------------------------
// Timeouts
// -----------------------------------------------------------------------------

func TestTimeoutDeadLine(t *testing.T) {
	sim := deadLine()
	dev := New(sim, sim)

	_, err := dev.Read()
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	// The first wait (for the ack high) exhausts the budget exactly:
	// one poll-step sleep per failed check, no earlier and no later.
	if sim.stepSleeps != DefaultPollBudget {
		t.Errorf("poll-step sleeps = %d, want %d", sim.stepSleeps, DefaultPollBudget)
	}
}

func TestTimeoutHonoursConfiguredBudget(t *testing.T) {
	sim := deadLine()
	dev := New(sim, sim)
	dev.Configure(Config{PollBudget: 100})

	_, err := dev.Read()
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if sim.stepSleeps != 100 {
		t.Errorf("poll-step sleeps = %d, want 100", sim.stepSleeps)
	}
}

func TestTimeoutMidFrameDiscardsPartial(t *testing.T) {
	// Ack completes, then the sensor dies before bit 0's rising edge.
	sim := &simLine{
		lead:   30,
		script: []step{{false, 80}, {true, 80}, {false, 1 << 40}},
	}
	dev := New(sim, sim)

	f, err := dev.ReadFrame()
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if f != (Frame{}) {
		t.Errorf("partial frame surfaced: %x", f)
	}
}

// -----------------------------------------------------------------------------
// Determinism
// -----------------------------------------------------------------------------

func TestReadIsIdempotentOverIdenticalWaveform(t *testing.T) {
	bytes := [5]byte{0x02, 0x8A, 0x01, 0x05, 0x92}

	// Same sim reused: the waveform replays relative to each release.
	sim := newSimLine(bytes)
	dev := New(sim, sim)
	first, err1 := dev.Read()
	second, err2 := dev.Read()
	if err1 != nil || err2 != nil {
		t.Fatalf("errs: %v, %v", err1, err2)
	}
	if first != second {
		t.Errorf("repeated decode diverged: %+v vs %+v", first, second)
	}

	// Fresh sim, same script: same outcome again.
	sim2 := newSimLine(bytes)
	dev2 := New(sim2, sim2)
	third, err3 := dev2.Read()
	if err3 != nil {
		t.Fatalf("err: %v", err3)
	}
	if third != first {
		t.Errorf("fresh decode diverged: %+v vs %+v", third, first)
	}
}

func TestBadChecksumIsIdempotentToo(t *testing.T) {
	sim := newSimLine([5]byte{0x10, 0x20, 0x30, 0x40, 0x00})
	dev := New(sim, sim)
	for i := 0; i < 3; i++ {
		if _, err := dev.Read(); !errors.Is(err, ErrChecksum) {
			t.Fatalf("read %d: err = %v, want ErrChecksum", i, err)
		}
	}
}
