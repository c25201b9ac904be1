// Package probe runs the fixed-cadence read loop: one decode attempt per
// period, outcome published on the bus, failures never break the schedule.
package probe

import (
	"context"
	"errors"
	"time"

	"dhtprobe-go/bus"
	"dhtprobe-go/drivers/dht22"
	"dhtprobe-go/errcode"
	"dhtprobe-go/types"
	"dhtprobe-go/x/timex"
)

// Bus topics. Readings are retained so late subscribers see current values.
var (
	TopicTemperature = bus.Topic{"env", "temperature"}
	TopicHumidity    = bus.Topic{"env", "humidity"}
	TopicError       = bus.Topic{"env", "error"}
)

// Reader is the decoder surface the loop drives; satisfied by *dht22.Device.
type Reader interface {
	Read() (dht22.Reading, error)
}

type Config struct {
	// Interval between read cycle starts. Default 2000 ms — the sensor
	// needs ~2 s between conversions.
	Interval time.Duration
}

type Service struct {
	cfg Config
	dev Reader
}

func New(dev Reader, cfg Config) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = 2000 * time.Millisecond
	}
	return &Service{cfg: cfg, dev: dev}
}

// Start launches the read loop. The loop owns the sensor line for the
// duration of each cycle; between cycles the line is idle.
func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	tick := time.NewTicker(s.cfg.Interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			s.cycle(conn)
		}
	}
}

// cycle performs one decode and reports the outcome. Decode errors abort
// only this cycle; the ticker keeps the next one on schedule.
func (s *Service) cycle(conn *bus.Connection) {
	r, err := s.dev.Read()
	now := timex.NowMs()
	if err != nil {
		conn.Publish(conn.NewMessage(TopicError, types.ReadFailure{
			Code: string(codeOf(err)),
			TsMs: now,
		}, false))
		return
	}
	conn.Publish(conn.NewMessage(TopicTemperature, types.TemperatureValue{
		DeciC: r.DeciCelsius(),
		TsMs:  now,
	}, true))
	conn.Publish(conn.NewMessage(TopicHumidity, types.HumidityValue{
		DeciRH: r.DeciRelHumidity(),
		TsMs:   now,
	}, true))
}

func codeOf(err error) errcode.Code {
	switch {
	case errors.Is(err, dht22.ErrTimeout):
		return errcode.Timeout
	case errors.Is(err, dht22.ErrChecksum):
		return errcode.ChecksumMismatch
	default:
		return errcode.Of(err)
	}
}
