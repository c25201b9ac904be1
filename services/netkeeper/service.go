// Package netkeeper services a network stack that needs periodic polling to
// stay alive (DHCP renewals, keepalives). It is deliberately independent of
// the probe: it never sees a reading and never touches the sensor line; the
// two only share the bus and the gaps between read cycles.
package netkeeper

import (
	"context"
	"time"

	"dhtprobe-go/bus"
	"dhtprobe-go/types"
	"dhtprobe-go/x/timex"
)

var TopicLink = bus.Topic{"net", "link"}

// Stack is the minimum surface of a pollable network stack.
type Stack interface {
	// Poll advances the stack and reports whether the link is up. It must
	// return quickly; the probe's schedule has no preemption to reclaim
	// time from a stalled collaborator.
	Poll(nowMs int64) bool
}

// NopStack is for hosts where the OS owns the network; always up.
type NopStack struct{}

func (NopStack) Poll(int64) bool { return true }

type Config struct {
	// Interval between stack polls. Default 1000 ms.
	Interval time.Duration
}

type Service struct {
	cfg   Config
	stack Stack
}

func New(stack Stack, cfg Config) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = 1000 * time.Millisecond
	}
	return &Service{cfg: cfg, stack: stack}
}

func (s *Service) Start(ctx context.Context, conn *bus.Connection) error {
	go s.serviceLoop(ctx, conn)
	return nil
}

func (s *Service) serviceLoop(ctx context.Context, conn *bus.Connection) {
	tick := time.NewTicker(s.cfg.Interval)
	defer tick.Stop()

	// Publish the initial state, then only transitions. Retained, so
	// subscribers always find the current link state.
	last := s.poll(conn, types.Link(""))
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			last = s.poll(conn, last)
		}
	}
}

func (s *Service) poll(conn *bus.Connection, last types.Link) types.Link {
	now := timex.NowMs()
	link := types.LinkDown
	if s.stack.Poll(now) {
		link = types.LinkUp
	}
	if link != last {
		conn.Publish(conn.NewMessage(TopicLink, types.LinkStatus{
			Link: link,
			TsMs: now,
		}, true))
	}
	return link
}
