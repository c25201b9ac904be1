// probe-host runs the sensor read loop on a Linux host with periph.io GPIO,
// logging every bus message it sees. Wiring: DHT22 data line on the
// configured pin, external pull-up per the sensor datasheet.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"dhtprobe-go/bus"
	"dhtprobe-go/drivers/dht22"
	"dhtprobe-go/platform"
	"dhtprobe-go/services/config"
	"dhtprobe-go/services/netkeeper"
	"dhtprobe-go/services/probe"
	"dhtprobe-go/types"
	"dhtprobe-go/x/conv"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to yaml config (optional)")
		pin        = flag.String("pin", "", "override sensor pin name")
		debug      = flag.Bool("debug", false, "enable debug logging")
	)
	flag.Parse()

	if *debug {
		log.SetLevel(log.DebugLevel)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if *pin != "" {
		cfg.Probe.Pin = *pin
	}

	if err := platform.Init(); err != nil {
		log.Fatal(errors.Wrap(err, "init gpio host"))
	}
	line, err := platform.LineByName(cfg.Probe.Pin)
	if err != nil {
		log.Fatal(err)
	}

	dev := dht22.New(line, platform.Delay())
	dev.Configure(cfg.Probe.Timing.Driver())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b := bus.NewBus(8)

	mon := b.NewConnection("monitor")
	envSub := mon.Subscribe(bus.T("env", "#"))
	netSub := mon.Subscribe(bus.T("net", "#"))
	go monitor(envSub, netSub)

	ps := probe.New(&dev, probe.Config{
		Interval: time.Duration(cfg.Probe.IntervalMs) * time.Millisecond,
	})
	if err := ps.Start(ctx, b.NewConnection("probe")); err != nil {
		log.Fatal(err)
	}

	ns := netkeeper.New(netkeeper.NopStack{}, netkeeper.Config{
		Interval: time.Duration(cfg.Net.IntervalMs) * time.Millisecond,
	})
	if err := ns.Start(ctx, b.NewConnection("net")); err != nil {
		log.Fatal(err)
	}

	log.WithFields(log.Fields{
		"pin":         cfg.Probe.Pin,
		"interval_ms": cfg.Probe.IntervalMs,
	}).Info("probe running")

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
}

func loadConfig(path string) (config.Config, error) {
	var raw []byte
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return config.Config{}, errors.Wrap(err, "read config")
		}
	}
	cfg, err := config.Parse(raw)
	if err != nil {
		return config.Config{}, errors.Wrap(err, "parse config")
	}
	return cfg, nil
}

func monitor(envSub, netSub *bus.Subscription) {
	for {
		var m *bus.Message
		select {
		case m = <-envSub.Channel():
		case m = <-netSub.Channel():
		}
		switch v := m.Payload.(type) {
		case types.TemperatureValue:
			log.Infof("temperature %s°C", conv.FormatDeci(v.DeciC))
		case types.HumidityValue:
			log.Infof("humidity %s%%", conv.FormatDeci(v.DeciRH))
		case types.ReadFailure:
			log.WithField("code", v.Code).Warn("reading failed")
		case types.LinkStatus:
			log.WithField("link", string(v.Link)).Info("network link")
		default:
			log.Debugf("%s: %v", m.Topic, m.Payload)
		}
	}
}
