//go:build rp2040 || rp2350

// pico-probe runs the sensor read loop on a Raspberry Pi Pico, reporting
// readings over UART0 in deci format (no fmt/float formatting on MCU).
package main

import (
	"context"
	"machine"
	"time"

	uartx "github.com/jangala-dev/tinygo-uartx/uartx"

	"dhtprobe-go/bus"
	"dhtprobe-go/drivers/dht22"
	"dhtprobe-go/platform"
	"dhtprobe-go/services/netkeeper"
	"dhtprobe-go/services/probe"
	"dhtprobe-go/types"
	"dhtprobe-go/x/conv"
)

const sensorPin = "GP4"

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})

	line, err := platform.LineByName(sensorPin)
	if err != nil {
		println("bad pin:", err.Error())
		return
	}
	dev := dht22.New(line, platform.Delay())
	dev.Configure()

	ctx := context.Background()
	b := bus.NewBus(4)

	mon := b.NewConnection("ui")
	envSub := mon.Subscribe(bus.T("env", "#"))
	netSub := mon.Subscribe(bus.T("net", "#"))

	ps := probe.New(&dev, probe.Config{})
	_ = ps.Start(ctx, b.NewConnection("probe"))

	ns := netkeeper.New(netkeeper.NopStack{}, netkeeper.Config{})
	_ = ns.Start(ctx, b.NewConnection("net"))

	println("dht22 probe online, pin", sensorPin)

	var out []byte
	for {
		var m *bus.Message
		select {
		case m = <-envSub.Channel():
		case m = <-netSub.Channel():
		}
		out = out[:0]
		switch v := m.Payload.(type) {
		case types.TemperatureValue:
			out = append(out, "T="...)
			out = conv.AppendDeci(out, v.DeciC)
			out = append(out, "C\r\n"...)
		case types.HumidityValue:
			out = append(out, "H="...)
			out = conv.AppendDeci(out, v.DeciRH)
			out = append(out, "%\r\n"...)
		case types.ReadFailure:
			out = append(out, "ERR "...)
			out = append(out, v.Code...)
			out = append(out, "\r\n"...)
		case types.LinkStatus:
			out = append(out, "LINK "...)
			out = append(out, string(v.Link)...)
			out = append(out, "\r\n"...)
		default:
			continue
		}
		_, _ = u.Write(out)
	}
}
