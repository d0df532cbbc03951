package power

import (
	"fmt"

	"github.com/fgeck/gopower-homelab/internal/models"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Line identifies a digital output.
type Line int

// Output lines.
const (
	LineRelay Line = iota
	LinePulseLED
	LineLinkLED
	LineFaultLED
)

func (l Line) String() string {
	switch l {
	case LineRelay:
		return "relay"
	case LinePulseLED:
		return "pulse_led"
	case LineLinkLED:
		return "link_led"
	case LineFaultLED:
		return "fault_led"
	default:
		return fmt.Sprintf("line(%d)", int(l))
	}
}

// GPIO is the digital I/O capability the controller needs.
type GPIO interface {
	Write(line Line, high bool) error
	ReadStatus() (bool, error)
}

// PeriphGPIO drives real pins through periph.io.
type PeriphGPIO struct {
	outputs map[Line]gpio.PinIO
	status  gpio.PinIO
}

// NewPeriphGPIO initialises the host drivers, resolves every configured pin
// and drives all outputs low.
func NewPeriphGPIO(cfg models.GPIOConfig) (*PeriphGPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialise GPIO host: %w", err)
	}

	names := map[Line]string{
		LineRelay:    cfg.Relay,
		LinePulseLED: cfg.PulseLED,
		LineLinkLED:  cfg.LinkLED,
		LineFaultLED: cfg.FaultLED,
	}

	g := &PeriphGPIO{outputs: make(map[Line]gpio.PinIO, len(names))}
	for line, name := range names {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("unknown GPIO pin %q for %s", name, line)
		}
		if err := pin.Out(gpio.Low); err != nil {
			return nil, fmt.Errorf("failed to configure %s (%s) as output: %w", line, name, err)
		}
		g.outputs[line] = pin
	}

	g.status = gpioreg.ByName(cfg.Status)
	if g.status == nil {
		return nil, fmt.Errorf("unknown GPIO pin %q for status", cfg.Status)
	}
	if err := g.status.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return nil, fmt.Errorf("failed to configure status (%s) as input: %w", cfg.Status, err)
	}

	return g, nil
}

// Write sets an output high or low.
func (g *PeriphGPIO) Write(line Line, high bool) error {
	pin, ok := g.outputs[line]
	if !ok {
		return fmt.Errorf("no pin configured for %s", line)
	}
	return pin.Out(gpio.Level(high))
}

// ReadStatus samples the device status input once.
func (g *PeriphGPIO) ReadStatus() (bool, error) {
	return g.status.Read() == gpio.High, nil
}
